package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockLevels_CreditNormalizesTag(t *testing.T) {
	s := StockLevels{}
	s.Credit(VariationPremium, decimal.NewFromInt(10))
	s.Credit(VariationTag(""), decimal.NewFromInt(3))
	s.Credit(VariationTag("heirloom"), decimal.NewFromInt(2))
	s.Credit(VariationRegular, decimal.NewFromInt(1))

	assert.True(t, s.Level(VariationPremium).Equal(decimal.NewFromInt(10)))
	// blank and unknown tags accumulate on the regular counter
	assert.True(t, s.Level(VariationRegular).Equal(decimal.NewFromInt(6)))
	assert.True(t, s.Level(VariationTypeA).IsZero())
}

func TestStockLevels_ValueScanRoundTrip(t *testing.T) {
	s := StockLevels{
		VariationRegular: decimal.RequireFromString("120.5"),
		VariationTypeB:   decimal.NewFromInt(4),
	}
	v, err := s.Value()
	require.NoError(t, err)

	var got StockLevels
	require.NoError(t, got.Scan(v))
	assert.True(t, got.Level(VariationRegular).Equal(decimal.RequireFromString("120.5")))
	assert.True(t, got.Level(VariationTypeB).Equal(decimal.NewFromInt(4)))
}

func TestStockLevels_ScanNil(t *testing.T) {
	var s StockLevels
	require.NoError(t, s.Scan(nil))
	assert.NotNil(t, s)
	assert.True(t, s.Level(VariationRegular).IsZero())
}

func TestStockLevels_NilValue(t *testing.T) {
	var s StockLevels
	v, err := s.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
}
