package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VariationTag is the quality grade of produce.
type VariationTag string

const (
	VariationRegular VariationTag = "regular"
	VariationPremium VariationTag = "premium"
	VariationTypeA   VariationTag = "type_a"
	VariationTypeB   VariationTag = "type_b"
)

// Normalize maps blank or unrecognized tags to the regular grade, which is
// where stock for untagged harvests is credited.
func (v VariationTag) Normalize() VariationTag {
	switch v {
	case VariationPremium, VariationTypeA, VariationTypeB:
		return v
	default:
		return VariationRegular
	}
}

// UnitTag is the selling unit of produce. Informational only: all weight
// bookkeeping is done in kilograms regardless of unit.
type UnitTag string

const (
	UnitKg        UnitTag = "kg"
	UnitSack      UnitTag = "sack"
	UnitSmallSack UnitTag = "small_sack"
	UnitTali      UnitTag = "tali"
	UnitPieces    UnitTag = "pieces"
)

// StockLevels maps variation tags to on-hand kilograms. Stored in the DB as a
// jsonb column but exposed to the API as an object, so callers see
// {"regular": "120.5", "premium": "30"} rather than four parallel columns.
type StockLevels map[VariationTag]decimal.Decimal

// Credit adds weight to the counter for the given variation, defaulting to
// the regular counter for blank/unknown tags.
func (s StockLevels) Credit(tag VariationTag, weightKg decimal.Decimal) {
	key := tag.Normalize()
	s[key] = s[key].Add(weightKg)
}

// Level returns the counter for the given variation (zero when absent).
func (s StockLevels) Level(tag VariationTag) decimal.Decimal {
	return s[tag.Normalize()]
}

// Scan implements sql.Scanner for reading from DB (json column).
func (s *StockLevels) Scan(value interface{}) error {
	if value == nil {
		*s = StockLevels{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported type for StockLevels")
	}
	if len(raw) == 0 {
		*s = StockLevels{}
		return nil
	}
	m := map[VariationTag]decimal.Decimal{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	*s = m
	return nil
}

// Value implements driver.Valuer for writing to DB.
func (s StockLevels) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	bs, err := json.Marshal(map[VariationTag]decimal.Decimal(s))
	if err != nil {
		return nil, err
	}
	return string(bs), nil
}

// Product is the catalog entry harvests and preorders reference. Catalog CRUD
// lives elsewhere; this service only reads products and credits their stock.
type Product struct {
	ProductID   uuid.UUID   `gorm:"column:product_id;type:uuid;primaryKey" json:"product_id"`
	SellerID    uuid.UUID   `gorm:"column:seller_id;type:uuid;not null" json:"seller_id"`
	Name        string      `gorm:"column:name;not null" json:"name"`
	StockLevels StockLevels `gorm:"column:stock_levels;type:jsonb" json:"stock_levels"`
	CreatedAt   time.Time   `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt   time.Time   `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Product) TableName() string {
	return "Products"
}

// BeforeCreate: never insert zero UUID for primary key; generate random when not set.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ProductID == uuid.Nil {
		p.ProductID = uuid.New()
	}
	if p.StockLevels == nil {
		p.StockLevels = StockLevels{}
	}
	return nil
}
