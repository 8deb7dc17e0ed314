package harvests

import (
	"context"
	"testing"
	"time"

	allocsvc "anihan-backend/internal/application/allocation"
	"anihan-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupHarvestTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Product{}, &domain.Harvest{}, &domain.Preorder{}, &domain.Allocation{},
	))
	alloc := &allocsvc.Service{DB: db, Emitter: &allocsvc.LogEmitter{}}
	// Async false: the publication pipeline runs inline so assertions see it.
	return &Service{DB: db, Allocator: alloc}, db
}

func seedProduct(t *testing.T, db *gorm.DB, sellerID uuid.UUID) *domain.Product {
	t.Helper()
	product := &domain.Product{SellerID: sellerID, Name: "Carrots"}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestRecordHarvest_Validation(t *testing.T) {
	svc, db := setupHarvestTest(t)
	sellerID := uuid.New()
	product := seedProduct(t, db, sellerID)

	_, err := svc.RecordHarvest(context.Background(), RecordHarvestInput{
		SellerID:       sellerID,
		ActualWeightKg: decimal.NewFromInt(5),
	})
	require.Error(t, err)
	assert.Equal(t, "product_id is required", err.Error())

	_, err = svc.RecordHarvest(context.Background(), RecordHarvestInput{
		ProductID:      product.ProductID,
		SellerID:       sellerID,
		ActualWeightKg: decimal.Zero,
	})
	require.Error(t, err)
	assert.Equal(t, "actual_weight_kg must be positive", err.Error())

	_, err = svc.RecordHarvest(context.Background(), RecordHarvestInput{
		ProductID:      product.ProductID,
		SellerID:       uuid.New(),
		ActualWeightKg: decimal.NewFromInt(5),
	})
	require.Error(t, err)
	assert.Equal(t, "Product does not belong to this seller", err.Error())
}

func TestRecordHarvest_CreatesUnpublished(t *testing.T) {
	svc, db := setupHarvestTest(t)
	sellerID := uuid.New()
	product := seedProduct(t, db, sellerID)

	harvest, err := svc.RecordHarvest(context.Background(), RecordHarvestInput{
		ProductID:      product.ProductID,
		SellerID:       sellerID,
		Variation:      domain.VariationPremium,
		Unit:           domain.UnitSack,
		ActualWeightKg: decimal.RequireFromString("25.5"),
	})
	require.NoError(t, err)
	assert.False(t, harvest.Published)
	assert.True(t, harvest.AvailableWeightKg.Equal(harvest.ActualWeightKg))
	assert.True(t, harvest.AllocatedWeightKg.IsZero())
	assert.False(t, harvest.HarvestDate.IsZero())
}

func TestPublishHarvest_RunsPipeline(t *testing.T) {
	svc, db := setupHarvestTest(t)
	sellerID := uuid.New()
	product := seedProduct(t, db, sellerID)

	harvest, err := svc.RecordHarvest(context.Background(), RecordHarvestInput{
		ProductID:      product.ProductID,
		SellerID:       sellerID,
		Variation:      domain.VariationRegular,
		Unit:           domain.UnitKg,
		ActualWeightKg: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	preorder := &domain.Preorder{
		ConsumerID:   uuid.New(),
		SellerID:     sellerID,
		ProductID:    product.ProductID,
		Variation:    domain.VariationRegular,
		Unit:         domain.UnitKg,
		Quantity:     4,
		UnitWeightKg: decimal.NewFromInt(1),
		Status:       domain.StatusPending,
		CreatedAt:    time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(preorder).Error)

	published, err := svc.PublishHarvest(context.Background(), harvest.HarvestID, sellerID)
	require.NoError(t, err)
	assert.True(t, published.Published)

	var p domain.Preorder
	require.NoError(t, db.Where("preorder_id = ?", preorder.PreorderID).First(&p).Error)
	assert.Equal(t, domain.StatusReserved, p.Status)
	assert.True(t, p.AllocatedQty.Equal(decimal.NewFromInt(4)))

	var prod domain.Product
	require.NoError(t, db.Where("product_id = ?", product.ProductID).First(&prod).Error)
	assert.True(t, prod.StockLevels.Level(domain.VariationRegular).Equal(decimal.NewFromInt(10)))
}

func TestPublishHarvest_DoublePublishRejected(t *testing.T) {
	svc, db := setupHarvestTest(t)
	sellerID := uuid.New()
	product := seedProduct(t, db, sellerID)

	harvest, err := svc.RecordHarvest(context.Background(), RecordHarvestInput{
		ProductID:      product.ProductID,
		SellerID:       sellerID,
		Variation:      domain.VariationRegular,
		Unit:           domain.UnitKg,
		ActualWeightKg: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	_, err = svc.PublishHarvest(context.Background(), harvest.HarvestID, sellerID)
	require.NoError(t, err)

	_, err = svc.PublishHarvest(context.Background(), harvest.HarvestID, sellerID)
	require.Error(t, err)
	assert.Equal(t, "Harvest is already published", err.Error())

	// No double stock credit.
	var prod domain.Product
	require.NoError(t, db.Where("product_id = ?", product.ProductID).First(&prod).Error)
	assert.True(t, prod.StockLevels.Level(domain.VariationRegular).Equal(decimal.NewFromInt(10)))
}

func TestReprocessHarvest_TopsUpLateDemand(t *testing.T) {
	svc, db := setupHarvestTest(t)
	sellerID := uuid.New()
	product := seedProduct(t, db, sellerID)

	harvest, err := svc.RecordHarvest(context.Background(), RecordHarvestInput{
		ProductID:      product.ProductID,
		SellerID:       sellerID,
		Variation:      domain.VariationRegular,
		Unit:           domain.UnitKg,
		ActualWeightKg: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	_, err = svc.PublishHarvest(context.Background(), harvest.HarvestID, sellerID)
	require.NoError(t, err)

	// Demand arrives after publication.
	preorder := &domain.Preorder{
		ConsumerID:   uuid.New(),
		SellerID:     sellerID,
		ProductID:    product.ProductID,
		Variation:    domain.VariationRegular,
		Unit:         domain.UnitKg,
		Quantity:     3,
		UnitWeightKg: decimal.NewFromInt(1),
		Status:       domain.StatusPending,
	}
	require.NoError(t, db.Create(preorder).Error)

	_, err = svc.ReprocessHarvest(context.Background(), harvest.HarvestID)
	require.NoError(t, err)

	var p domain.Preorder
	require.NoError(t, db.Where("preorder_id = ?", preorder.PreorderID).First(&p).Error)
	assert.True(t, p.AllocatedQty.Equal(decimal.NewFromInt(3)))

	// Stock was credited once, at publication.
	var prod domain.Product
	require.NoError(t, db.Where("product_id = ?", product.ProductID).First(&prod).Error)
	assert.True(t, prod.StockLevels.Level(domain.VariationRegular).Equal(decimal.NewFromInt(10)))
}

func TestReprocessHarvest_UnpublishedRejected(t *testing.T) {
	svc, db := setupHarvestTest(t)
	sellerID := uuid.New()
	product := seedProduct(t, db, sellerID)

	harvest, err := svc.RecordHarvest(context.Background(), RecordHarvestInput{
		ProductID:      product.ProductID,
		SellerID:       sellerID,
		Variation:      domain.VariationRegular,
		Unit:           domain.UnitKg,
		ActualWeightKg: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	_, err = svc.ReprocessHarvest(context.Background(), harvest.HarvestID)
	require.Error(t, err)
	assert.Equal(t, "Harvest is not published", err.Error())
}
