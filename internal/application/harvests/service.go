package harvests

import (
	"context"
	"errors"
	"time"

	"anihan-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Allocator is the publication pipeline a published harvest is handed to.
type Allocator interface {
	ProcessPublishedHarvest(ctx context.Context, harvestID uuid.UUID) error
	RunPass(ctx context.Context, harvestID uuid.UUID) error
}

// Service encapsulates harvest operations. With Async set, publication hands
// the harvest to the allocator in a goroutine (fire-and-forget w.r.t. the
// HTTP request); tests leave it false and run the pipeline inline.
type Service struct {
	DB        *gorm.DB
	Allocator Allocator
	Async     bool
}

// RecordHarvestInput carries the fields a seller records for a yield.
type RecordHarvestInput struct {
	ProductID      uuid.UUID
	SellerID       uuid.UUID
	Variation      domain.VariationTag
	Unit           domain.UnitTag
	ActualWeightKg decimal.Decimal
	HarvestDate    time.Time
	Verified       bool
}

// RecordHarvest creates an unpublished harvest for a seller's product.
func (s *Service) RecordHarvest(ctx context.Context, in RecordHarvestInput) (*domain.Harvest, error) {
	if in.ProductID == uuid.Nil {
		return nil, errors.New("product_id is required")
	}
	if in.SellerID == uuid.Nil {
		return nil, errors.New("seller_id is required")
	}
	if !in.ActualWeightKg.IsPositive() {
		return nil, errors.New("actual_weight_kg must be positive")
	}

	var product domain.Product
	if err := s.DB.WithContext(ctx).Where("product_id = ?", in.ProductID).First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New("Product not found")
		}
		return nil, err
	}
	if product.SellerID != in.SellerID {
		return nil, errors.New("Product does not belong to this seller")
	}

	harvestDate := in.HarvestDate
	if harvestDate.IsZero() {
		harvestDate = time.Now()
	}

	harvest := domain.Harvest{
		ProductID:      in.ProductID,
		SellerID:       in.SellerID,
		Variation:      in.Variation,
		Unit:           in.Unit,
		ActualWeightKg: in.ActualWeightKg,
		HarvestDate:    harvestDate,
		Verified:       in.Verified,
	}
	if err := s.DB.WithContext(ctx).Create(&harvest).Error; err != nil {
		return nil, err
	}
	return &harvest, nil
}

// PublishHarvest flips the harvest to published exactly once and triggers the
// publication pipeline. The flip is a conditional update so a double publish
// cannot credit stock twice.
func (s *Service) PublishHarvest(ctx context.Context, harvestID, sellerID uuid.UUID) (*domain.Harvest, error) {
	if harvestID == uuid.Nil {
		return nil, errors.New("harvest_id is required")
	}

	var harvest domain.Harvest
	if err := s.DB.WithContext(ctx).Where("harvest_id = ?", harvestID).First(&harvest).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New("Harvest not found")
		}
		return nil, err
	}
	if sellerID != uuid.Nil && harvest.SellerID != sellerID {
		return nil, errors.New("Harvest does not belong to this seller")
	}
	if harvest.Published {
		return nil, errors.New("Harvest is already published")
	}

	res := s.DB.WithContext(ctx).Model(&domain.Harvest{}).
		Where("harvest_id = ? AND published = ?", harvestID, false).
		Update("published", true)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errors.New("Harvest is already published")
	}
	harvest.Published = true

	s.dispatch(ctx, harvestID, s.Allocator.ProcessPublishedHarvest)
	return &harvest, nil
}

// ReprocessHarvest re-runs an allocation pass over an already-published
// harvest, e.g. when preorders arrived after publication. Stock is not
// re-credited.
func (s *Service) ReprocessHarvest(ctx context.Context, harvestID uuid.UUID) (*domain.Harvest, error) {
	if harvestID == uuid.Nil {
		return nil, errors.New("harvest_id is required")
	}

	var harvest domain.Harvest
	if err := s.DB.WithContext(ctx).Where("harvest_id = ?", harvestID).First(&harvest).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New("Harvest not found")
		}
		return nil, err
	}
	if !harvest.Published {
		return nil, errors.New("Harvest is not published")
	}

	s.dispatch(ctx, harvestID, s.Allocator.RunPass)
	return &harvest, nil
}

func (s *Service) dispatch(ctx context.Context, harvestID uuid.UUID, run func(context.Context, uuid.UUID) error) {
	if !s.Async {
		if err := run(ctx, harvestID); err != nil {
			log.Error().Err(err).Str("harvest_id", harvestID.String()).Msg("Allocation pipeline failed")
		}
		return
	}
	go func() {
		// Detached from the request context: the pass runs to completion
		// regardless of the caller hanging up.
		if err := run(context.Background(), harvestID); err != nil {
			log.Error().Err(err).Str("harvest_id", harvestID.String()).Msg("Allocation pipeline failed")
		}
	}()
}

// GetHarvest returns one harvest with its allocation ledger state.
func (s *Service) GetHarvest(ctx context.Context, harvestID uuid.UUID) (*domain.Harvest, error) {
	if harvestID == uuid.Nil {
		return nil, errors.New("harvest_id is required")
	}
	var harvest domain.Harvest
	if err := s.DB.WithContext(ctx).Where("harvest_id = ?", harvestID).First(&harvest).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New("Harvest not found")
		}
		return nil, err
	}
	return &harvest, nil
}

// GetSellerHarvests returns a seller's harvests, newest first, optionally
// narrowed to one product.
func (s *Service) GetSellerHarvests(ctx context.Context, sellerID, productID uuid.UUID) ([]domain.Harvest, error) {
	if sellerID == uuid.Nil {
		return nil, errors.New("seller_id is required")
	}
	query := s.DB.WithContext(ctx).Where("seller_id = ?", sellerID)
	if productID != uuid.Nil {
		query = query.Where("product_id = ?", productID)
	}
	var harvests []domain.Harvest
	if err := query.Order(`"createdAt" DESC`).Find(&harvests).Error; err != nil {
		return nil, err
	}
	return harvests, nil
}
