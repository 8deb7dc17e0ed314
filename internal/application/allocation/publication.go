package allocation

import (
	"context"
	"errors"

	"anihan-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ProcessPublishedHarvest is the publication pipeline, triggered once per
// harvest transition into published: credit the product's variation stock,
// then run one allocation pass against the harvest. Passes over the same
// harvest are serialized; see Service.lockHarvest.
func (s *Service) ProcessPublishedHarvest(ctx context.Context, harvestID uuid.UUID) error {
	unlock := s.lockHarvest(harvestID)
	defer unlock()

	var h domain.Harvest
	if err := s.DB.WithContext(ctx).Where("harvest_id = ?", harvestID).First(&h).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.New("Harvest not found")
		}
		return err
	}
	if !h.Published {
		return errors.New("Harvest is not published")
	}
	if err := validateHarvest(&h); err != nil {
		// Malformed harvest: no stock credit, no allocation. Non-fatal.
		log.Warn().
			Str("harvest_id", h.HarvestID.String()).
			Str("reason", err.Error()).
			Msg("Skipping harvest publication")
		return nil
	}

	s.creditStock(ctx, &h)
	return s.runPass(ctx, &h)
}

// RunPass re-runs allocation against an already-published harvest, e.g. after
// new preorders arrived. Stock is not re-credited: the credit happens exactly
// once, at publication. Idempotent — bounded by the harvest's remaining
// available weight.
func (s *Service) RunPass(ctx context.Context, harvestID uuid.UUID) error {
	unlock := s.lockHarvest(harvestID)
	defer unlock()

	var h domain.Harvest
	if err := s.DB.WithContext(ctx).Where("harvest_id = ?", harvestID).First(&h).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.New("Harvest not found")
		}
		return err
	}
	if !h.Published {
		return errors.New("Harvest is not published")
	}
	if err := validateHarvest(&h); err != nil {
		return err
	}
	return s.runPass(ctx, &h)
}

func validateHarvest(h *domain.Harvest) error {
	if h.ProductID == uuid.Nil {
		return errors.New("Harvest has no product reference")
	}
	if !h.ActualWeightKg.IsPositive() {
		return errors.New("Harvest weight must be positive")
	}
	return nil
}

// creditStock adds the harvest's full recorded weight to the product's
// variation stock counter. The credit is unconditional with respect to
// allocation — stock reflects supply, independent of how much of the harvest
// preorders later consume — but the write itself is a conditional
// read-modify-write retried on lost updates, the same discipline grant
// applies to the harvest and preorder counters: the pass lock is keyed per
// harvest, so two harvests of one product can credit concurrently. A missing
// product is logged and skipped; allocation depends only on the harvest's
// own ledger, so the pass still runs.
func (s *Service) creditStock(ctx context.Context, h *domain.Harvest) {
	for attempt := 0; attempt < grantRetries; attempt++ {
		var product domain.Product
		if err := s.DB.WithContext(ctx).Where("product_id = ?", h.ProductID).First(&product).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				log.Warn().
					Str("harvest_id", h.HarvestID.String()).
					Str("product_id", h.ProductID.String()).
					Msg("Product not found for stock credit; skipping")
				return
			}
			log.Error().Err(err).
				Str("harvest_id", h.HarvestID.String()).
				Msg("Stock credit lookup failed")
			return
		}

		prior, err := product.StockLevels.Value()
		if err != nil {
			log.Error().Err(err).
				Str("product_id", product.ProductID.String()).
				Msg("Stock credit serialization failed")
			return
		}
		product.StockLevels.Credit(h.Variation, h.ActualWeightKg)

		res := s.DB.WithContext(ctx).Model(&domain.Product{}).
			Where("product_id = ? AND stock_levels = ?", product.ProductID, prior).
			Update("stock_levels", product.StockLevels)
		if res.Error != nil {
			log.Error().Err(res.Error).
				Str("harvest_id", h.HarvestID.String()).
				Str("product_id", h.ProductID.String()).
				Msg("Stock credit failed")
			return
		}
		if res.RowsAffected == 1 {
			log.Info().
				Str("harvest_id", h.HarvestID.String()).
				Str("product_id", h.ProductID.String()).
				Str("variation", string(h.Variation.Normalize())).
				Str("credited_kg", h.ActualWeightKg.String()).
				Msg("Stock credited")
			return
		}
		// Another harvest credited the product between our read and write;
		// reload and retry.
	}
	log.Error().
		Str("harvest_id", h.HarvestID.String()).
		Str("product_id", h.ProductID.String()).
		Msg("Stock credit lost repeatedly; giving up")
}
