package allocation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"anihan-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service distributes a published harvest's weight across compatible
// preorders, first-come-first-served. It exclusively owns the allocation
// fields on Preorder (allocated_qty, harvest_id, matched_at, the transition
// into reserved) and the allocation ledger on Harvest.
type Service struct {
	DB      *gorm.DB
	Emitter Emitter

	passLocks sync.Map // harvest id -> *sync.Mutex
}

// grantRetries bounds per-grant retries after a lost-update conflict. The
// conflict is retried at the single-grant level, never by restarting the
// pass: grants already applied are valid and must not be re-applied.
const grantRetries = 3

var errGrantConflict = errors.New("concurrent update lost")

// lockHarvest serializes allocation passes over one harvest within this
// process. Cross-harvest races on a shared preorder are handled by the
// conditional updates in grant.
func (s *Service) lockHarvest(id uuid.UUID) func() {
	v, _ := s.passLocks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// runPass executes one allocation pass: fetch compatible candidates once,
// oldest first, and grant weight until the harvest is exhausted or demand is
// satisfied. A fault on one candidate is logged and the pass continues.
// matching_completed_at is stamped unconditionally when the pass ends.
func (s *Service) runPass(ctx context.Context, h *domain.Harvest) error {
	candidates, err := s.candidates(ctx, h)
	if err != nil {
		return err
	}

	log.Info().
		Str("harvest_id", h.HarvestID.String()).
		Str("available_kg", h.AvailableWeightKg.String()).
		Int("candidates", len(candidates)).
		Msg("Allocation pass started")

	matched := 0
	for i := range candidates {
		if !h.AvailableWeightKg.IsPositive() {
			// Exhausted: every later candidate would get zero.
			break
		}
		granted, err := s.grant(ctx, h, &candidates[i])
		if err != nil {
			log.Error().Err(err).
				Str("harvest_id", h.HarvestID.String()).
				Str("preorder_id", candidates[i].PreorderID.String()).
				Msg("Grant failed; continuing pass")
			continue
		}
		if !granted.IsPositive() {
			continue
		}
		matched++
		ev := MatchEvent{
			PreorderID:      candidates[i].PreorderID,
			HarvestID:       h.HarvestID,
			GrantedWeightKg: granted,
		}
		if err := s.Emitter.MatchFound(ctx, ev); err != nil {
			log.Error().Err(err).
				Str("preorder_id", ev.PreorderID.String()).
				Msg("Match event emission failed")
		}
	}

	now := time.Now()
	if err := s.DB.WithContext(ctx).Model(&domain.Harvest{}).
		Where("harvest_id = ?", h.HarvestID).
		Update("matching_completed_at", now).Error; err != nil {
		return err
	}
	h.MatchingCompletedAt = &now

	log.Info().
		Str("harvest_id", h.HarvestID.String()).
		Int("matched", matched).
		Str("remaining_kg", h.AvailableWeightKg.String()).
		Msg("Allocation pass completed")
	return nil
}

// candidates fetches preorders compatible with the harvest (same product,
// variation and unit; pending, or reserved with unmet demand), oldest first
// with id tie-break for determinism.
func (s *Service) candidates(ctx context.Context, h *domain.Harvest) ([]domain.Preorder, error) {
	var preorders []domain.Preorder
	err := s.DB.WithContext(ctx).
		Where("product_id = ? AND variation = ? AND unit = ?", h.ProductID, h.Variation, h.Unit).
		Where("status = ? OR (status = ? AND allocated_qty < required_weight_kg)",
			domain.StatusPending, domain.StatusReserved).
		Order(`"createdAt" ASC, preorder_id ASC`).
		Find(&preorders).Error
	return preorders, err
}

// grant applies min(remaining demand, available weight) from the harvest to
// one preorder as a single atomic read-modify-write: both counter updates are
// conditional on the values read, so two concurrent passes can neither
// over-allocate the preorder nor double-spend the harvest. A lost update
// reloads both rows and retries this grant only.
func (s *Service) grant(ctx context.Context, h *domain.Harvest, p *domain.Preorder) (decimal.Decimal, error) {
	for attempt := 0; attempt < grantRetries; attempt++ {
		remaining := p.RemainingDemandKg()
		amount := decimal.Min(remaining, h.AvailableWeightKg)
		if !amount.IsPositive() || !p.Allocatable() {
			return decimal.Zero, nil
		}

		now := time.Now()
		newAllocatedQty := p.AllocatedQty.Add(amount)
		newHarvestAllocated := h.AllocatedWeightKg.Add(amount)
		newHarvestAvailable := h.AvailableWeightKg.Sub(amount)

		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res := tx.Model(&domain.Preorder{}).
				Where("preorder_id = ? AND allocated_qty = ?", p.PreorderID, p.AllocatedQty).
				Updates(map[string]interface{}{
					"allocated_qty": newAllocatedQty,
					"status":        domain.StatusReserved,
					"harvest_id":    h.HarvestID,
					"matched_at":    now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errGrantConflict
			}

			res = tx.Model(&domain.Harvest{}).
				Where("harvest_id = ? AND allocated_weight_kg = ?", h.HarvestID, h.AllocatedWeightKg).
				Updates(map[string]interface{}{
					"allocated_weight_kg": newHarvestAllocated,
					"available_weight_kg": newHarvestAvailable,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errGrantConflict
			}

			detail, _ := json.Marshal(map[string]interface{}{
				"variation":           h.Variation,
				"unit":                h.Unit,
				"remaining_demand_kg": p.RequiredWeightKg.Sub(newAllocatedQty),
			})
			return tx.Create(&domain.Allocation{
				HarvestID:  h.HarvestID,
				PreorderID: p.PreorderID,
				WeightKg:   amount,
				Detail:     datatypes.JSON(detail),
			}).Error
		})
		if err == nil {
			p.AllocatedQty = newAllocatedQty
			p.Status = domain.StatusReserved
			p.HarvestID = &h.HarvestID
			p.MatchedAt = &now
			h.AllocatedWeightKg = newHarvestAllocated
			h.AvailableWeightKg = newHarvestAvailable
			log.Debug().
				Str("harvest_id", h.HarvestID.String()).
				Str("preorder_id", p.PreorderID.String()).
				Str("granted_kg", amount.String()).
				Msg("Weight granted")
			return amount, nil
		}
		if !errors.Is(err, errGrantConflict) {
			return decimal.Zero, err
		}
		if err := s.reload(ctx, h, p); err != nil {
			return decimal.Zero, err
		}
	}
	return decimal.Zero, errGrantConflict
}

// reload refreshes both rows after a lost update so the retry recomputes the
// grant from current state.
func (s *Service) reload(ctx context.Context, h *domain.Harvest, p *domain.Preorder) error {
	if err := s.DB.WithContext(ctx).Where("harvest_id = ?", h.HarvestID).First(h).Error; err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Where("preorder_id = ?", p.PreorderID).First(p).Error
}

// ListByHarvest returns the grant ledger for one harvest, oldest first.
func (s *Service) ListByHarvest(ctx context.Context, harvestID uuid.UUID) ([]domain.Allocation, error) {
	if harvestID == uuid.Nil {
		return nil, errors.New("harvest_id is required")
	}
	var allocations []domain.Allocation
	err := s.DB.WithContext(ctx).
		Where("harvest_id = ?", harvestID).
		Order(`"createdAt" ASC`).
		Find(&allocations).Error
	return allocations, err
}

// ListByPreorder returns every grant a preorder has received, oldest first.
func (s *Service) ListByPreorder(ctx context.Context, preorderID uuid.UUID) ([]domain.Allocation, error) {
	if preorderID == uuid.Nil {
		return nil, errors.New("preorder_id is required")
	}
	var allocations []domain.Allocation
	err := s.DB.WithContext(ctx).
		Where("preorder_id = ?", preorderID).
		Order(`"createdAt" ASC`).
		Find(&allocations).Error
	return allocations, err
}
