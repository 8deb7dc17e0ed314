package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Harvest is a recorded, dated yield of one product variation/unit. Once
// published it is immutable except for its allocation ledger
// (allocated/available weight, matching_completed_at), which only the
// allocation engine writes.
type Harvest struct {
	HarvestID           uuid.UUID       `gorm:"column:harvest_id;type:uuid;primaryKey" json:"harvest_id"`
	ProductID           uuid.UUID       `gorm:"column:product_id;type:uuid" json:"product_id"`
	SellerID            uuid.UUID       `gorm:"column:seller_id;type:uuid;not null" json:"seller_id"`
	Variation           VariationTag    `gorm:"column:variation;type:varchar(20);not null" json:"variation"`
	Unit                UnitTag         `gorm:"column:unit;type:varchar(20);not null" json:"unit"`
	ActualWeightKg      decimal.Decimal `gorm:"column:actual_weight_kg;type:decimal(18,3);not null" json:"actual_weight_kg"`
	AllocatedWeightKg   decimal.Decimal `gorm:"column:allocated_weight_kg;type:decimal(18,3);not null;default:0" json:"allocated_weight_kg"`
	AvailableWeightKg   decimal.Decimal `gorm:"column:available_weight_kg;type:decimal(18,3);not null;default:0" json:"available_weight_kg"`
	HarvestDate         time.Time       `gorm:"column:harvest_date" json:"harvest_date"`
	Published           bool            `gorm:"column:published;not null;default:false" json:"published"`
	Verified            bool            `gorm:"column:verified;not null;default:false" json:"verified"`
	MatchingCompletedAt *time.Time      `gorm:"column:matching_completed_at" json:"matching_completed_at"`
	CreatedAt           time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt           time.Time       `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Harvest) TableName() string {
	return "Harvests"
}

// BeforeCreate sets harvest_id if not already set and seeds the available
// ledger from the recorded weight (available = actual − allocated).
func (h *Harvest) BeforeCreate(tx *gorm.DB) error {
	if h.HarvestID == uuid.Nil {
		h.HarvestID = uuid.New()
	}
	if h.AvailableWeightKg.IsZero() && h.AllocatedWeightKg.IsZero() {
		h.AvailableWeightKg = h.ActualWeightKg
	}
	return nil
}
