package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Allocation is one immutable grant of harvest weight to a preorder. The
// counters on Harvest and Preorder are derived from these rows; summing
// WeightKg per harvest or per preorder must always reproduce them.
type Allocation struct {
	AllocationID uuid.UUID       `gorm:"column:allocation_id;type:uuid;primaryKey" json:"allocation_id"`
	HarvestID    uuid.UUID       `gorm:"column:harvest_id;type:uuid;not null;index" json:"harvest_id"`
	PreorderID   uuid.UUID       `gorm:"column:preorder_id;type:uuid;not null;index" json:"preorder_id"`
	WeightKg     decimal.Decimal `gorm:"column:weight_kg;type:decimal(18,3);not null" json:"weight_kg"`
	Detail       datatypes.JSON  `gorm:"column:detail;type:json" json:"detail"`
	CreatedAt    time.Time       `gorm:"column:createdAt" json:"createdAt"`
}

func (Allocation) TableName() string {
	return "Allocations"
}

// BeforeCreate sets allocation_id if not already set.
func (a *Allocation) BeforeCreate(tx *gorm.DB) error {
	if a.AllocationID == uuid.Nil {
		a.AllocationID = uuid.New()
	}
	return nil
}
