package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PreorderStatus is the lifecycle state of a preorder. The allocation engine
// only ever writes StatusReserved; the remaining transitions belong to the
// order-conversion flow and to buyer/seller actions.
type PreorderStatus string

const (
	StatusPending            PreorderStatus = "pending"
	StatusReserved           PreorderStatus = "reserved"
	StatusReady              PreorderStatus = "ready"
	StatusFulfilled          PreorderStatus = "fulfilled"
	StatusPartiallyFulfilled PreorderStatus = "partially_fulfilled"
	StatusAccepted           PreorderStatus = "accepted"
	StatusRejected           PreorderStatus = "rejected"
	StatusCancelled          PreorderStatus = "cancelled"
)

// Preorder is a buyer's standing claim on future harvests of one product
// variation/unit. UnitWeightKg is fixed at creation for audit, so
// required_weight_kg never drifts if the catalog changes later.
// AllocatedQty is kilograms granted so far, never units.
type Preorder struct {
	PreorderID       uuid.UUID       `gorm:"column:preorder_id;type:uuid;primaryKey" json:"preorder_id"`
	ConsumerID       uuid.UUID       `gorm:"column:consumer_id;type:uuid;not null" json:"consumer_id"`
	SellerID         uuid.UUID       `gorm:"column:seller_id;type:uuid;not null" json:"seller_id"`
	ProductID        uuid.UUID       `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	Variation        VariationTag    `gorm:"column:variation;type:varchar(20);not null" json:"variation"`
	Unit             UnitTag         `gorm:"column:unit;type:varchar(20);not null" json:"unit"`
	Quantity         int             `gorm:"column:quantity;not null" json:"quantity"`
	UnitWeightKg     decimal.Decimal `gorm:"column:unit_weight_kg;type:decimal(18,3);not null" json:"unit_weight_kg"`
	RequiredWeightKg decimal.Decimal `gorm:"column:required_weight_kg;type:decimal(18,3);not null" json:"required_weight_kg"`
	AllocatedQty     decimal.Decimal `gorm:"column:allocated_qty;type:decimal(18,3);not null;default:0" json:"allocated_qty"`
	HarvestID        *uuid.UUID      `gorm:"column:harvest_id;type:uuid" json:"harvest_id"`
	Status           PreorderStatus  `gorm:"column:status;type:varchar(24);default:'pending'" json:"status"`
	MatchedAt        *time.Time      `gorm:"column:matched_at" json:"matched_at"`
	ReadyAt          *time.Time      `gorm:"column:ready_at" json:"ready_at"`
	CreatedAt        time.Time       `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt        time.Time       `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Preorder) TableName() string {
	return "Preorders"
}

// BeforeCreate sets preorder_id if not already set and derives
// required_weight_kg from quantity × unit weight.
func (p *Preorder) BeforeCreate(tx *gorm.DB) error {
	if p.PreorderID == uuid.Nil {
		p.PreorderID = uuid.New()
	}
	if p.RequiredWeightKg.IsZero() {
		p.RequiredWeightKg = p.UnitWeightKg.Mul(decimal.NewFromInt(int64(p.Quantity)))
	}
	if p.Status == "" {
		p.Status = StatusPending
	}
	return nil
}

// RemainingDemandKg is the unmet portion of the claim.
func (p *Preorder) RemainingDemandKg() decimal.Decimal {
	return p.RequiredWeightKg.Sub(p.AllocatedQty)
}

// Allocatable reports whether the allocation engine may still grant weight:
// pending, or reserved with unmet demand (multi-harvest top-up).
func (p *Preorder) Allocatable() bool {
	switch p.Status {
	case StatusPending:
		return true
	case StatusReserved:
		return p.RemainingDemandKg().IsPositive()
	default:
		return false
	}
}
