package preorders

import (
	"context"
	"errors"

	"anihan-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service encapsulates preorder operations. It never touches the allocation
// fields — those belong to the allocation engine; callers read fulfillment
// progress straight off allocated_qty vs required_weight_kg.
type Service struct {
	DB *gorm.DB
}

// CreatePreorderInput carries a buyer's claim on future harvests.
type CreatePreorderInput struct {
	ConsumerID   uuid.UUID
	ProductID    uuid.UUID
	Variation    domain.VariationTag
	Unit         domain.UnitTag
	Quantity     int
	UnitWeightKg decimal.Decimal
}

// CreatePreorder records the claim, fixing unit_weight_kg at creation time so
// required_weight_kg stays auditable if the catalog changes later.
func (s *Service) CreatePreorder(ctx context.Context, in CreatePreorderInput) (*domain.Preorder, error) {
	if in.ConsumerID == uuid.Nil {
		return nil, errors.New("consumer_id is required")
	}
	if in.ProductID == uuid.Nil {
		return nil, errors.New("product_id is required")
	}
	if in.Quantity <= 0 {
		return nil, errors.New("quantity must be positive")
	}
	if !in.UnitWeightKg.IsPositive() {
		return nil, errors.New("unit_weight_kg must be positive")
	}

	var product domain.Product
	if err := s.DB.WithContext(ctx).Where("product_id = ?", in.ProductID).First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New("Product not found")
		}
		return nil, err
	}

	preorder := domain.Preorder{
		ConsumerID:   in.ConsumerID,
		SellerID:     product.SellerID,
		ProductID:    in.ProductID,
		Variation:    in.Variation,
		Unit:         in.Unit,
		Quantity:     in.Quantity,
		UnitWeightKg: in.UnitWeightKg,
		Status:       domain.StatusPending,
	}
	if err := s.DB.WithContext(ctx).Create(&preorder).Error; err != nil {
		return nil, err
	}
	return &preorder, nil
}

// GetPreorder returns one preorder with its allocation progress.
func (s *Service) GetPreorder(ctx context.Context, preorderID uuid.UUID) (*domain.Preorder, error) {
	if preorderID == uuid.Nil {
		return nil, errors.New("preorder_id is required")
	}
	var preorder domain.Preorder
	if err := s.DB.WithContext(ctx).Where("preorder_id = ?", preorderID).First(&preorder).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New("Preorder not found")
		}
		return nil, err
	}
	return &preorder, nil
}

// GetConsumerPreorders returns a buyer's preorders, newest first.
func (s *Service) GetConsumerPreorders(ctx context.Context, consumerID uuid.UUID) ([]domain.Preorder, error) {
	if consumerID == uuid.Nil {
		return nil, errors.New("consumer_id is required")
	}
	var preorders []domain.Preorder
	if err := s.DB.WithContext(ctx).
		Where("consumer_id = ?", consumerID).
		Order(`"createdAt" DESC`).
		Find(&preorders).Error; err != nil {
		return nil, err
	}
	return preorders, nil
}

// GetSellerPreorders returns the preorders standing against a seller's
// products, oldest first — the same order allocation will serve them in.
func (s *Service) GetSellerPreorders(ctx context.Context, sellerID uuid.UUID) ([]domain.Preorder, error) {
	if sellerID == uuid.Nil {
		return nil, errors.New("seller_id is required")
	}
	var preorders []domain.Preorder
	if err := s.DB.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order(`"createdAt" ASC`).
		Find(&preorders).Error; err != nil {
		return nil, err
	}
	return preorders, nil
}
