package products

import (
	"context"
	"errors"

	"anihan-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service holds the minimal product surface this core needs: harvests and
// preorders must reference a product, and stock credits need a target row.
// The full catalog lives in another service.
type Service struct {
	DB *gorm.DB
}

// CreateProduct registers a seller's product with empty stock levels.
func (s *Service) CreateProduct(ctx context.Context, sellerID uuid.UUID, name string) (*domain.Product, error) {
	if sellerID == uuid.Nil {
		return nil, errors.New("seller_id is required")
	}
	if name == "" {
		return nil, errors.New("name is required")
	}
	product := domain.Product{
		SellerID:    sellerID,
		Name:        name,
		StockLevels: domain.StockLevels{},
	}
	if err := s.DB.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProduct returns one product with its variation stock levels.
func (s *Service) GetProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	if productID == uuid.Nil {
		return nil, errors.New("product_id is required")
	}
	var product domain.Product
	if err := s.DB.WithContext(ctx).Where("product_id = ?", productID).First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New("Product not found")
		}
		return nil, err
	}
	return &product, nil
}
