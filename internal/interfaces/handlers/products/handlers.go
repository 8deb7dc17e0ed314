package products

import (
	"encoding/json"

	prodsvc "anihan-backend/internal/application/products"
	"anihan-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *prodsvc.Service
}

// POST /api/v1/products/create-product
func (h *Handlers) CreateProduct(c *fiber.Ctx) error {
	var body struct {
		SellerID string `json:"seller_id"`
		Name     string `json:"name"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}
	sellerID, err := uuid.Parse(body.SellerID)
	if err != nil {
		return response.Error(c, "Invalid seller_id", 400, nil)
	}

	product, err := h.Service.CreateProduct(c.Context(), sellerID, body.Name)
	if err != nil {
		return response.Error(c, err.Error(), 400, nil)
	}
	return response.SuccessCreated(c, "Product created successfully", product, nil)
}

// GET /api/v1/products/get-product/:product_id
func (h *Handlers) GetProduct(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("product_id"))
	if err != nil {
		return response.Error(c, "Invalid product_id", 400, nil)
	}
	product, err := h.Service.GetProduct(c.Context(), productID)
	if err != nil {
		if err.Error() == "Product not found" {
			return response.Error(c, err.Error(), 404, nil)
		}
		return response.Error(c, err.Error(), 500, nil)
	}
	return response.Success(c, "Product fetched successfully", product, nil)
}
