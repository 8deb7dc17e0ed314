package preorders

import (
	"encoding/json"
	"fmt"

	allocsvc "anihan-backend/internal/application/allocation"
	presvc "anihan-backend/internal/application/preorders"
	"anihan-backend/internal/domain"
	"anihan-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Service     *presvc.Service
	Allocations *allocsvc.Service
}

// POST /api/v1/preorders/create-preorder
func (h *Handlers) CreatePreorder(c *fiber.Ctx) error {
	var body map[string]interface{}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	required := []string{"consumer_id", "product_id", "variation", "unit", "quantity", "unit_weight_kg"}
	for _, f := range required {
		if body[f] == nil || body[f] == "" {
			return response.Error(c, fmt.Sprintf("Missing required field: %s", f), 400, nil)
		}
	}

	consumerID, err := uuid.Parse(asString(body["consumer_id"]))
	if err != nil {
		return response.Error(c, "Invalid consumer_id", 400, nil)
	}
	productID, err := uuid.Parse(asString(body["product_id"]))
	if err != nil {
		return response.Error(c, "Invalid product_id", 400, nil)
	}
	unitWeight, err := asDecimal(body["unit_weight_kg"])
	if err != nil {
		return response.Error(c, "Invalid unit_weight_kg", 400, nil)
	}

	preorder, err := h.Service.CreatePreorder(c.Context(), presvc.CreatePreorderInput{
		ConsumerID:   consumerID,
		ProductID:    productID,
		Variation:    domain.VariationTag(asString(body["variation"])),
		Unit:         domain.UnitTag(asString(body["unit"])),
		Quantity:     asInt(body["quantity"]),
		UnitWeightKg: unitWeight,
	})
	if err != nil {
		return response.Error(c, err.Error(), 400, nil)
	}
	return response.SuccessCreated(c, "Preorder created successfully", preorder, nil)
}

// GET /api/v1/preorders/get-preorder/:preorder_id
func (h *Handlers) GetPreorder(c *fiber.Ctx) error {
	preorderID, err := uuid.Parse(c.Params("preorder_id"))
	if err != nil {
		return response.Error(c, "Invalid preorder_id", 400, nil)
	}
	preorder, err := h.Service.GetPreorder(c.Context(), preorderID)
	if err != nil {
		if err.Error() == "Preorder not found" {
			return response.Error(c, err.Error(), 404, nil)
		}
		return response.Error(c, err.Error(), 500, nil)
	}
	return response.Success(c, "Preorder fetched successfully", preorder, nil)
}

// GET /api/v1/preorders/get-consumer-preorders?consumer_id=...
func (h *Handlers) GetConsumerPreorders(c *fiber.Ctx) error {
	consumerID, err := uuid.Parse(c.Query("consumer_id"))
	if err != nil {
		return response.Error(c, "Invalid consumer_id", 400, nil)
	}
	preorders, err := h.Service.GetConsumerPreorders(c.Context(), consumerID)
	if err != nil {
		return response.Error(c, err.Error(), 500, nil)
	}
	return response.Success(c, "Preorders fetched successfully", preorders, nil)
}

// GET /api/v1/preorders/get-seller-preorders?seller_id=...
func (h *Handlers) GetSellerPreorders(c *fiber.Ctx) error {
	sellerID, err := uuid.Parse(c.Query("seller_id"))
	if err != nil {
		return response.Error(c, "Invalid seller_id", 400, nil)
	}
	preorders, err := h.Service.GetSellerPreorders(c.Context(), sellerID)
	if err != nil {
		return response.Error(c, err.Error(), 500, nil)
	}
	return response.Success(c, "Preorders fetched successfully", preorders, nil)
}

// GET /api/v1/preorders/get-preorder-allocations/:preorder_id
func (h *Handlers) GetPreorderAllocations(c *fiber.Ctx) error {
	preorderID, err := uuid.Parse(c.Params("preorder_id"))
	if err != nil {
		return response.Error(c, "Invalid preorder_id", 400, nil)
	}
	allocations, err := h.Allocations.ListByPreorder(c.Context(), preorderID)
	if err != nil {
		return response.Error(c, err.Error(), 500, nil)
	}
	return response.Success(c, "Allocations fetched successfully", allocations, nil)
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asInt(v interface{}) int {
	if f, ok := v.(float64); ok {
		return int(f)
	}
	return 0
}

func asDecimal(v interface{}) (decimal.Decimal, error) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		return decimal.NewFromString(n)
	default:
		return decimal.Zero, fmt.Errorf("not a number")
	}
}
