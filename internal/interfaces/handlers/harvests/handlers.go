package harvests

import (
	"encoding/json"
	"fmt"
	"time"

	allocsvc "anihan-backend/internal/application/allocation"
	harvestsvc "anihan-backend/internal/application/harvests"
	"anihan-backend/internal/domain"
	"anihan-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Service     *harvestsvc.Service
	Allocations *allocsvc.Service
}

// POST /api/v1/harvests/record-harvest
func (h *Handlers) RecordHarvest(c *fiber.Ctx) error {
	var body map[string]interface{}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	required := []string{"product_id", "seller_id", "variation", "unit", "actual_weight_kg"}
	for _, f := range required {
		if body[f] == nil || body[f] == "" {
			return response.Error(c, fmt.Sprintf("Missing required field: %s", f), 400, nil)
		}
	}

	productID, err := uuid.Parse(asString(body["product_id"]))
	if err != nil {
		return response.Error(c, "Invalid product_id", 400, nil)
	}
	sellerID, err := uuid.Parse(asString(body["seller_id"]))
	if err != nil {
		return response.Error(c, "Invalid seller_id", 400, nil)
	}
	weight, err := asDecimal(body["actual_weight_kg"])
	if err != nil {
		return response.Error(c, "Invalid actual_weight_kg", 400, nil)
	}

	var harvestDate time.Time
	if s := asString(body["harvest_date"]); s != "" {
		harvestDate, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return response.Error(c, "Invalid harvest_date", 400, nil)
		}
	}

	harvest, err := h.Service.RecordHarvest(c.Context(), harvestsvc.RecordHarvestInput{
		ProductID:      productID,
		SellerID:       sellerID,
		Variation:      domain.VariationTag(asString(body["variation"])),
		Unit:           domain.UnitTag(asString(body["unit"])),
		ActualWeightKg: weight,
		HarvestDate:    harvestDate,
		Verified:       asBool(body["verified"]),
	})
	if err != nil {
		return response.Error(c, err.Error(), 400, nil)
	}
	return response.SuccessCreated(c, "Harvest recorded successfully", harvest, nil)
}

// POST /api/v1/harvests/publish-harvest/:harvest_id
func (h *Handlers) PublishHarvest(c *fiber.Ctx) error {
	harvestID, err := uuid.Parse(c.Params("harvest_id"))
	if err != nil {
		return response.Error(c, "Invalid harvest_id", 400, nil)
	}
	sellerID := uuid.Nil
	if s := c.Query("seller_id"); s != "" {
		sellerID, err = uuid.Parse(s)
		if err != nil {
			return response.Error(c, "Invalid seller_id", 400, nil)
		}
	}

	harvest, err := h.Service.PublishHarvest(c.Context(), harvestID, sellerID)
	if err != nil {
		return response.Error(c, err.Error(), statusFor(err), nil)
	}
	return response.SuccessAccepted(c, "Harvest published; allocation started", harvest, nil)
}

// POST /api/v1/harvests/reprocess-harvest/:harvest_id
func (h *Handlers) ReprocessHarvest(c *fiber.Ctx) error {
	harvestID, err := uuid.Parse(c.Params("harvest_id"))
	if err != nil {
		return response.Error(c, "Invalid harvest_id", 400, nil)
	}
	harvest, err := h.Service.ReprocessHarvest(c.Context(), harvestID)
	if err != nil {
		return response.Error(c, err.Error(), statusFor(err), nil)
	}
	return response.SuccessAccepted(c, "Allocation pass started", harvest, nil)
}

// GET /api/v1/harvests/get-harvest/:harvest_id
func (h *Handlers) GetHarvest(c *fiber.Ctx) error {
	harvestID, err := uuid.Parse(c.Params("harvest_id"))
	if err != nil {
		return response.Error(c, "Invalid harvest_id", 400, nil)
	}
	harvest, err := h.Service.GetHarvest(c.Context(), harvestID)
	if err != nil {
		return response.Error(c, err.Error(), statusFor(err), nil)
	}
	return response.Success(c, "Harvest fetched successfully", harvest, nil)
}

// GET /api/v1/harvests/get-seller-harvests?seller_id=...&product_id=...
func (h *Handlers) GetSellerHarvests(c *fiber.Ctx) error {
	sellerID, err := uuid.Parse(c.Query("seller_id"))
	if err != nil {
		return response.Error(c, "Invalid seller_id", 400, nil)
	}
	productID := uuid.Nil
	if raw := c.Query("product_id"); raw != "" {
		productID, err = uuid.Parse(raw)
		if err != nil {
			return response.Error(c, "Invalid product_id", 400, nil)
		}
	}
	harvests, err := h.Service.GetSellerHarvests(c.Context(), sellerID, productID)
	if err != nil {
		return response.Error(c, err.Error(), 500, nil)
	}
	return response.Success(c, "Harvests fetched successfully", harvests, nil)
}

// GET /api/v1/harvests/get-harvest-allocations/:harvest_id
func (h *Handlers) GetHarvestAllocations(c *fiber.Ctx) error {
	harvestID, err := uuid.Parse(c.Params("harvest_id"))
	if err != nil {
		return response.Error(c, "Invalid harvest_id", 400, nil)
	}
	allocations, err := h.Allocations.ListByHarvest(c.Context(), harvestID)
	if err != nil {
		return response.Error(c, err.Error(), 500, nil)
	}
	return response.Success(c, "Allocations fetched successfully", allocations, nil)
}

func statusFor(err error) int {
	switch err.Error() {
	case "Harvest not found", "Product not found":
		return 404
	default:
		return 400
	}
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asBool(v interface{}) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}

// asDecimal accepts JSON numbers and strings; weights are decimal end to end,
// so string bodies avoid float rounding at the boundary.
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
