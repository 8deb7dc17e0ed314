package products

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	prodsvc "anihan-backend/internal/application/products"
	"anihan-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupProductHandlers(t *testing.T) *fiber.App {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Product{}))
	h := &Handlers{Service: &prodsvc.Service{DB: db}}

	app := fiber.New()
	app.Post("/create-product", h.CreateProduct)
	app.Get("/get-product/:product_id", h.GetProduct)
	return app
}

func TestCreateProduct_AndFetch(t *testing.T) {
	app := setupProductHandlers(t)

	body, _ := json.Marshal(map[string]interface{}{
		"seller_id": uuid.New().String(),
		"name":      "Calamansi",
	})
	req := httptest.NewRequest("POST", "/create-product", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	data := result["data"].(map[string]interface{})
	productID := data["product_id"].(string)
	assert.Equal(t, "Calamansi", data["name"])

	req = httptest.NewRequest("GET", "/get-product/"+productID, nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestCreateProduct_InvalidSeller(t *testing.T) {
	app := setupProductHandlers(t)

	body, _ := json.Marshal(map[string]interface{}{
		"seller_id": "not-a-uuid",
		"name":      "Calamansi",
	})
	req := httptest.NewRequest("POST", "/create-product", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestGetProduct_NotFound(t *testing.T) {
	app := setupProductHandlers(t)
	req := httptest.NewRequest("GET", "/get-product/"+uuid.New().String(), nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}
