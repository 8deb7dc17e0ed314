package health

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Handlers struct {
	DB *gorm.DB
}

// JSON reports liveness and DB reachability.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	dbStatus := "not configured"
	if h.DB != nil {
		dbStatus = "ok"
		if sqlDB, err := h.DB.DB(); err != nil {
			dbStatus = err.Error()
		} else if err := sqlDB.Ping(); err != nil {
			dbStatus = err.Error()
		}
	}
	return c.JSON(fiber.Map{
		"status":   "ok",
		"database": dbStatus,
		"time":     time.Now().Format(time.RFC3339),
	})
}
