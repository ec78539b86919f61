package handlers

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles the liveness check endpoint.
type HealthHandler struct {
	db *sql.DB // nil when the audit database is not configured
}

// NewHealthHandler creates a new health handler. db may be nil.
func NewHealthHandler(database *sql.DB) *HealthHandler {
	return &HealthHandler{db: database}
}

// HealthCheck reports process liveness and, when configured, database
// reachability. It never depends on the detector or ingestion loop: a
// stuck parser should not make the health endpoint itself unreachable.
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	dbOK := true
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			dbOK = false
		}
	}

	return c.JSON(fiber.Map{
		"status":   "ok",
		"database": dbOK,
	})
}
