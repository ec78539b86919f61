package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ids-rs/idsrs/internal/db"
	"github.com/ids-rs/idsrs/internal/ierrors"
	"github.com/ids-rs/idsrs/internal/repository"
)

// AlertsHandler serves the persisted alert audit trail. It is always wired
// into the router; when audit.postgres_dsn is not configured, every call
// returns ErrAuditDisabled.
type AlertsHandler struct {
	repo repository.AlertAuditRepository // nil when audit persistence is disabled
}

// NewAlertsHandler creates a new alerts handler. repo may be nil.
func NewAlertsHandler(repo repository.AlertAuditRepository) *AlertsHandler {
	return &AlertsHandler{repo: repo}
}

// ListAlerts returns recent persisted alerts, optionally filtered by
// source IP.
func (h *AlertsHandler) ListAlerts(c *fiber.Ctx) error {
	if h.repo == nil {
		return ierrors.ErrAuditDisabled
	}

	limit, _ := strconv.Atoi(c.Query("limit", "100"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	var (
		alerts []db.AlertAudit
		err    error
	)

	if srcIP := c.Query("source_ip"); srcIP != "" {
		alerts, err = h.repo.FindBySourceIP(c.Context(), srcIP, limit, offset)
	} else {
		alerts, err = h.repo.FindAll(c.Context(), nil, limit, offset)
	}

	if err != nil {
		return ierrors.ErrDatabaseFailure.WithMessage("failed to fetch alert audit records")
	}

	return c.JSON(fiber.Map{
		"alerts": alerts,
		"limit":  limit,
		"offset": offset,
	})
}
