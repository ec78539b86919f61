package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ids-rs/idsrs/internal/detector"
)

// StatusHandler reports the detector's live state: how many source IPs it
// is currently tracking and how long the daemon has been running.
type StatusHandler struct {
	det       *detector.Detector
	startedAt time.Time
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(det *detector.Detector, startedAt time.Time) *StatusHandler {
	return &StatusHandler{det: det, startedAt: startedAt}
}

// Status returns a snapshot of detector state.
func (h *StatusHandler) Status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"tracked_ips": h.det.TrackedCount(),
		"uptime_secs": int(time.Since(h.startedAt).Seconds()),
	})
}
