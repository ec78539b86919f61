package handlers

import (
	"net"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ids-rs/idsrs/internal/ierrors"
	"github.com/ids-rs/idsrs/internal/repository"
	"github.com/ids-rs/idsrs/internal/response"
	"github.com/ids-rs/idsrs/pkg/utils"
)

// BlockedIPHandler serves the auto-response block list and lets an
// operator lift a block manually. Creation happens only from the alert
// pipeline (response.Manager) — there is no manual block endpoint, since
// this is a detection daemon, not a general firewall console.
type BlockedIPHandler struct {
	repo repository.BlockedIPRepository // nil when audit persistence is disabled
	mgr  *response.Manager              // nil when auto-response is disabled
}

// NewBlockedIPHandler creates a new blocked IP handler. repo and mgr may
// each independently be nil.
func NewBlockedIPHandler(repo repository.BlockedIPRepository, mgr *response.Manager) *BlockedIPHandler {
	return &BlockedIPHandler{repo: repo, mgr: mgr}
}

// UnblockRequest is the request body to lift a block.
type UnblockRequest struct {
	IP string `json:"ip"`
}

// ListBlockedIPs returns currently active blocks.
func (h *BlockedIPHandler) ListBlockedIPs(c *fiber.Ctx) error {
	if h.repo == nil {
		return ierrors.ErrAuditDisabled
	}

	limit, _ := strconv.Atoi(c.Query("limit", "100"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := h.repo.FindActive(c.Context(), limit, offset)
	if err != nil {
		return ierrors.ErrDatabaseFailure.WithMessage("failed to fetch blocked IPs")
	}

	total, _ := h.repo.Count(c.Context(), true)

	return c.JSON(fiber.Map{
		"blocked_ips": entries,
		"active":      total,
		"limit":       limit,
		"offset":      offset,
	})
}

// UnblockIP lifts a previously installed auto-response block. Requires the
// kernel backend (to remove the rule); the lift is recorded in the audit
// repository only when that repository is configured.
func (h *BlockedIPHandler) UnblockIP(c *fiber.Ctx) error {
	var req UnblockRequest
	if err := c.BodyParser(&req); err != nil {
		return ierrors.ErrInvalidRequestBody
	}

	if err := utils.ValidateIP(req.IP); err != nil {
		return ierrors.ErrInvalidRequestBody.WithMessage(err.Error())
	}
	ip := net.ParseIP(req.IP)

	if h.mgr == nil {
		return (&ierrors.APIError{Status: 503, Code: "RESPONSE_DISABLED", Message: "auto-response is not configured"})
	}

	if err := h.mgr.Unblock(ip); err != nil {
		return (&ierrors.APIError{Status: 500, Code: "UNBLOCK_FAILED", Message: err.Error()})
	}

	if h.repo != nil {
		_ = h.repo.Unblock(c.Context(), req.IP)
	}

	return c.JSON(fiber.Map{"message": "ip unblocked"})
}
