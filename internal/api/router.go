// Package api implements the optional operator-facing status API: health,
// detector status, the persisted alert audit trail, blocked-IP listing and
// manual unblock, and a live alert WebSocket feed.
package api

import (
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ids-rs/idsrs/internal/api/handlers"
	"github.com/ids-rs/idsrs/internal/api/middleware"
	"github.com/ids-rs/idsrs/internal/config"
	"github.com/ids-rs/idsrs/internal/detector"
	"github.com/ids-rs/idsrs/internal/repository"
	"github.com/ids-rs/idsrs/internal/response"
	"github.com/ids-rs/idsrs/internal/security"
	ws "github.com/ids-rs/idsrs/internal/websocket"
	"github.com/ids-rs/idsrs/pkg/logger"
)

// ServerDeps holds all dependencies required by the status API server.
// DB, AlertAuditRepo, BlockedIPRepo, and ResponseMgr are each independently
// nil when their owning subsystem (audit persistence, auto-response) is
// not configured; the alert and blocked-IP handlers then answer with a
// clear "not configured" error rather than a nil-pointer panic, and the
// health handler skips its database check.
type ServerDeps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             *sql.DB
	Auth           *security.AuthService
	Detector       *detector.Detector
	Hub            *ws.Hub
	StartedAt      time.Time
	AlertAuditRepo repository.AlertAuditRepository
	BlockedIPRepo  repository.BlockedIPRepository
	ResponseMgr    *response.Manager
}

// NewServer creates and configures the Fiber application with all routes.
func NewServer(deps ServerDeps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler,
		AppName:      "ids-rs status API",
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     deps.Config.Status.AllowOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, OPTIONS",
		AllowCredentials: true,
	}))
	app.Use(middleware.RequestLogger(deps.Logger))

	healthH := handlers.NewHealthHandler(deps.DB)
	statusH := handlers.NewStatusHandler(deps.Detector, deps.StartedAt)
	alertsH := handlers.NewAlertsHandler(deps.AlertAuditRepo)
	blockedIPH := handlers.NewBlockedIPHandler(deps.BlockedIPRepo, deps.ResponseMgr)

	authMW := middleware.NewAuthMiddleware(deps.Auth)

	// Liveness check is public so orchestrators can probe it without a token.
	app.Get("/healthz", healthH.HealthCheck)

	v1 := app.Group("/api/v1", authMW.Authenticate)
	v1.Get("/status", statusH.Status)
	v1.Get("/alerts", alertsH.ListAlerts)
	v1.Get("/blocked-ips", blockedIPH.ListBlockedIPs)
	v1.Post("/blocked-ips/unblock", blockedIPH.UnblockIP)

	app.Use("/ws", ws.UpgradeMiddleware(deps.Auth))
	app.Get("/ws", ws.Handler(deps.Hub))

	return app
}
