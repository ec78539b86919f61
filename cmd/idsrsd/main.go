// Command idsrsd runs the IDS-RS network intrusion detection daemon: it
// ingests firewall logs over UDP (or NFLOG, on Linux), detects port scans
// across independent sliding windows, and alerts over CEF/syslog-UDP and
// SMTP. Optional subsystems — auto-response blocking, a Postgres audit
// trail, and an operator status API — activate based on config.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ids-rs/idsrs/internal/alerter"
	"github.com/ids-rs/idsrs/internal/api"
	"github.com/ids-rs/idsrs/internal/config"
	"github.com/ids-rs/idsrs/internal/db"
	"github.com/ids-rs/idsrs/internal/detector"
	"github.com/ids-rs/idsrs/internal/ierrors"
	"github.com/ids-rs/idsrs/internal/ingest"
	"github.com/ids-rs/idsrs/internal/parser"
	"github.com/ids-rs/idsrs/internal/repository"
	"github.com/ids-rs/idsrs/internal/response"
	"github.com/ids-rs/idsrs/internal/security"
	"github.com/ids-rs/idsrs/internal/websocket"
	"github.com/ids-rs/idsrs/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML configuration file")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	flag.Parse()
	if flag.NArg() > 0 {
		*configPath = flag.Arg(0)
	}

	appLogger, err := logger.New(*logLevel, *logFormat)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.Fatal("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if violations := cfg.Validate(); violations.HasErrors() {
		appLogger.Fatal("configuration failed validation", "error", violations.AsError())
		os.Exit(1)
	}

	appLogger.Info("starting idsrs", "listen", fmt.Sprintf("%s:%d", cfg.Network.ListenAddress, cfg.Network.ListenPort))

	p, ok := parser.ByName(cfg.Network.Parser)
	if !ok {
		appLogger.Fatal(ierrors.ErrUnknownParser.Error(), "parser", cfg.Network.Parser)
		os.Exit(1)
	}

	det := detector.New(detector.Config{
		MaxHitsPerIP:  cfg.Detection.MaxHitsPerIP,
		MaxTrackedIPs: cfg.Detection.MaxTrackedIPs,
		AlertCooldown: time.Duration(cfg.Detection.AlertCooldownSecs) * time.Second,
		Fast:          windowRule(cfg.Detection.FastScan),
		Slow:          windowRule(cfg.Detection.SlowScan),
		Accept:        windowRule(cfg.Detection.AcceptScan),
	})

	al := alerter.New(alerter.Config{
		SIEM: alerter.SIEMConfig{
			Enabled: cfg.Alerting.SIEM.Enabled,
			Host:    cfg.Alerting.SIEM.Host,
			Port:    cfg.Alerting.SIEM.Port,
		},
		Email: alerter.EmailConfig{
			Enabled:     cfg.Alerting.Email.Enabled,
			SMTPServer:  cfg.Alerting.Email.SMTPServer,
			SMTPPort:    cfg.Alerting.Email.SMTPPort,
			SMTPTLS:     cfg.Alerting.Email.SMTPTLS,
			From:        cfg.Alerting.Email.From,
			To:          cfg.Alerting.Email.To,
			Username:    cfg.Alerting.Email.Username,
			Password:    cfg.Alerting.Email.Password,
			EmailFooter: cfg.Alerting.Email.EmailFooter,
		},
	}, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var responseMgr *response.Manager
	if cfg.Response.Enabled {
		responseMgr, err = response.NewManager(cfg.Response.Backend, cfg.Response.TriggerOn, appLogger)
		if err != nil {
			appLogger.Fatal("failed to init auto-response backend", "error", err)
			os.Exit(1)
		}
	}

	var (
		conn          *sql.DB
		alertAuditRep repository.AlertAuditRepository
		blockedIPRep  repository.BlockedIPRepository
	)
	if cfg.Audit.PostgresDSN != "" {
		dbConn, err := db.Connect(cfg.Audit.PostgresDSN)
		if err != nil {
			appLogger.Fatal("failed to connect to audit database", "error", err)
			os.Exit(1)
		}
		defer dbConn.Close()

		migrator := db.NewMigrator(dbConn, "migrations", appLogger)
		if err := migrator.Up(ctx); err != nil {
			appLogger.Fatal("failed to run audit database migrations", "error", err)
			os.Exit(1)
		}

		conn = dbConn
		alertAuditRep = repository.NewAlertAuditRepository(dbConn)
		blockedIPRep = repository.NewBlockedIPRepository(dbConn)
	}

	hub := websocket.NewHub(appLogger)
	go hub.Run()
	defer hub.Shutdown()

	sink := &compositeSink{
		alerter:    al,
		hub:        hub,
		response:   responseMgr,
		auditRep:   alertAuditRep,
		blockedRep: blockedIPRep,
		log:        appLogger,
	}

	listener, err := ingest.Bind(cfg.Network.ListenAddress, cfg.Network.ListenPort, p, det, sink, appLogger, cfg.Network.Debug)
	if err != nil {
		appLogger.Fatal("failed to bind udp listener", "error", err)
		os.Exit(1)
	}
	go listener.Run(ctx)

	if cfg.Network.NFLOGGroup > 0 {
		nflogSrc := ingest.NewNFLOGSource(cfg.Network.NFLOGGroup, det, sink, appLogger)
		go func() {
			if err := nflogSrc.Run(ctx); err != nil {
				appLogger.Warn("nflog source stopped", "error", err)
			}
		}()
	}

	compactor := detector.NewCompactor(det,
		time.Duration(cfg.Cleanup.IntervalSecs)*time.Second,
		time.Duration(cfg.Cleanup.MaxEntryAgeSecs)*time.Second,
	)
	go compactor.Run(ctx)

	if cfg.Status.Enabled {
		authSvc := security.NewAuthService(cfg.Status.AuthToken)
		server := api.NewServer(api.ServerDeps{
			Config:         cfg,
			Logger:         appLogger,
			DB:             conn,
			Auth:           authSvc,
			Detector:       det,
			Hub:            hub,
			StartedAt:      time.Now(),
			AlertAuditRepo: alertAuditRep,
			BlockedIPRepo:  blockedIPRep,
			ResponseMgr:    responseMgr,
		})

		go func() {
			appLogger.Info("status api listening", "address", cfg.Status.ListenAddress)
			if err := server.Listen(cfg.Status.ListenAddress); err != nil {
				appLogger.Warn("status api stopped", "error", err)
			}
		}()

		go func() {
			<-ctx.Done()
			_ = server.Shutdown()
		}()
	}

	<-ctx.Done()
	appLogger.Info("shutting down")
}

func windowRule(r config.ScanRule) detector.WindowRule {
	window := time.Duration(r.TimeWindowSecs) * time.Second
	if r.TimeWindowMins > 0 {
		window = time.Duration(r.TimeWindowMins) * time.Minute
	}
	return detector.WindowRule{Threshold: r.PortThreshold, Window: window}
}

// compositeSink is the one alert sink both ingestion paths (UDP and
// NFLOG) dispatch through. It fans each alert out to the configured
// alerter transports, the status API's live feed, the audit trail, and
// auto-response blocking — whichever of the latter three are actually
// configured. A failure in any one fan-out leg is logged and never
// blocks the others: a failed block or a failed audit insert must not
// suppress SIEM/email delivery for the same alert.
type compositeSink struct {
	alerter    *alerter.Alerter
	hub        *websocket.Hub
	response   *response.Manager
	auditRep   repository.AlertAuditRepository
	blockedRep repository.BlockedIPRepository
	log        *logger.Logger
}

func (s *compositeSink) Send(a detector.Alert) {
	s.alerter.Send(a)
	s.hub.EmitAlert(a)

	blocked := false
	if s.response != nil && s.response.ShouldBlock(string(a.ScanType)) {
		if ip := net.ParseIP(a.SourceIP); ip != nil {
			reason := fmt.Sprintf("%s scan, %d unique ports", a.ScanType, len(a.UniquePorts))
			s.response.Block(ip, string(a.ScanType), reason)
			blocked = true

			if s.blockedRep != nil {
				record := &db.BlockedIPRecord{
					IP:        a.SourceIP,
					Reason:    reason,
					ScanType:  string(a.ScanType),
					BlockedAt: a.Timestamp,
				}
				if err := s.blockedRep.Create(context.Background(), record); err != nil {
					s.log.Warn("failed to persist blocked ip record", "error", err)
				}
			}
		}
	}

	if s.auditRep != nil {
		record := &db.AlertAudit{
			ScanType:       string(a.ScanType),
			SourceIP:       a.SourceIP,
			DestIP:         a.DestIP,
			Count:          len(a.UniquePorts),
			ScannedPorts:   joinPorts(a.UniquePorts),
			Message:        fmt.Sprintf("%s scan detected from %s", a.ScanType, a.SourceIP),
			OccurredAt:     a.Timestamp,
			BlockTriggered: blocked,
		}
		if err := s.auditRep.Create(context.Background(), record); err != nil {
			s.log.Warn("failed to persist alert audit record", "error", err)
		}
	}
}

func joinPorts(ports []uint16) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = strconv.Itoa(int(p))
	}
	return strings.Join(parts, ",")
}
