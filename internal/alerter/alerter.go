// Package alerter fans out Detector alerts to a SIEM collector
// (CEF-over-syslog-UDP) and an SMTP relay. A transport failure is logged
// and swallowed: it never suppresses the other transport, and Send never
// returns an error to its caller.
package alerter

import "github.com/ids-rs/idsrs/internal/detector"

// logger is the narrow slice of pkg/logger.Logger the alerter depends on,
// kept as an interface so tests can assert on swallowed errors without
// a real logger.
type logger interface {
	Warn(msg string, kvs ...interface{})
}

// Alerter sends alerts to every enabled transport.
type Alerter struct {
	cfg    Config
	log    logger
	dialer emailDialer // nil selects dialSMTP
}

// New builds an Alerter from cfg. log may be any type satisfying the
// narrow logger interface, typically *pkg/logger.Logger.
func New(cfg Config, log logger) *Alerter {
	return &Alerter{cfg: cfg, log: log}
}

// Send dispatches a to every enabled transport. It never fails to the
// caller: each transport's error is logged with context and does not
// affect the others.
func (a *Alerter) Send(alert detector.Alert) {
	if a.cfg.SIEM.Enabled {
		if err := sendSIEM(a.cfg.SIEM, alert); err != nil {
			a.log.Warn("siem alert delivery failed", "scan_type", alert.ScanType, "source_ip", alert.SourceIP, "err", err)
		}
	}
	if a.cfg.Email.Enabled {
		if err := sendEmailTransport(a.cfg.Email, alert, a.dialer); err != nil {
			a.log.Warn("email alert delivery failed", "scan_type", alert.ScanType, "source_ip", alert.SourceIP, "err", err)
		}
	}
}
