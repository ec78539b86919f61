// Package config loads and validates the daemon's TOML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/ids-rs/idsrs/internal/ierrors"
)

// Config is the full daemon configuration, decoded from TOML and
// overlaid with secrets from the environment / a .env file.
type Config struct {
	Network   NetworkConfig   `toml:"network"`
	Detection DetectionConfig `toml:"detection"`
	Alerting  AlertingConfig  `toml:"alerting"`
	Cleanup   CleanupConfig   `toml:"cleanup"`
	Response  ResponseConfig  `toml:"response"`
	Audit     AuditConfig     `toml:"audit"`
	Status    StatusConfig    `toml:"status"`
}

type NetworkConfig struct {
	ListenAddress string `toml:"listen_address"`
	ListenPort    int    `toml:"listen_port"`
	Parser        string `toml:"parser"`
	Debug         bool   `toml:"debug"`
	NFLOGGroup    int    `toml:"nflog_group"`
}

type ScanRule struct {
	PortThreshold  int `toml:"port_threshold"`
	TimeWindowSecs int `toml:"time_window_secs"`
	TimeWindowMins int `toml:"time_window_mins"`
}

func (r ScanRule) window() time.Duration {
	if r.TimeWindowMins > 0 {
		return time.Duration(r.TimeWindowMins) * time.Minute
	}
	return time.Duration(r.TimeWindowSecs) * time.Second
}

type DetectionConfig struct {
	AlertCooldownSecs int      `toml:"alert_cooldown_secs"`
	MaxHitsPerIP      int      `toml:"max_hits_per_ip"`
	MaxTrackedIPs     int      `toml:"max_tracked_ips"`
	FastScan          ScanRule `toml:"fast_scan"`
	SlowScan          ScanRule `toml:"slow_scan"`
	AcceptScan        ScanRule `toml:"accept_scan"`
}

type SIEMConfig struct {
	Enabled bool   `toml:"enabled"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
}

type EmailConfig struct {
	Enabled     bool     `toml:"enabled"`
	SMTPServer  string   `toml:"smtp_server"`
	SMTPPort    int      `toml:"smtp_port"`
	SMTPTLS     bool     `toml:"smtp_tls"`
	From        string   `toml:"from"`
	To          []string `toml:"to"`
	Username    string   `toml:"username"`
	Password    string   `toml:"password"`
	EmailFooter string   `toml:"email_footer"`
}

type AlertingConfig struct {
	SIEM  SIEMConfig  `toml:"siem"`
	Email EmailConfig `toml:"email"`
}

type CleanupConfig struct {
	IntervalSecs    int `toml:"interval_secs"`
	MaxEntryAgeSecs int `toml:"max_entry_age_secs"`
}

// ResponseConfig gates the optional auto-block backend (domain stack
// supplement, off by default).
type ResponseConfig struct {
	Enabled   bool     `toml:"enabled"`
	Backend   string   `toml:"backend"` // "iptables" or "nftables"
	TriggerOn []string `toml:"trigger_on"`
}

// AuditConfig gates the optional Postgres-backed alert audit trail.
type AuditConfig struct {
	PostgresDSN string `toml:"postgres_dsn"`
}

// StatusConfig gates the optional operator-facing status API.
type StatusConfig struct {
	Enabled       bool   `toml:"enabled"`
	ListenAddress string `toml:"listen_address"`
	AuthToken     string `toml:"auth_token"`
	AllowOrigins  string `toml:"allow_origins"`
}

// Load decodes path as TOML, then overlays secret fields from the
// environment (and a .env file, if present), mirroring the teacher's
// "structure from file, secrets from env" layering.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, ierrors.ErrConfigLoad.Wrap(err)
	}

	if v := os.Getenv("IDSRS_SMTP_PASSWORD"); v != "" {
		cfg.Alerting.Email.Password = v
	}
	if v := os.Getenv("IDSRS_STATUS_AUTH_TOKEN"); v != "" {
		cfg.Status.AuthToken = v
	}
	if v := os.Getenv("IDSRS_POSTGRES_DSN"); v != "" {
		cfg.Audit.PostgresDSN = v
	}

	return &cfg, nil
}

// Validate checks every required semantic constraint, collecting all
// violations instead of stopping at the first.
func (c *Config) Validate() *ierrors.ConfigErrors {
	errs := &ierrors.ConfigErrors{}

	if c.Network.ListenAddress == "" {
		errs.Add("network.listen_address", "must not be empty")
	}
	if c.Network.ListenPort == 0 {
		errs.Add("network.listen_port", "must not be zero")
	}
	if c.Network.Parser != "gaia" && c.Network.Parser != "cef" {
		errs.Add("network.parser", fmt.Sprintf("must be %q or %q, got %q", "gaia", "cef", c.Network.Parser))
	}

	if c.Detection.AlertCooldownSecs <= 0 {
		errs.Add("detection.alert_cooldown_secs", "must be greater than zero")
	}
	if c.Detection.MaxHitsPerIP <= 0 {
		errs.Add("detection.max_hits_per_ip", "must be greater than zero")
	}
	if c.Detection.MaxTrackedIPs <= 0 {
		errs.Add("detection.max_tracked_ips", "must be greater than zero")
	}

	validateRule(errs, "detection.fast_scan", c.Detection.FastScan)
	validateRule(errs, "detection.slow_scan", c.Detection.SlowScan)
	validateRule(errs, "detection.accept_scan", c.Detection.AcceptScan)

	fastWindow := c.Detection.FastScan.window()
	slowWindow := c.Detection.SlowScan.window()
	maxEntryAge := time.Duration(c.Cleanup.MaxEntryAgeSecs) * time.Second

	if slowWindow > 0 && fastWindow > 0 && slowWindow <= fastWindow {
		errs.Add("detection.slow_scan", "time window must be greater than detection.fast_scan's window")
	}
	if maxEntryAge > 0 && slowWindow > 0 && maxEntryAge < slowWindow {
		errs.Add("cleanup.max_entry_age_secs", "must be greater than or equal to detection.slow_scan's window")
	}

	if c.Cleanup.IntervalSecs <= 0 {
		errs.Add("cleanup.interval_secs", "must be greater than zero")
	}
	if c.Cleanup.MaxEntryAgeSecs <= 0 {
		errs.Add("cleanup.max_entry_age_secs", "must be greater than zero")
	}

	if c.Alerting.SIEM.Enabled {
		if c.Alerting.SIEM.Host == "" {
			errs.Add("alerting.siem.host", "required when alerting.siem.enabled is true")
		}
		if c.Alerting.SIEM.Port == 0 {
			errs.Add("alerting.siem.port", "must not be zero when alerting.siem.enabled is true")
		}
	}

	if c.Alerting.Email.Enabled {
		if c.Alerting.Email.SMTPServer == "" {
			errs.Add("alerting.email.smtp_server", "required when alerting.email.enabled is true")
		}
		if c.Alerting.Email.SMTPPort == 0 {
			errs.Add("alerting.email.smtp_port", "must not be zero when alerting.email.enabled is true")
		}
		if c.Alerting.Email.From == "" {
			errs.Add("alerting.email.from", "required when alerting.email.enabled is true")
		}
		if len(c.Alerting.Email.To) == 0 {
			errs.Add("alerting.email.to", "required when alerting.email.enabled is true")
		}
	}

	if c.Response.Enabled {
		if c.Response.Backend != "iptables" && c.Response.Backend != "nftables" {
			errs.Add("response.backend", fmt.Sprintf("must be %q or %q when response.enabled is true", "iptables", "nftables"))
		}
		if len(c.Response.TriggerOn) == 0 {
			errs.Add("response.trigger_on", "required when response.enabled is true")
		}
	}

	if c.Status.Enabled && c.Status.ListenAddress == "" {
		errs.Add("status.listen_address", "required when status.enabled is true")
	}

	return errs
}

func validateRule(errs *ierrors.ConfigErrors, field string, r ScanRule) {
	if r.PortThreshold <= 0 {
		errs.Add(field+".port_threshold", "must be greater than zero")
	}
	if r.window() <= 0 {
		errs.Add(field, "time window must be greater than zero")
	}
}
