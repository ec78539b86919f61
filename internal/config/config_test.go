package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		Network: NetworkConfig{
			ListenAddress: "0.0.0.0",
			ListenPort:    514,
			Parser:        "gaia",
		},
		Detection: DetectionConfig{
			AlertCooldownSecs: 5,
			MaxHitsPerIP:      1000,
			MaxTrackedIPs:     10000,
			FastScan:          ScanRule{PortThreshold: 3, TimeWindowSecs: 10},
			SlowScan:          ScanRule{PortThreshold: 50, TimeWindowMins: 1},
			AcceptScan:        ScanRule{PortThreshold: 3, TimeWindowSecs: 10},
		},
		Cleanup: CleanupConfig{
			IntervalSecs:    60,
			MaxEntryAgeSecs: 120,
		},
	}
}

func TestValidate_AcceptsMinimalValidConfig(t *testing.T) {
	c := validConfig()
	assert.False(t, c.Validate().HasErrors())
}

func TestValidate_RejectsZeroListenPort(t *testing.T) {
	c := validConfig()
	c.Network.ListenPort = 0
	errs := c.Validate()
	assert.True(t, errs.HasErrors())
}

func TestValidate_RejectsUnknownParser(t *testing.T) {
	c := validConfig()
	c.Network.Parser = "syslog-ng"
	errs := c.Validate()
	assert.True(t, errs.HasErrors())
}

func TestValidate_RequiresSlowWindowGreaterThanFast(t *testing.T) {
	c := validConfig()
	c.Detection.SlowScan.TimeWindowMins = 0
	c.Detection.SlowScan.TimeWindowSecs = 5 // shorter than fast's 10s
	errs := c.Validate()
	assert.True(t, errs.HasErrors())
}

func TestValidate_RequiresMaxEntryAgeAtLeastSlowWindow(t *testing.T) {
	c := validConfig()
	c.Cleanup.MaxEntryAgeSecs = 30 // slow window is 60s (1 minute)
	errs := c.Validate()
	assert.True(t, errs.HasErrors())
}

func TestValidate_CollectsAllViolationsNotJustFirst(t *testing.T) {
	c := validConfig()
	c.Network.ListenAddress = ""
	c.Network.ListenPort = 0
	c.Network.Parser = "bogus"
	errs := c.Validate()
	assert.GreaterOrEqual(t, len(errs.Errors), 3)
}

func TestValidate_RequiresSIEMHostWhenEnabled(t *testing.T) {
	c := validConfig()
	c.Alerting.SIEM.Enabled = true
	errs := c.Validate()
	assert.True(t, errs.HasErrors())
}

func TestValidate_RequiresEmailFieldsWhenEnabled(t *testing.T) {
	c := validConfig()
	c.Alerting.Email.Enabled = true
	errs := c.Validate()
	assert.True(t, errs.HasErrors())
}

func TestValidate_ResponseRequiresBackendAndTriggers(t *testing.T) {
	c := validConfig()
	c.Response.Enabled = true
	errs := c.Validate()
	assert.True(t, errs.HasErrors())

	c.Response.Backend = "nftables"
	c.Response.TriggerOn = []string{"Fast"}
	assert.False(t, c.Validate().HasErrors())
}
