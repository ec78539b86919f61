package detector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig mirrors the scenario thresholds: alert_cooldown=5s,
// fast=3 ports/10s, slow=50 ports/60s, accept=3 ports/10s,
// max_hits_per_ip=1000, max_tracked_ips=10000.
func testConfig() Config {
	return Config{
		MaxHitsPerIP:  1000,
		MaxTrackedIPs: 10000,
		AlertCooldown: 5 * time.Second,
		Fast:          WindowRule{Threshold: 3, Window: 10 * time.Second},
		Slow:          WindowRule{Threshold: 50, Window: 60 * time.Second},
		Accept:        WindowRule{Threshold: 3, Window: 10 * time.Second},
	}
}

func dropEvent(ip string, port uint16) LogEvent {
	return LogEvent{SrcIP: ip, DstPort: port, Proto: "tcp", Action: "drop"}
}

func acceptEvent(ip string, port uint16) LogEvent {
	return LogEvent{SrcIP: ip, DstPort: port, Proto: "tcp", Action: "accept"}
}

func TestDetector_FastScanFiresOnFourthPort(t *testing.T) {
	d := New(testConfig())

	for _, p := range []uint16{1, 2, 3} {
		alerts := d.Process(dropEvent("10.0.0.1", p))
		assert.Empty(t, alerts)
	}

	alerts := d.Process(dropEvent("10.0.0.1", 4))
	require.Len(t, alerts, 1)
	assert.Equal(t, ScanFast, alerts[0].ScanType)
	assert.Equal(t, []uint16{1, 2, 3, 4}, alerts[0].UniquePorts)
}

func TestDetector_CooldownSuppressesRepeatFastAlert(t *testing.T) {
	d := New(testConfig())
	for _, p := range []uint16{1, 2, 3, 4} {
		d.Process(dropEvent("10.0.0.1", p))
	}

	alerts := d.Process(dropEvent("10.0.0.1", 100))
	assert.Empty(t, alerts, "cooldown should suppress a second Fast alert within 5s")
}

func TestDetector_AcceptScanIndependentOfDropHits(t *testing.T) {
	d := New(testConfig())

	var alerts []Alert
	for _, p := range []uint16{1, 2, 3, 4} {
		alerts = d.Process(acceptEvent("10.1.0.1", p))
	}
	require.Len(t, alerts, 1)
	assert.Equal(t, ScanAccept, alerts[0].ScanType)

	// No Fast/Slow alert should ever have fired from accept-only traffic.
	for _, p := range []uint16{1, 2, 3} {
		a := d.Process(acceptEvent("10.1.0.1", p+10))
		for _, al := range a {
			assert.NotEqual(t, ScanFast, al.ScanType)
			assert.NotEqual(t, ScanSlow, al.ScanType)
		}
	}
}

func TestDetector_MaxHitsPerIPEvictsOldestFirst(t *testing.T) {
	cfg := testConfig()
	cfg.MaxHitsPerIP = 5
	d := New(cfg)

	for p := uint16(1); p <= 10; p++ {
		d.Process(dropEvent("10.0.0.1", p))
	}

	sh := d.shardFor("10.0.0.1")
	ports := sh.uniquePortsInWindow("10.0.0.1", d.now(), time.Hour, true)
	assert.Equal(t, []uint16{6, 7, 8, 9, 10}, ports)
}

func TestDetector_MaxTrackedIPsEvictsLRU(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTrackedIPs = 2
	d := New(cfg)

	d.Process(dropEvent("10.0.0.1", 1))
	d.Process(dropEvent("10.0.0.2", 1))
	d.Process(dropEvent("10.0.0.3", 1))

	assert.Equal(t, 2, d.TrackedCount())

	sh1 := d.shardFor("10.0.0.1")
	sh3 := d.shardFor("10.0.0.3")
	sh3.mu.RLock()
	_, present3 := sh3.lastSeen["10.0.0.3"]
	sh3.mu.RUnlock()
	assert.True(t, present3, "most recently seen IP must survive eviction")

	sh1.mu.RLock()
	_, present1 := sh1.lastSeen["10.0.0.1"]
	sh1.mu.RUnlock()
	assert.False(t, present1, "least recently seen IP must be evicted")
}

func TestDetector_SlowScanFiresIndependentlyOfFast(t *testing.T) {
	cfg := testConfig()
	cfg.Slow.Threshold = 3
	cfg.Fast.Threshold = 1000
	d := New(cfg)

	var alerts []Alert
	for _, p := range []uint16{1, 2, 3, 4} {
		alerts = d.Process(dropEvent("192.168.3.1", p))
	}
	require.Len(t, alerts, 1)
	assert.Equal(t, ScanSlow, alerts[0].ScanType)
}

func TestDetector_ThresholdIsStrictlyGreaterThan(t *testing.T) {
	cfg := testConfig()
	cfg.Fast.Threshold = 3
	d := New(cfg)

	for _, p := range []uint16{1, 2, 3} {
		alerts := d.Process(dropEvent("10.0.0.9", p))
		assert.Empty(t, alerts, "exactly-at-threshold must not fire")
	}
}

func TestDetector_FastAndSlowCanFireTogether(t *testing.T) {
	cfg := testConfig()
	cfg.Fast.Threshold = 2
	cfg.Slow.Threshold = 2
	d := New(cfg)

	d.Process(dropEvent("10.0.0.5", 1))
	d.Process(dropEvent("10.0.0.5", 2))
	alerts := d.Process(dropEvent("10.0.0.5", 3))

	require.Len(t, alerts, 2)
	kinds := map[ScanType]bool{}
	for _, a := range alerts {
		kinds[a.ScanType] = true
	}
	assert.True(t, kinds[ScanFast])
	assert.True(t, kinds[ScanSlow])
}

func TestDetector_TrackedCountReflectsDistinctIPs(t *testing.T) {
	d := New(testConfig())
	d.Process(dropEvent("10.0.0.1", 1))
	d.Process(dropEvent("10.0.0.1", 2))
	d.Process(dropEvent("10.0.0.2", 1))

	assert.Equal(t, 2, d.TrackedCount())
}

func TestDetector_CompactPrunesStaleHits(t *testing.T) {
	d := New(testConfig())
	fake := time.Now()
	d.now = func() time.Time { return fake }

	d.Process(dropEvent("10.0.0.1", 1))
	require.Equal(t, 1, d.TrackedCount())

	fake = fake.Add(time.Hour)
	d.Compact(time.Minute)

	assert.Equal(t, 0, d.TrackedCount(), "entries older than max_entry_age must be pruned")
}

func TestDetector_CompactDoesNotPruneFreshEntries(t *testing.T) {
	d := New(testConfig())
	fake := time.Now()
	d.now = func() time.Time { return fake }

	d.Process(dropEvent("10.0.0.1", 1))
	d.Compact(time.Hour)

	assert.Equal(t, 1, d.TrackedCount())
}
