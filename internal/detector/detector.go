package detector

import (
	"hash/fnv"
	"sync/atomic"
	"time"
)

// shardCount is a fixed power-of-two shard pool. Keys hash-route to a
// shard; each shard guards its own lock, so process(ip1) and process(ip2)
// for distinct IPs never contend. A single global mutex over all per-IP
// state is explicitly rejected by the design this implements.
const shardCount = 32

// WindowRule is one sliding-window threshold: an alert fires when more
// than Threshold distinct ports are observed within Window.
type WindowRule struct {
	Threshold int
	Window    time.Duration
}

// Config holds the tunables for a Detector, sourced from the
// [detection] section of the daemon's configuration.
type Config struct {
	MaxHitsPerIP  int
	MaxTrackedIPs int
	AlertCooldown time.Duration
	Fast          WindowRule
	Slow          WindowRule
	Accept        WindowRule
}

// Detector is the concurrent, bounded, in-memory scan-detection engine.
// It has no I/O and never logs; process is a pure state transformer whose
// only output is the returned alert list.
type Detector struct {
	cfg    Config
	shards [shardCount]*shard
	tracked atomic.Int64

	// now is overridable in tests to make window/cooldown arithmetic
	// deterministic; it defaults to time.Now.
	now func() time.Time
}

// New constructs a Detector from cfg.
func New(cfg Config) *Detector {
	d := &Detector{cfg: cfg, now: time.Now}
	for i := range d.shards {
		d.shards[i] = newShard()
	}
	return d
}

func (d *Detector) shardFor(ip string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ip))
	return d.shards[h.Sum32()%shardCount]
}

// TrackedCount returns the approximate number of source IPs currently
// tracked across all shards. Observational only: it may transiently
// reflect a pre- or post-compaction view.
func (d *Detector) TrackedCount() int {
	total := 0
	for _, s := range d.shards {
		total += s.count()
	}
	return total
}

// Process records one LogEvent and returns zero to three Alerts (Fast,
// Slow, AcceptScan — independent, so more than one may fire for the same
// event).
func (d *Detector) Process(event LogEvent) []Alert {
	now := d.now()
	dropAction := event.Action == "drop"
	sh := d.shardFor(event.SrcIP)

	// 1. Admission control: only an IP unseen by its shard can grow the
	// global tracked count, and only then do we consult the cap.
	sh.mu.RLock()
	_, alreadyTracked := sh.lastSeen[event.SrcIP]
	sh.mu.RUnlock()
	if !alreadyTracked && d.tracked.Load() >= int64(d.cfg.MaxTrackedIPs) {
		d.evictLRU()
	}

	// 2 & 3. Touch last_seen and append the hit, FIFO-capped.
	wasNew := sh.touch(event.SrcIP, now, dropAction, PortHit{Port: event.DstPort, SeenAt: now}, d.cfg.MaxHitsPerIP)
	if wasNew {
		d.tracked.Add(1)
	}

	// 4. Evaluate Fast, Slow, AcceptScan. Order does not matter: the three
	// read disjoint cooldown maps and independent hit-maps-by-action.
	var alerts []Alert
	if dropAction {
		if a, ok := d.evaluate(sh, event, ScanFast, d.cfg.Fast, now, true); ok {
			alerts = append(alerts, a)
		}
		if a, ok := d.evaluate(sh, event, ScanSlow, d.cfg.Slow, now, true); ok {
			alerts = append(alerts, a)
		}
	} else {
		if a, ok := d.evaluate(sh, event, ScanAccept, d.cfg.Accept, now, false); ok {
			alerts = append(alerts, a)
		}
	}
	return alerts
}

// evaluate checks one scan class's threshold and cooldown, installing the
// cooldown and returning an Alert if it fires.
func (d *Detector) evaluate(sh *shard, event LogEvent, class ScanType, rule WindowRule, now time.Time, dropAction bool) (Alert, bool) {
	ports := sh.uniquePortsInWindow(event.SrcIP, now, rule.Window, dropAction)
	if len(ports) <= rule.Threshold {
		return Alert{}, false
	}
	if sh.cooldownActive(event.SrcIP, now, d.cfg.AlertCooldown, class) {
		return Alert{}, false
	}

	// Firing installs the cooldown before returning, even if downstream
	// transport later fails — a lost alert is not re-emitted until the
	// cooldown expires (see Alerter).
	sh.armCooldown(event.SrcIP, now, class)

	return Alert{
		ScanType:    class,
		SourceIP:    event.SrcIP,
		DestIP:      event.DstIP,
		UniquePorts: ports,
		Timestamp:   time.Now(), // wall-clock at emission, for SIEM/email display
	}, true
}

// evictLRU removes the globally least-recently-seen IP from all six
// structures to make room for a new one. It runs a linear scan across
// shards — O(n) in the tracked-IP count — which is acceptable because it
// only fires on admission of a new IP once the cap has been reached; on
// steady workloads that is rare, and on an adversarial high-cardinality
// flood it is the intended back-pressure.
func (d *Detector) evictLRU() {
	var (
		victimIP string
		victimTS time.Time
		victimOK bool
	)
	for _, s := range d.shards {
		ip, ts, ok := s.minLastSeen()
		if !ok {
			continue
		}
		if !victimOK || ts.Before(victimTS) {
			victimIP, victimTS, victimOK = ip, ts, true
		}
	}
	if !victimOK {
		return
	}
	victim := d.shardFor(victimIP)
	if victim.evict(victimIP) {
		d.tracked.Add(-1)
	}
}

// Compact prunes stale hits, expired cooldowns, and the now-stale
// last_seen entries they leave behind. See Compactor for the periodic
// driver of this method.
func (d *Detector) Compact(maxEntryAge time.Duration) {
	now := d.now()
	for _, s := range d.shards {
		s.compact(now, maxEntryAge, d.cfg.AlertCooldown)
	}
	d.tracked.Store(int64(d.TrackedCount()))
}
