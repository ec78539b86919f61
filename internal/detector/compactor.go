package detector

import (
	"context"
	"time"
)

// Compactor drives Detector.Compact on a fixed tick, sharing the
// Detector's state with the ingestion loop the same way the teacher's
// realtime bridge shares a hub with its HTTP handlers: no lock of its
// own, just a periodic caller of an already-safe method.
type Compactor struct {
	det         *Detector
	interval    time.Duration
	maxEntryAge time.Duration
}

// NewCompactor builds a Compactor for det, ticking every interval and
// pruning entries older than maxEntryAge.
func NewCompactor(det *Detector, interval, maxEntryAge time.Duration) *Compactor {
	return &Compactor{det: det, interval: interval, maxEntryAge: maxEntryAge}
}

// Run blocks, compacting on every tick until ctx is cancelled. The first
// pass happens after one interval, not at startup: time.NewTicker never
// fires immediately, so an empty detector is never compacted before it
// has had a chance to accumulate state.
func (c *Compactor) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.det.Compact(c.maxEntryAge)
		}
	}
}
