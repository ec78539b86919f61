//go:build !linux

package ingest

import (
	"context"

	"github.com/ids-rs/idsrs/internal/detector"
)

// NFLOGSource is unavailable outside Linux: NFLOG is a Linux netfilter
// facility with no portable equivalent. Run logs a warning, then blocks
// until ctx is cancelled and returns nil.
type NFLOGSource struct {
	log logger
}

// NewNFLOGSource builds a no-op source on non-Linux platforms.
func NewNFLOGSource(group int, det *detector.Detector, al alertSink, log logger) *NFLOGSource {
	return &NFLOGSource{log: log}
}

func (s *NFLOGSource) Run(ctx context.Context) error {
	s.log.Warn("nflog source requested but unavailable on this platform")
	<-ctx.Done()
	return nil
}
