//go:build linux

package ingest

import (
	"context"
	"encoding/binary"
	"strings"
	"time"

	nflog "github.com/florianl/go-nflog/v2"

	"github.com/ids-rs/idsrs/internal/detector"
)

// NFLOGSource captures LogEvents directly from kernel packet metadata,
// bypassing the line-parsing stage entirely: a NFLOG-tagged rule already
// hands over structured IP/transport headers. It requires a matching
// firewall rule, e.g.:
//
//	iptables -I INPUT -j NFLOG --nflog-group 100 --nflog-prefix "IDSRS:INPUT:DROP:"
type NFLOGSource struct {
	group int
	det   *detector.Detector
	alert alertSink
	log   logger
}

// NewNFLOGSource builds a source reading from netlink group.
func NewNFLOGSource(group int, det *detector.Detector, al alertSink, log logger) *NFLOGSource {
	return &NFLOGSource{group: group, det: det, alert: al, log: log}
}

// Run opens the NFLOG netlink socket and blocks until ctx is cancelled.
func (s *NFLOGSource) Run(ctx context.Context) error {
	cfg := nflog.Config{
		Group:       uint16(s.group),
		Copymode:    nflog.CopyPacket,
		ReadTimeout: 10 * time.Millisecond,
	}

	nf, err := nflog.Open(&cfg)
	if err != nil {
		return err
	}
	defer nf.Close()

	s.log.Info("nflog source started", "group", s.group)

	hookFn := func(attrs nflog.Attribute) int {
		event, ok := s.toLogEvent(attrs)
		if !ok {
			return 0
		}
		for _, a := range s.det.Process(event) {
			s.alert.Send(a)
		}
		return 0
	}

	if err := nf.RegisterWithErrorFunc(ctx, hookFn, func(err error) int {
		if ctx.Err() != nil {
			return 0
		}
		s.log.Warn("nflog error", "err", err)
		return 0
	}); err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

func (s *NFLOGSource) toLogEvent(attrs nflog.Attribute) (detector.LogEvent, bool) {
	action := "accept"
	if attrs.Prefix != nil {
		action = actionFromPrefix(strings.TrimRight(*attrs.Prefix, "\x00"))
	}

	if attrs.Payload == nil || len(*attrs.Payload) < 20 {
		return detector.LogEvent{}, false
	}
	pkt := *attrs.Payload
	if pkt[0]>>4 != 4 {
		return detector.LogEvent{}, false // only IPv4 headers are decoded
	}
	ihl := int(pkt[0]&0x0F) * 4
	protoNum := int(pkt[9])

	if len(pkt) < ihl+4 {
		return detector.LogEvent{}, false
	}
	if protoNum != 6 && protoNum != 17 {
		return detector.LogEvent{}, false
	}

	dstPort := binary.BigEndian.Uint16(pkt[ihl+2 : ihl+4])

	return detector.LogEvent{
		SrcIP:   ipFromBytes(pkt[12:16]),
		DstIP:   ipFromBytes(pkt[16:20]),
		DstPort: dstPort,
		Proto:   protoName(protoNum),
		Action:  action,
	}, true
}
