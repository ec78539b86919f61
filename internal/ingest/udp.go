// Package ingest binds the UDP syslog listener (and, optionally, the
// NFLOG capture source) and drives the Parser → Detector → Alerter
// pipeline for every accepted line.
package ingest

import (
	"context"
	"net"
	"strconv"
	"strings"

	"github.com/ids-rs/idsrs/internal/detector"
	"github.com/ids-rs/idsrs/internal/ierrors"
	"github.com/ids-rs/idsrs/internal/parser"
)

// maxDatagramSize is the UDP payload ceiling; the read buffer is sized
// for it so no datagram is ever truncated.
const maxDatagramSize = 65535

// logger is the narrow slice of pkg/logger.Logger the ingestion loop
// depends on.
type logger interface {
	Info(msg string, kvs ...interface{})
	Warn(msg string, kvs ...interface{})
	Debug(msg string, kvs ...interface{})
}

// alertSink is the capability both ingestion sources (UDP and NFLOG)
// dispatch resulting alerts through. In production this is a sink that
// fans an alert out to the alerter's transports, the status API's
// WebSocket hub, the audit trail, and auto-response — in tests it is
// whatever narrow fake exercises the path under test.
type alertSink interface {
	Send(a detector.Alert)
}

// Listener binds a UDP socket and feeds every accepted line to the
// detector, dispatching resulting alerts to alert.
type Listener struct {
	conn  *net.UDPConn
	p     parser.Parser
	det   *detector.Detector
	alert alertSink
	log   logger
	debug bool
}

// Bind opens the UDP listener on addr:port. A bind failure is a startup
// failure per the error-handling design's first kind.
func Bind(address string, port int, p parser.Parser, det *detector.Detector, al alertSink, log logger, debug bool) (*Listener, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(address, strconv.Itoa(port)))
	if err != nil {
		return nil, ierrors.ErrBindFailure.Wrap(err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, ierrors.ErrBindFailure.Wrap(err)
	}
	return &Listener{conn: conn, p: p, det: det, alert: al, log: log, debug: debug}, nil
}

// Run reads datagrams until ctx is cancelled, at which point the socket
// is closed and Run returns. The read loop unblocks on close because a
// closed UDPConn's ReadFromUDP returns an error immediately.
func (l *Listener) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		l.conn.Close()
	}()

	buf := make([]byte, maxDatagramSize)
	for {
		n, _, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.log.Warn("udp read error", "err", err)
			continue
		}
		l.handleDatagram(buf[:n])
	}
}

func (l *Listener) handleDatagram(data []byte) {
	for _, line := range splitLines(string(data)) {
		if l.debug {
			l.log.Debug("raw line", "line", line)
		}
		event, ok := l.p.Parse(line)
		if !ok {
			l.log.Debug("parser rejected line", "parser", l.p.Name())
			continue
		}
		for _, a := range l.det.Process(event) {
			l.alert.Send(a)
		}
	}
}

// splitLines splits on \n and \r\n, trims each line, and drops empty
// lines, per the ingestion loop's framing contract.
func splitLines(data string) []string {
	raw := strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
