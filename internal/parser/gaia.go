package parser

import (
	"net"
	"strconv"
	"strings"

	"github.com/ids-rs/idsrs/internal/detector"
)

// checkpointToken is the marker that precedes the embedded record. Matched
// case-insensitively since upstream exporters disagree on casing.
const checkpointToken = "checkpoint:"

// GaiaParser reads the raw Checkpoint/Gaia firewall log shape:
//
//	<syslog prefix> Checkpoint: <date> <time> drop; src: 1.2.3.4; dst: 5.6.7.8; proto: tcp; service: 443;
//
// Only drop events carry a service worth alerting on in this format, so
// this parser surfaces drop only — accept/reject lines are rejected here,
// not routed to the detector's accept side.
type GaiaParser struct{}

func (GaiaParser) Name() string { return "gaia" }

func (GaiaParser) ExpectedFormat() string {
	return `"... Checkpoint: <date> <time> <action>; key: value; ..."`
}

func (GaiaParser) Parse(line string) (detector.LogEvent, bool) {
	idx := strings.Index(strings.ToLower(line), checkpointToken)
	if idx < 0 {
		return detector.LogEvent{}, false
	}
	tail := strings.TrimSpace(line[idx+len(checkpointToken):])

	// Skip the embedded date and time tokens, whitespace-separated.
	fields := strings.SplitN(tail, " ", 3)
	if len(fields) < 3 {
		return detector.LogEvent{}, false
	}
	rest := fields[2]

	segments := strings.Split(rest, ";")
	if len(segments) == 0 {
		return detector.LogEvent{}, false
	}
	action := strings.ToLower(strings.TrimSpace(segments[0]))
	if action != "drop" && action != "accept" && action != "reject" {
		return detector.LogEvent{}, false
	}
	if action != "drop" {
		return detector.LogEvent{}, false
	}

	kv := make(map[string]string, len(segments)-1)
	for _, seg := range segments[1:] {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		key, val, found := strings.Cut(seg, ":")
		if !found {
			continue
		}
		kv[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(val)
	}

	srcRaw, ok := kv["src"]
	if !ok || net.ParseIP(srcRaw) == nil {
		return detector.LogEvent{}, false
	}
	serviceRaw, ok := kv["service"]
	if !ok {
		return detector.LogEvent{}, false
	}
	port, err := strconv.ParseUint(serviceRaw, 10, 16)
	if err != nil {
		return detector.LogEvent{}, false
	}

	proto := strings.ToLower(kv["proto"])
	if proto == "" {
		proto = "tcp"
	}

	dst := kv["dst"]
	if dst != "" && net.ParseIP(dst) == nil {
		dst = ""
	}

	return detector.LogEvent{
		SrcIP:   srcRaw,
		DstIP:   dst,
		DstPort: uint16(port),
		Proto:   proto,
		Action:  action,
		Raw:     line,
	}, true
}
