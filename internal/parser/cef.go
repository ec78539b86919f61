package parser

import (
	"net"
	"strconv"
	"strings"

	"github.com/ids-rs/idsrs/internal/detector"
)

// cefMarker is searched for anywhere in the line: a syslog prefix
// (timestamp, host, facility) commonly precedes the CEF record itself.
const cefMarker = "CEF:"

// CEFParser reads Common Event Format records:
//
//	<syslog prefix>CEF:0|Vendor|Product|Version|SignatureID|Name|Severity|src=1.2.3.4 dst=5.6.7.8 dpt=443 proto=tcp act=drop
//
// Only act=drop extensions are surfaced; accept traffic logged in CEF is
// invisible to this parser (see the open question in SPEC_FULL.md).
type CEFParser struct{}

func (CEFParser) Name() string { return "cef" }

func (CEFParser) ExpectedFormat() string {
	return `"...CEF:Version|Vendor|Product|DeviceVersion|SignatureID|Name|Severity|key=value ..."`
}

func (CEFParser) Parse(line string) (detector.LogEvent, bool) {
	idx := strings.Index(line, cefMarker)
	if idx < 0 {
		return detector.LogEvent{}, false
	}

	fields := strings.SplitN(line[idx:], "|", 8)
	if len(fields) < 8 {
		return detector.LogEvent{}, false
	}
	ext := fields[7]

	kv := make(map[string]string)
	for _, tok := range strings.Fields(ext) {
		key, val, found := strings.Cut(tok, "=")
		if !found {
			continue
		}
		kv[strings.ToLower(key)] = val
	}

	if strings.ToLower(kv["act"]) != "drop" {
		return detector.LogEvent{}, false
	}

	srcRaw, ok := kv["src"]
	if !ok || net.ParseIP(srcRaw) == nil {
		return detector.LogEvent{}, false
	}
	dptRaw, ok := kv["dpt"]
	if !ok {
		return detector.LogEvent{}, false
	}
	port, err := strconv.ParseUint(dptRaw, 10, 16)
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
		Action:  "drop",
		Raw:     line,
	}, true
}
