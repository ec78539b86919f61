// Package detector implements the scan-detection engine: a sharded,
// concurrent state store that records port accesses per source IP and
// raises alerts when a source crosses a sliding-window threshold.
package detector

import "time"

// ScanType identifies which sliding-window rule produced an Alert.
type ScanType string

const (
	ScanFast   ScanType = "Fast"
	ScanSlow   ScanType = "Slow"
	ScanAccept ScanType = "AcceptScan"
)

// LogEvent is the parser's output contract: one normalized observation of
// traffic touching a single destination port from a single source.
type LogEvent struct {
	SrcIP   string // required, IPv4 or IPv6
	DstIP   string // optional, empty for ICMP / broadcast-class logs
	DstPort uint16
	Proto   string // lowercase: tcp, udp, icmp, ...
	Action  string // lowercase: drop, accept, ...
	Raw     string // original line, for audit
}

// PortHit is one observation of a port by a source IP, stamped with a
// monotonic timestamp so window arithmetic is immune to clock adjustments.
type PortHit struct {
	Port   uint16
	SeenAt time.Time // monotonic (time.Now(), never wall-clock-adjusted)
}

// Alert is the detector's sole output: a sliding-window threshold crossed
// for one (source IP, scan class) pair, subject to its cooldown.
type Alert struct {
	ScanType    ScanType  `json:"scan_type"`
	SourceIP    string    `json:"source_ip"`
	DestIP      string    `json:"dest_ip,omitempty"` // optional, copied from the triggering event
	UniquePorts []uint16  `json:"unique_ports"`      // sorted, deduplicated
	Timestamp   time.Time `json:"timestamp"`         // wall-clock, stamped at emission
}
