package alerter

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/ids-rs/idsrs/internal/detector"
)

// CEF signature IDs, one per scan class.
const (
	sigFast   = "1001"
	sigSlow   = "1002"
	sigAccept = "1003"
)

var scanLabel = map[detector.ScanType]string{
	detector.ScanFast:   "Fast Scan",
	detector.ScanSlow:   "Slow Scan",
	detector.ScanAccept: "Accept Scan",
}

var scanSignature = map[detector.ScanType]string{
	detector.ScanFast:   sigFast,
	detector.ScanSlow:   sigSlow,
	detector.ScanAccept: sigAccept,
}

// msgCSVLimit is the maximum length of the port CSV embedded in msg
// before truncation; cs1 always carries the full, untruncated list.
const msgCSVLimit = 512

// sanitizeCEF escapes a field value that flows into a CEF header or
// extension and is not produced by the detector itself. Order matters:
// the backslash must be escaped first, or the passes that follow would
// double-escape the escapes they just introduced.
func sanitizeCEF(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `|`, `\|`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	return s
}

func portsCSV(ports []uint16) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = strconv.FormatUint(uint64(p), 10)
	}
	return strings.Join(parts, ",")
}

// truncateCSV cuts csv to at most max characters at the nearest preceding
// comma and appends "...". csv shorter than max is returned unchanged.
func truncateCSV(csv string, max int) string {
	if len(csv) <= max {
		return csv
	}
	cut := strings.LastIndex(csv[:max], ",")
	if cut < 0 {
		cut = max
	}
	return csv[:cut] + "..."
}

// buildCEF renders one Alert as an RFC-3164-framed syslog message
// wrapping a CEF record, per the SIEM egress shape.
func buildCEF(a detector.Alert) string {
	label := scanLabel[a.ScanType]
	sig := scanSignature[a.ScanType]

	csv := portsCSV(a.UniquePorts)
	msg := fmt.Sprintf("%s | ports: %s", label, truncateCSV(csv, msgCSVLimit))

	ext := fmt.Sprintf("rt=%d src=%s", a.Timestamp.UnixMilli(), sanitizeCEF(a.SourceIP))
	if a.DestIP != "" {
		ext += " dst=" + sanitizeCEF(a.DestIP)
	}
	ext += fmt.Sprintf(" cnt=%d act=alert msg=%s cs1Label=ScannedPorts cs1=%s",
		len(a.UniquePorts), sanitizeCEF(msg), csv)

	header := fmt.Sprintf("CEF:0|IDS-RS|Network Scanner Detector|1.0|%s|%s|7|%s",
		sig, sanitizeCEF(label), ext)

	return fmt.Sprintf("<38>%s ids-rs %s", a.Timestamp.Format("Jan _2 15:04:05"), header)
}

// sendSIEM opens a fresh ephemeral UDP socket and sends one datagram.
// A new socket per alert is acceptable: UDP send is stateless and
// effectively instantaneous.
func sendSIEM(cfg SIEMConfig, a detector.Alert) error {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Write([]byte(buildCEF(a)))
	return err
}
