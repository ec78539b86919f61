package ingest

import (
	"net"
	"strings"
)

// protoName converts an IP protocol number to the lowercase string the
// detector's LogEvent.Proto expects.
func protoName(proto int) string {
	switch proto {
	case 6:
		return "tcp"
	case 17:
		return "udp"
	case 1:
		return "icmp"
	default:
		return "other"
	}
}

// ipFromBytes converts a 4- or 16-byte address to its string form.
func ipFromBytes(b []byte) string {
	switch len(b) {
	case 4:
		return net.IPv4(b[0], b[1], b[2], b[3]).String()
	case 16:
		return net.IP(b).String()
	default:
		return ""
	}
}

// actionFromPrefix extracts the firewall action from an NFLOG prefix
// string of the form "IDSRS:<CHAIN>:<ACTION>:". Absent a recognized
// action token, the packet is treated as accepted (observational, not
// block-worthy).
func actionFromPrefix(prefix string) string {
	for _, tok := range strings.Split(prefix, ":") {
		switch strings.ToUpper(strings.TrimSpace(tok)) {
		case "DROP", "REJECT":
			return "drop"
		case "ACCEPT":
			return "accept"
		}
	}
	return "accept"
}
