// Package parser converts one raw firewall log line into a normalized
// detector.LogEvent, or rejects it. Implementations are stateless after
// construction and safe for concurrent use from multiple reader goroutines.
package parser

import "github.com/ids-rs/idsrs/internal/detector"

// Parser is the capability set the ingestion loop dispatches through.
// Resolved once at startup from network.parser; adding a variant never
// requires touching the ingestion loop.
type Parser interface {
	// Parse converts one trimmed, non-empty line into a LogEvent. ok is
	// false when the line does not belong to this parser's format, or
	// the format rejects the event (e.g. a non-drop action, a missing
	// required field).
	Parse(line string) (event detector.LogEvent, ok bool)

	// Name identifies the parser in log output.
	Name() string

	// ExpectedFormat is a short human-readable description of the line
	// shape this parser accepts.
	ExpectedFormat() string
}

// ByName resolves the configured parser name to an implementation.
// Returns ok=false for any name other than "gaia" or "cef".
func ByName(name string) (Parser, bool) {
	switch name {
	case "gaia":
		return GaiaParser{}, true
	case "cef":
		return CEFParser{}, true
	default:
		return nil, false
	}
}
