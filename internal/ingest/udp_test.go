package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ids-rs/idsrs/internal/alerter"
	"github.com/ids-rs/idsrs/internal/detector"
	"github.com/ids-rs/idsrs/internal/parser"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Debug(string, ...interface{}) {}

func TestSplitLines_TrimsAndDropsEmpty(t *testing.T) {
	data := "line one\r\n\r\n  line two  \nline three\n"
	lines := splitLines(data)
	assert.Equal(t, []string{"line one", "line two", "line three"}, lines)
}

func TestSplitLines_EmptyInput(t *testing.T) {
	assert.Empty(t, splitLines(""))
	assert.Empty(t, splitLines("\n\r\n  \n"))
}

func TestProtoName(t *testing.T) {
	assert.Equal(t, "tcp", protoName(6))
	assert.Equal(t, "udp", protoName(17))
	assert.Equal(t, "icmp", protoName(1))
	assert.Equal(t, "other", protoName(47))
}

func TestActionFromPrefix(t *testing.T) {
	assert.Equal(t, "drop", actionFromPrefix("IDSRS:INPUT:DROP:"))
	assert.Equal(t, "accept", actionFromPrefix("IDSRS:INPUT:ACCEPT:"))
	assert.Equal(t, "drop", actionFromPrefix("IDSRS:INPUT:REJECT:"))
	assert.Equal(t, "accept", actionFromPrefix("no recognized token"))
}

func TestIPFromBytes(t *testing.T) {
	assert.Equal(t, "10.0.0.1", ipFromBytes([]byte{10, 0, 0, 1}))
	assert.Empty(t, ipFromBytes([]byte{1, 2, 3}))
}

func TestListener_HandleDatagram_DrivesParserDetectorAlerter(t *testing.T) {
	det := detector.New(detector.Config{
		MaxHitsPerIP:  100,
		MaxTrackedIPs: 100,
		AlertCooldown: 5 * time.Second,
		Fast:          detector.WindowRule{Threshold: 2, Window: 10 * time.Second},
		Slow:          detector.WindowRule{Threshold: 50, Window: time.Minute},
		Accept:        detector.WindowRule{Threshold: 50, Window: 10 * time.Second},
	})
	al := alerter.New(alerter.Config{}, nopLogger{}) // both transports disabled: no network I/O

	l := &Listener{p: parser.GaiaParser{}, det: det, alert: al, log: nopLogger{}}

	lines := []string{
		"Jan 1 00:00:00 fw Checkpoint: 1Jan2024 0:00:00 drop; src: 10.5.5.5; service: 1;",
		"Jan 1 00:00:00 fw Checkpoint: 1Jan2024 0:00:00 drop; src: 10.5.5.5; service: 2;",
		"Jan 1 00:00:00 fw Checkpoint: 1Jan2024 0:00:00 drop; src: 10.5.5.5; service: 3;",
	}
	data := []byte(lines[0] + "\n" + lines[1] + "\n" + lines[2] + "\n")

	require.NotPanics(t, func() { l.handleDatagram(data) })
	assert.Equal(t, 1, det.TrackedCount())
}
