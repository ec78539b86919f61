package alerter

import (
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ids-rs/idsrs/internal/detector"
)

func TestSanitizeCEF_EscapeOrder(t *testing.T) {
	// Backslash must be escaped first, or the later passes would
	// double-escape the escapes they just introduced.
	in := "evil\nFeb 18 00:00:00 ids-rs CEF:0|FAKE|bad\\path"
	out := sanitizeCEF(in)

	assert.NotContains(t, out, "\n")
	assert.Contains(t, out, `\n`)
	assert.Contains(t, out, `\|`)
	assert.Contains(t, out, `\\`)
}

func TestSanitizeCEF_NoRawPipeBetweenCEFAndFake(t *testing.T) {
	in := `evil` + "\n" + `Feb 18 00:00:00 ids-rs CEF:0|FAKE|more`
	out := sanitizeCEF(in)
	idx := strings.Index(out, "CEF:0")
	require.GreaterOrEqual(t, idx, 0)
	between := out[idx+len("CEF:0"):]
	// Any real "|" in the original is now "\|" - no bare "|" survives.
	firstPipe := strings.Index(between, "|")
	if firstPipe >= 0 {
		assert.Equal(t, byte('\\'), between[firstPipe-1])
	}
}

func TestTruncateCSV_ShortUnchanged(t *testing.T) {
	assert.Equal(t, "1,2,3", truncateCSV("1,2,3", 512))
}

func TestTruncateCSV_TruncatesAtComma(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("12345")
	}
	csv := b.String()
	out := truncateCSV(csv, 50)
	assert.LessOrEqual(t, len(out), 53) // 50 + len("...")
	assert.True(t, strings.HasSuffix(out, "..."))
	assert.False(t, strings.HasSuffix(out[:len(out)-3], ","))
}

func TestBuildCEF_SignatureIDsByScanType(t *testing.T) {
	base := detector.Alert{SourceIP: "10.0.0.1", UniquePorts: []uint16{1, 2, 3}, Timestamp: time.Now()}

	fast := base
	fast.ScanType = detector.ScanFast
	assert.Contains(t, buildCEF(fast), "|1001|")

	slow := base
	slow.ScanType = detector.ScanSlow
	assert.Contains(t, buildCEF(slow), "|1002|")

	accept := base
	accept.ScanType = detector.ScanAccept
	assert.Contains(t, buildCEF(accept), "|1003|")
}

func TestBuildCEF_IncludesCs1PortList(t *testing.T) {
	a := detector.Alert{
		ScanType:    detector.ScanFast,
		SourceIP:    "10.0.0.1",
		DestIP:      "10.0.0.2",
		UniquePorts: []uint16{22, 80, 443},
		Timestamp:   time.Now(),
	}
	msg := buildCEF(a)
	assert.Contains(t, msg, "cs1Label=ScannedPorts")
	assert.Contains(t, msg, "cs1=22,80,443")
	assert.Contains(t, msg, "src=10.0.0.1")
	assert.Contains(t, msg, "dst=10.0.0.2")
}

func TestBuildCEF_OmitsDstWhenEmpty(t *testing.T) {
	a := detector.Alert{ScanType: detector.ScanFast, SourceIP: "10.0.0.1", UniquePorts: []uint16{1}, Timestamp: time.Now()}
	assert.NotContains(t, buildCEF(a), "dst=")
}

func TestSendSIEM_DeliversDatagram(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	host, portStr, err := net.SplitHostPort(pc.LocalAddr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	alert := detector.Alert{ScanType: detector.ScanFast, SourceIP: "10.0.0.1", UniquePorts: []uint16{1, 2, 3, 4}, Timestamp: time.Now()}

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 65535)
		n, _, _ := pc.ReadFrom(buf)
		done <- buf[:n]
	}()

	err = sendSIEM(SIEMConfig{Enabled: true, Host: host, Port: port}, alert)
	require.NoError(t, err)

	select {
	case data := <-done:
		assert.Contains(t, string(data), "CEF:0|IDS-RS|Network Scanner Detector")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for SIEM datagram")
	}
}

func TestAlerter_Send_SwallowsSIEMFailureWithoutPanicking(t *testing.T) {
	logged := false
	fakeLog := fakeLogger{warn: func(msg string, kvs ...interface{}) { logged = true }}

	a := New(Config{SIEM: SIEMConfig{Enabled: true, Host: "127.0.0.1", Port: -1}}, fakeLog)
	assert.NotPanics(t, func() {
		a.Send(detector.Alert{ScanType: detector.ScanFast, SourceIP: "10.0.0.1", UniquePorts: []uint16{1, 2}})
	})
	assert.True(t, logged, "a transport failure must be logged, not silently dropped")
}

func TestRenderEmail_FooterIsHTMLEscaped(t *testing.T) {
	a := detector.Alert{ScanType: detector.ScanFast, SourceIP: "10.0.0.1", UniquePorts: []uint16{1}, Timestamp: time.Now()}
	body := renderEmail(a, `<script>alert(1)</script>`)
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

type fakeLogger struct {
	warn func(msg string, kvs ...interface{})
}

func (f fakeLogger) Warn(msg string, kvs ...interface{}) { f.warn(msg, kvs...) }
