package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ids-rs/idsrs/internal/detector"
	"github.com/ids-rs/idsrs/pkg/logger"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("error", "text")
	require.NoError(t, err)
	return log
}

func TestHub_EmitAlert_DeliversToRegisteredClient(t *testing.T) {
	h := NewHub(newTestLogger(t))
	go h.Run()
	defer h.Shutdown()

	client := &Client{ID: "c1", Send: make(chan []byte, 4)}
	h.Register(client)

	alert := detector.Alert{ScanType: detector.ScanFast, SourceIP: "10.0.0.1", UniquePorts: []uint16{22, 23}}
	h.EmitAlert(alert)

	select {
	case msg := <-client.Send:
		assert.Contains(t, string(msg), "10.0.0.1")
		assert.Contains(t, string(msg), `"type":"alert"`)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestHub_Unregister_ClosesClientChannel(t *testing.T) {
	h := NewHub(newTestLogger(t))
	go h.Run()
	defer h.Shutdown()

	client := &Client{ID: "c1", Send: make(chan []byte, 1)}
	h.Register(client)
	h.Unregister(client)

	// Give the hub goroutine a moment to process the unregister before
	// asserting the channel closed.
	require.Eventually(t, func() bool {
		_, ok := <-client.Send
		return !ok
	}, time.Second, 10*time.Millisecond)
}
