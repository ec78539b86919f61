package handlers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ids-rs/idsrs/internal/detector"
)

func TestStatus_ReportsTrackedIPCount(t *testing.T) {
	det := detector.New(detector.Config{
		MaxHitsPerIP:  10,
		MaxTrackedIPs: 10,
		AlertCooldown: time.Second,
		Fast:          detector.WindowRule{Threshold: 3, Window: 10 * time.Second},
		Slow:          detector.WindowRule{Threshold: 50, Window: time.Minute},
		Accept:        detector.WindowRule{Threshold: 3, Window: 10 * time.Second},
	})
	det.Process(detector.LogEvent{SrcIP: "10.0.0.1", DstPort: 22, Proto: "tcp", Action: "drop"})

	app := fiber.New()
	h := NewStatusHandler(det, time.Now().Add(-5*time.Second))
	app.Get("/status", h.Status)

	req := httptest.NewRequest("GET", "/status", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, float64(1), payload["tracked_ips"])
}
