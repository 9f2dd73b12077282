package audit

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestLogFromRequest(t *testing.T) {
	buf := captureLog(t)

	req := httptest.NewRequest("POST", "/auth/magic-link", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	req.Header.Set("User-Agent", "test-agent")

	LogFromRequest(req, Event{
		Type:     EventMagicLinkSent,
		UserID:   "u1",
		TenantID: "t1",
		Details:  map[string]interface{}{"email": "alice@example.com", "attempt": 2, "ok": true},
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "security", entry["audit"])
	assert.Equal(t, "magic_link_sent", entry["event_type"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, "t1", entry["tenant_id"])
	assert.Equal(t, "203.0.113.7", entry["ip"])
	assert.Equal(t, "test-agent", entry["user_agent"])
	assert.Equal(t, "alice@example.com", entry["email"])
	assert.Equal(t, float64(2), entry["attempt"])
	assert.Equal(t, true, entry["ok"])
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)

	req.RemoteAddr = "198.51.100.1:80"
	assert.Equal(t, "198.51.100.1", ClientIP(req))

	req.RemoteAddr = "198.51.100.1"
	assert.Equal(t, "198.51.100.1", ClientIP(req))
}
