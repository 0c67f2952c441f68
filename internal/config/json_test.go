package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseJSON_AllSections(t *testing.T) {
	path := writeTempJSON(t, `{
		"auth": {"token_sign_key": "sign", "token_issuer": "issuer"},
		"storage": {
			"db": {"dsn": "postgres://localhost/compvault"},
			"local": {"dsn": "/tmp/agent.db"}
		},
		"server": {
			"http_address": "localhost:8080",
			"grpc_address": "localhost:9090",
			"request_timeout": "30s",
			"emergency_sync_limit": 10
		},
		"adapter": {"http_address": "https://vault.example.com", "request_timeout": "15s"},
		"sync": {"interval": "5m", "max_attempts": 3, "backoff_base": "1s", "backoff_max": "10s"},
		"lifecycle": {"visibility_debounce": "500ms", "flush_timeout": "5s"},
		"flush": {"queue_name": "q", "poll_interval": "30s"},
		"reconcile": {"exact_window": "24h", "probable_window": "30m", "disable_length_heuristic": true},
		"alerts": {"failure_window": "15m", "failure_threshold": 5}
	}`)

	cfg, err := parseJSON(path)
	require.NoError(t, err)

	assert.Equal(t, "sign", cfg.Auth.TokenSignKey)
	assert.Equal(t, "issuer", cfg.Auth.TokenIssuer)
	assert.Equal(t, "postgres://localhost/compvault", cfg.Storage.DB.DSN)
	assert.Equal(t, "/tmp/agent.db", cfg.Storage.Local.DSN)
	assert.Equal(t, "localhost:8080", cfg.Server.HTTPAddress)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 10, cfg.Server.EmergencySyncLimit)
	assert.Equal(t, "https://vault.example.com", cfg.Adapter.HTTPAddress)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 3, cfg.Sync.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Lifecycle.VisibilityDebounce)
	assert.Equal(t, "q", cfg.Flush.QueueName)
	assert.Equal(t, 24*time.Hour, cfg.Reconcile.ExactWindow)
	assert.True(t, cfg.Reconcile.DisableLengthHeuristic)
	assert.Equal(t, 15*time.Minute, cfg.Alerts.FailureWindow)
	assert.Equal(t, 5, cfg.Alerts.FailureThreshold)
}

func TestParseJSON_FileNotFound(t *testing.T) {
	_, err := parseJSON("/definitely/not/here.json")
	require.Error(t, err)
}

func TestParseJSON_MalformedJSON(t *testing.T) {
	path := writeTempJSON(t, `{"server": `)
	_, err := parseJSON(path)
	require.Error(t, err)
}

// ── Duration ─────────────────────────────────────────────────────────────────

func TestDuration_UnmarshalString(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1h30m"`), &d))
	assert.Equal(t, 90*time.Minute, time.Duration(d))
}

func TestDuration_UnmarshalNumber(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`1000000000`), &d))
	assert.Equal(t, time.Second, time.Duration(d))
}

func TestDuration_UnmarshalInvalidString(t *testing.T) {
	var d Duration
	require.Error(t, json.Unmarshal([]byte(`"one hour"`), &d))
}

func TestDuration_MarshalRoundTrip(t *testing.T) {
	d := Duration(45 * time.Second)
	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"45s"`, string(raw))
}
