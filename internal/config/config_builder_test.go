package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── newConfigBuilder ─────────────────────────────────────────────────────────

func TestNewConfigBuilder_InitialState(t *testing.T) {
	b := newConfigBuilder()
	require.NotNil(t, b)
	assert.NoError(t, b.err)
	assert.Empty(t, b.layers)
}

// ── build ────────────────────────────────────────────────────────────────────

func TestBuild_EmptyBuilder(t *testing.T) {
	b := newConfigBuilder()

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, &StructuredConfig{}, cfg)
}

func TestBuild_MergePriority(t *testing.T) {
	// mergo.Merge keeps the first non-zero value, so sources appended
	// earlier win for fields they set.
	b := newConfigBuilder()
	b.layers = append(b.layers,
		&StructuredConfig{Server: Server{HTTPAddress: "first:8080"}},
		&StructuredConfig{
			Server: Server{HTTPAddress: "second:9090", RequestTimeout: 30 * time.Second},
		},
	)

	cfg, err := b.build()
	require.NoError(t, err)

	assert.Equal(t, "first:8080", cfg.Server.HTTPAddress)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
}

func TestBuild_PropagatesAccumulatedError(t *testing.T) {
	b := newConfigBuilder()
	b.err = errors.New("boom")

	_, err := b.build()
	require.Error(t, err)
	assert.ErrorContains(t, err, "boom")
}

// ── withJSON ─────────────────────────────────────────────────────────────────

func TestWithJSON_NoPathConfigured(t *testing.T) {
	b := newConfigBuilder()
	b.layers = append(b.layers, &StructuredConfig{})

	b.withJSON()

	require.NoError(t, b.err)
	assert.Len(t, b.layers, 1, "no JSON source should be appended without a path")
}

func TestWithJSON_PathConfigured(t *testing.T) {
	path := writeTempJSON(t, `{"server": {"http_address": "json:8080"}}`)

	b := newConfigBuilder()
	b.layers = append(b.layers, &StructuredConfig{JSONFilePath: path})

	b.withJSON()

	require.NoError(t, b.err)
	require.Len(t, b.layers, 2)
	assert.Equal(t, "json:8080", b.layers[1].Server.HTTPAddress)
}

func TestWithJSON_UnreadableFile(t *testing.T) {
	b := newConfigBuilder()
	b.layers = append(b.layers, &StructuredConfig{JSONFilePath: "/no/such/file.json"})

	b.withJSON()

	assert.Error(t, b.err)
}

// ── agent view defaults ──────────────────────────────────────────────────────

func TestAgentConfig_FillDefaults(t *testing.T) {
	cfg := &AgentConfig{}
	cfg.fillDefaults()

	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, time.Second, cfg.Sync.OnlineDebounce)
	assert.Equal(t, 5, cfg.Sync.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Lifecycle.VisibilityDebounce)
	assert.Equal(t, time.Second, cfg.Lifecycle.ManualDebounce)
	assert.Equal(t, 5*time.Second, cfg.Lifecycle.FlushTimeout)
	assert.Equal(t, "emergency-flush", cfg.Flush.QueueName)
	assert.Equal(t, 30*time.Second, cfg.Flush.PollInterval)
}

func TestAgentConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     AgentConfig
		wantErr error
	}{
		{
			name: "valid",
			cfg: AgentConfig{
				UserID:  1,
				Secret:  "s",
				Storage: AgentStorage{DSN: "/tmp/a.db"},
				Adapter: AgentAdapter{HTTPAddress: "https://remote"},
			},
		},
		{
			name: "missing local DSN",
			cfg: AgentConfig{
				UserID:  1,
				Secret:  "s",
				Adapter: AgentAdapter{HTTPAddress: "https://remote"},
			},
			wantErr: ErrInvalidStorageConfigs,
		},
		{
			name: "missing remote address",
			cfg: AgentConfig{
				UserID:  1,
				Secret:  "s",
				Storage: AgentStorage{DSN: "/tmp/a.db"},
			},
			wantErr: ErrInvalidAdapterConfigs,
		},
		{
			name: "missing identity",
			cfg: AgentConfig{
				Storage: AgentStorage{DSN: "/tmp/a.db"},
				Adapter: AgentAdapter{HTTPAddress: "https://remote"},
			},
			wantErr: ErrInvalidAgentConfigs,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
