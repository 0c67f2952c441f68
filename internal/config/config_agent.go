package config

import (
	"fmt"
	"time"
)

// AgentAdapter holds network settings used by the agent transport
// layer.
type AgentAdapter struct {
	// HTTPAddress is the base URL of the remote authority.
	HTTPAddress string
	// RequestTimeout is the default timeout for outbound requests.
	RequestTimeout time.Duration
}

// AgentStorage groups the agent's local storage settings.
type AgentStorage struct {
	// DSN is the SQLite database file path.
	DSN string
}

// AgentSync holds the sync engine settings for the agent runtime.
type AgentSync struct {
	Interval       time.Duration
	OnlineDebounce time.Duration
	MaxAttempts    int
	BackoffBase    time.Duration
	BackoffMax     time.Duration
}

// AgentLifecycle holds lifecycle monitor settings for the agent
// runtime.
type AgentLifecycle struct {
	VisibilityDebounce time.Duration
	ManualDebounce     time.Duration
	FlushTimeout       time.Duration
}

// AgentFlush holds flush agent settings for the agent runtime.
type AgentFlush struct {
	QueueName    string
	PollInterval time.Duration
}

// AgentCrypto holds Argon2id cost parameters for the agent runtime.
type AgentCrypto struct {
	ArgonTime      uint32
	ArgonMemoryKiB uint32
	ArgonThreads   uint8
}

// AgentConfig is the top-level agent configuration assembled from
// [StructuredConfig].
type AgentConfig struct {
	// UserID identifies the device owner.
	UserID int64
	// Token is the bearer token for the remote authority.
	Token string
	// Secret is the user secret the encryption key is derived from.
	Secret string
	// LogPath is the rotating log file location.
	LogPath string

	Adapter   AgentAdapter
	Storage   AgentStorage
	Sync      AgentSync
	Lifecycle AgentLifecycle
	Flush     AgentFlush
	Crypto    AgentCrypto
}

// GetAgentConfig builds and validates an agent-specific config view
// from the merged structured configuration.
//
// It loads the base config via [GetStructuredConfig], maps only the
// fields relevant to the agent runtime, fills documented defaults for
// unset durations, and validates the resulting [AgentConfig].
func GetAgentConfig() (*AgentConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	agentCfg := &AgentConfig{
		UserID:  cfg.Agent.UserID,
		Token:   cfg.Agent.Token,
		Secret:  cfg.Agent.Secret,
		LogPath: cfg.Agent.LogPath,
		Adapter: AgentAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Storage: AgentStorage{
			DSN: cfg.Storage.Local.DSN,
		},
		Sync: AgentSync{
			Interval:       cfg.Sync.Interval,
			OnlineDebounce: cfg.Sync.OnlineDebounce,
			MaxAttempts:    cfg.Sync.MaxAttempts,
			BackoffBase:    cfg.Sync.BackoffBase,
			BackoffMax:     cfg.Sync.BackoffMax,
		},
		Lifecycle: AgentLifecycle{
			VisibilityDebounce: cfg.Lifecycle.VisibilityDebounce,
			ManualDebounce:     cfg.Lifecycle.ManualDebounce,
			FlushTimeout:       cfg.Lifecycle.FlushTimeout,
		},
		Flush: AgentFlush{
			QueueName:    cfg.Flush.QueueName,
			PollInterval: cfg.Flush.PollInterval,
		},
		Crypto: AgentCrypto{
			ArgonTime:      cfg.Crypto.ArgonTime,
			ArgonMemoryKiB: cfg.Crypto.ArgonMemoryKiB,
			ArgonThreads:   cfg.Crypto.ArgonThreads,
		},
	}
	agentCfg.fillDefaults()

	return agentCfg, agentCfg.validate()
}

func (cfg *AgentConfig) fillDefaults() {
	if cfg.Adapter.RequestTimeout <= 0 {
		cfg.Adapter.RequestTimeout = 15 * time.Second
	}
	if cfg.Sync.Interval <= 0 {
		cfg.Sync.Interval = 5 * time.Minute
	}
	if cfg.Sync.OnlineDebounce <= 0 {
		cfg.Sync.OnlineDebounce = time.Second
	}
	if cfg.Sync.MaxAttempts <= 0 {
		cfg.Sync.MaxAttempts = 5
	}
	if cfg.Sync.BackoffBase <= 0 {
		cfg.Sync.BackoffBase = 500 * time.Millisecond
	}
	if cfg.Sync.BackoffMax <= 0 {
		cfg.Sync.BackoffMax = 30 * time.Second
	}
	if cfg.Lifecycle.VisibilityDebounce <= 0 {
		cfg.Lifecycle.VisibilityDebounce = 500 * time.Millisecond
	}
	if cfg.Lifecycle.ManualDebounce <= 0 {
		cfg.Lifecycle.ManualDebounce = time.Second
	}
	if cfg.Lifecycle.FlushTimeout <= 0 {
		cfg.Lifecycle.FlushTimeout = 5 * time.Second
	}
	if cfg.Flush.QueueName == "" {
		// must match the queue the sync engine quarantines to
		cfg.Flush.QueueName = "emergency-flush"
	}
	if cfg.Flush.PollInterval <= 0 {
		cfg.Flush.PollInterval = 30 * time.Second
	}
}
