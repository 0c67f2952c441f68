package config

import "errors"

// Validation errors returned by [AgentConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidAdapterConfigs indicates invalid adapter settings
	// (for example, a missing remote authority address).
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")
	// ErrInvalidStorageConfigs indicates invalid local storage settings
	// (for example, an empty SQLite path).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidAgentConfigs indicates missing agent identity settings
	// (user ID or encryption secret).
	ErrInvalidAgentConfigs = errors.New("invalid agent configuration")
)
