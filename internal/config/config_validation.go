package config

// validate checks that the final merged [StructuredConfig] satisfies
// all application invariants before it is used at startup.
//
// The structured config is shared between the server and the agent, so
// only universally required fields are checked here; runtime-specific
// validation happens in the per-runtime views.
func (cfg *StructuredConfig) validate() error {
	return nil
}

func (cfg *AgentConfig) validate() error {
	if cfg.Storage.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.HTTPAddress == "" {
		return ErrInvalidAdapterConfigs
	}

	if cfg.UserID <= 0 || cfg.Secret == "" {
		return ErrInvalidAgentConfigs
	}

	return nil
}
