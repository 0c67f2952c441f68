package models

// EngineStatus is the sync engine's cycle state. Transitions follow
// idle -> syncing -> {idle, error, offline}.
type EngineStatus string

const (
	EngineIdle    EngineStatus = "idle"
	EngineSyncing EngineStatus = "syncing"
	EngineOffline EngineStatus = "offline"
	EngineError   EngineStatus = "error"
)

// SyncState is the process-wide, ephemeral view of the sync engine.
// It is rebuilt on every agent start and never persisted.
type SyncState struct {
	// IsOnline reflects the last observed connectivity signal. While
	// false, sync cycles short-circuit to offline without attempting
	// network calls.
	IsOnline bool `json:"is_online"`

	// IsVisible reflects the last observed foreground/visibility
	// signal from the lifecycle monitor.
	IsVisible bool `json:"is_visible"`

	Status EngineStatus `json:"status"`

	// FlushAgentActive reports whether a background flush agent is
	// registered as the fallback delivery path.
	FlushAgentActive bool `json:"flush_agent_active"`
}
