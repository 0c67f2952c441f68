package models

// TriggerKind is a lifecycle or connectivity transition observed by the
// lifecycle monitor. Each kind maps to its own debounce and sync path.
type TriggerKind string

const (
	// TriggerHide fires on page hide; emergency path, zero debounce.
	TriggerHide TriggerKind = "hide"

	// TriggerUnload fires on page unload; emergency path, zero debounce.
	TriggerUnload TriggerKind = "unload"

	// TriggerVisibilityLost fires when the tab goes background; short
	// debounce absorbs tab-switch flicker.
	TriggerVisibilityLost TriggerKind = "visibility-lost"

	// TriggerVisibilityGained fires when the tab returns to the
	// foreground.
	TriggerVisibilityGained TriggerKind = "visibility-gained"

	// TriggerOnline fires on a network transition to online; debounced
	// to coalesce flapping.
	TriggerOnline TriggerKind = "online"

	// TriggerOffline fires on a network transition to offline.
	TriggerOffline TriggerKind = "offline"

	// TriggerManual fires on an explicit user request.
	TriggerManual TriggerKind = "manual"
)
