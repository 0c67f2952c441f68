package models

import "time"

// EventKind tags the concrete variant carried by an [Event]. Consumers
// must treat unknown kinds as ignorable, never fatal.
type EventKind string

const (
	EventSyncSucceeded          EventKind = "sync-success"
	EventSyncFailed             EventKind = "sync-failed"
	EventFlushRegistered        EventKind = "background-sync-registered"
	EventFlushRegisterFailed    EventKind = "background-sync-registration-failed"
	EventEmergencySyncSucceeded EventKind = "emergency-sync-success"
	EventEmergencySyncFailed    EventKind = "emergency-sync-failed"
	EventReconcileAlert         EventKind = "reconcile-alert"
)

// Event is a notification published on the message bus between the
// sync engine, the flush agent, and whatever front end is listening.
// Each variant carries only the fields relevant to its kind.
type Event interface {
	Kind() EventKind
	OccurredAt() time.Time
}

// SyncSucceeded reports a single pending operation delivered and
// acknowledged by the remote authority.
type SyncSucceeded struct {
	RecordLocalID string    `json:"record_local_id"`
	RecordID      string    `json:"record_id"`
	Deduplicated  bool      `json:"deduplicated"`
	At            time.Time `json:"timestamp"`
}

func (SyncSucceeded) Kind() EventKind { return EventSyncSucceeded }
func (e SyncSucceeded) OccurredAt() time.Time { return e.At }

// SyncFailed reports a delivery failure. Permanent distinguishes
// failures that will not be retried automatically from transient ones
// that exhausted their backoff budget for this cycle.
type SyncFailed struct {
	RecordLocalID string    `json:"record_local_id"`
	Reason        string    `json:"reason"`
	Permanent     bool      `json:"permanent"`
	At            time.Time `json:"timestamp"`
}

func (SyncFailed) Kind() EventKind { return EventSyncFailed }
func (e SyncFailed) OccurredAt() time.Time { return e.At }

// FlushRegistered reports that the background flush agent accepted
// responsibility for a named queue.
type FlushRegistered struct {
	Queue string    `json:"queue"`
	At    time.Time `json:"timestamp"`
}

func (FlushRegistered) Kind() EventKind { return EventFlushRegistered }
func (e FlushRegistered) OccurredAt() time.Time { return e.At }

// FlushRegisterFailed reports that the flush agent could not take a
// queue over (e.g. the durable queue table is unreachable).
type FlushRegisterFailed struct {
	Queue  string    `json:"queue"`
	Reason string    `json:"reason"`
	At     time.Time `json:"timestamp"`
}

func (FlushRegisterFailed) Kind() EventKind { return EventFlushRegisterFailed }
func (e FlushRegisterFailed) OccurredAt() time.Time { return e.At }

// EmergencySyncSucceeded reports a completed emergency flush.
type EmergencySyncSucceeded struct {
	Flushed int       `json:"flushed"`
	At      time.Time `json:"timestamp"`
}

func (EmergencySyncSucceeded) Kind() EventKind { return EventEmergencySyncSucceeded }
func (e EmergencySyncSucceeded) OccurredAt() time.Time { return e.At }

// EmergencySyncFailed reports an emergency flush that failed or timed
// out; the remainder stays on the durable queue.
type EmergencySyncFailed struct {
	Remaining int       `json:"remaining"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"timestamp"`
}

func (EmergencySyncFailed) Kind() EventKind { return EventEmergencySyncFailed }
func (e EmergencySyncFailed) OccurredAt() time.Time { return e.At }

// ReconcileAlert is the synthetic high-severity alert emitted when
// reconcile failures for the same user and type cross the escalation
// threshold inside the trailing window. It recommends circuit-breaker
// activation to whoever consumes it.
type ReconcileAlert struct {
	UserID   int64         `json:"user_id"`
	Type     RecordType    `json:"type"`
	Failures int           `json:"failures"`
	Window   time.Duration `json:"window"`
	At       time.Time     `json:"timestamp"`
}

func (ReconcileAlert) Kind() EventKind { return EventReconcileAlert }
func (e ReconcileAlert) OccurredAt() time.Time { return e.At }
