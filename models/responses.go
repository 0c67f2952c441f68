package models

// ReconcileOutcome reports which dedup rule, if any, matched an upsert.
type ReconcileOutcome string

const (
	// OutcomeInserted means no rule matched and a new record was created
	// with version 1.
	OutcomeInserted ReconcileOutcome = "inserted"

	// OutcomeExactMatch means the incoming write was discarded because
	// an identical ciphertext (data+IV+salt+currency) already exists
	// inside the exact-match window.
	OutcomeExactMatch ReconcileOutcome = "exact_match"

	// OutcomeProbableMatch means the ciphertext-length heuristic matched
	// an existing record created close enough in time.
	OutcomeProbableMatch ReconcileOutcome = "probable_match"

	// OutcomeCorrelationMatch means the client correlation key (localId)
	// or the same-batch window matched an existing record.
	OutcomeCorrelationMatch ReconcileOutcome = "correlation_match"
)

// Deduplicated reports whether the outcome discarded the incoming write
// in favor of an existing record.
func (o ReconcileOutcome) Deduplicated() bool {
	return o != OutcomeInserted && o != ""
}

// UpsertResponse is returned by POST /api/records/upsert. Record always
// carries the canonical copy — existing or newly created.
type UpsertResponse struct {
	Record  Record           `json:"record"`
	Outcome ReconcileOutcome `json:"outcome"`
}

// UpdateResponse is returned by PATCH /api/records/update with the
// patched canonical record.
type UpdateResponse struct {
	Record Record `json:"record"`

	// Conflicted reports that the incoming version did not match the
	// stored one and last-write-wins was applied.
	Conflicted bool `json:"conflicted"`
}

// PendingRecordsResponse is returned by GET /api/records/pending. It is
// a diagnostics surface; the sync loop itself reads the local queue.
type PendingRecordsResponse struct {
	Records []Record `json:"records"`
	Length  int      `json:"length"`
}

// EmergencyFlushResponse is returned by POST /api/sync/emergency.
// Applied counts operations processed synchronously (HTTP 200); Queued
// counts operations accepted for asynchronous processing (HTTP 202).
type EmergencyFlushResponse struct {
	Applied int `json:"applied"`
	Queued  int `json:"queued"`
}
