// Package audit provides the change-tracking engine and the audit trail for
// OpsDesk. Every mutation to an event request is diffed field-by-field
// against the previous snapshot, summarized into a human-readable sentence,
// and persisted as an immutable audit_log row. Significant changes (status,
// assignments, contacts, dates, toolkit) additionally produce a compact
// second row so "only the important history" queries never need to re-parse
// full payloads.
//
// The diff engine (compare.go, format.go, changes.go, summary.go) is pure and
// entity-agnostic: field dictionaries, ignored keys, and significance
// keywords are configuration passed in at construction, so other entity
// types can run their own diff engines without cross-contamination.
package audit

import (
	"encoding/json"
	"time"
)

// --- Action Constants ---

const (
	// ActionCreate is logged when a record is created.
	ActionCreate = "CREATE"

	// ActionUpdate is logged for generic record updates.
	ActionUpdate = "UPDATE"

	// ActionDelete is logged when a record is deleted.
	ActionDelete = "DELETE"

	// changeActionSuffix and significantActionSuffix are appended to an
	// entity label (e.g. "EVENT_REQUEST") to form the two diff-audit actions.
	changeActionSuffix      = "_CHANGE"
	significantActionSuffix = "_SIGNIFICANT_CHANGE"
)

// metadataKey is the private key under which ChangeMetadata is embedded into
// the new-state snapshot before persistence. Never diffed (see defaults in
// changes.go).
const metadataKey = "_changeMetadata"

// Snapshot is the in-memory representation of an entity's state at a point
// in time. The engine only ever reads snapshots it is handed; it never
// mutates them.
type Snapshot = map[string]any

// Entry is a single append-only audit log row. OldData/NewData hold
// serialized JSON snapshots, not structured columns -- readers must parse
// them defensively (see ParsePayload).
type Entry struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	TableName string    `json:"tableName"`
	RecordID  string    `json:"recordId"`
	OldData   *string   `json:"oldData"`
	NewData   *string   `json:"newData"`
	UserID    *string   `json:"userId"`
	IPAddress *string   `json:"ipAddress"`
	UserAgent *string   `json:"userAgent"`
	SessionID *string   `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
}

// Actor identifies who performed a mutation and from where. Captured by the
// actor middleware and threaded through every recorded change.
type Actor struct {
	UserID    string `json:"userId,omitempty"`
	IPAddress string `json:"ipAddress,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// FieldChange describes one field that differs between two snapshots.
type FieldChange struct {
	// Field is the raw snapshot key (e.g. "scheduledEventDate").
	Field string `json:"field"`

	// FieldName is the human-friendly display name (e.g. "Scheduled Event
	// Date"). Falls back to the raw key when no dictionary entry exists.
	FieldName string `json:"fieldName"`

	OldValue any `json:"oldValue"`
	NewValue any `json:"newValue"`

	// Description is a one-line, display-ready sentence for this change.
	Description string `json:"description"`
}

// ChangeMetadata is the envelope embedded into the new-state snapshot before
// it is serialized into an audit row. It is transient -- never a standalone
// table.
type ChangeMetadata struct {
	Changes            []FieldChange  `json:"changes"`
	Summary            string         `json:"summary"`
	TotalChanges       int            `json:"totalChanges"`
	SignificantChanges []string       `json:"significantChanges"`
	ChangeContext      string         `json:"changeContext,omitempty"`
	AdditionalContext  map[string]any `json:"additionalContext,omitempty"`
	ChangeTimestamp    time.Time      `json:"changeTimestamp"`
	ChangedBy          string         `json:"changedBy,omitempty"`
}

// maxRawPayloadPreview caps how much of a corrupt payload is echoed back to
// callers when historical JSON fails to parse.
const maxRawPayloadPreview = 200

// ParsePayload decodes a stored OldData/NewData payload for display. A
// pre-existing row with corrupt JSON must never break a list view, so on
// failure it returns a sentinel map carrying a truncated copy of the raw
// text instead of an error.
func ParsePayload(raw string) map[string]any {
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		preview := raw
		if len(preview) > maxRawPayloadPreview {
			preview = preview[:maxRawPayloadPreview]
		}
		return map[string]any{
			"_parseError": "Malformed JSON",
			"_raw":        preview,
		}
	}
	return payload
}
