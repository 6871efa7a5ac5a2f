package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// contextBlocklist lists change-context keys that are always redundant with
// the snapshot itself and therefore stripped from the stored additional
// context. Compared lowercased.
var contextBlocklist = []string{
	"email",
	"phone",
	"firstname",
	"lastname",
	"organizationname",
	"status",
}

// RecordResult reports the outcome of an audit recording attempt. Audit
// failure never propagates as an error: callers may inspect the result for
// observability but are free to ignore it.
type RecordResult struct {
	OK     bool
	Reason string
}

func recorded() RecordResult               { return RecordResult{OK: true} }
func recordFailed(reason string) RecordResult { return RecordResult{Reason: reason} }

// RecorderConfig configures a Recorder for one entity type.
type RecorderConfig struct {
	// TableName is stored on every audit row (e.g. "event_requests").
	TableName string

	// EntityLabel prefixes the diff-audit actions (e.g. "EVENT_REQUEST"
	// yields EVENT_REQUEST_CHANGE / EVENT_REQUEST_SIGNIFICANT_CHANGE).
	EntityLabel string

	// Diff configures the underlying diff engine.
	Diff Config
}

// Recorder orchestrates the diff engine and persists audit rows for one
// entity type. Every mutation produces a full-change row; mutations with
// significant changes produce a second compact row.
//
// The recorder swallows its own failures. A broken audit pipeline must
// never fail or roll back the business mutation that triggered it.
type Recorder struct {
	repo       Repository
	differ     *Differ
	classifier *Classifier

	tableName   string
	entityLabel string

	// now is swappable for tests.
	now func() time.Time
}

// NewRecorder creates a Recorder writing through the given repository.
func NewRecorder(repo Repository, cfg RecorderConfig) *Recorder {
	return &Recorder{
		repo:        repo,
		differ:      NewDiffer(cfg.Diff),
		classifier:  NewClassifier(cfg.Diff.SignificantKeywords),
		tableName:   cfg.TableName,
		entityLabel: cfg.EntityLabel,
		now:         time.Now,
	}
}

// Differ exposes the recorder's diff engine so callers can reuse the same
// field dictionary for display purposes.
func (r *Recorder) Differ() *Differ { return r.differ }

// RecordChange diffs the two snapshots and persists the audit trail for the
// mutation. It never returns an error and never panics out: any failure is
// logged and reported only through the result.
func (r *Recorder) RecordChange(ctx context.Context, recordID string, oldSnap, newSnap Snapshot, actor Actor, changeContext map[string]any) (result RecordResult) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("audit recording panicked",
				slog.String("table", r.tableName),
				slog.String("record_id", recordID),
				slog.Any("panic", rec),
			)
			result = recordFailed(fmt.Sprintf("panic: %v", rec))
		}
	}()

	changes := r.differ.Identify(oldSnap, newSnap)
	summary := Summarize(changes, changeContext)
	significant := r.classifier.Classify(changes)

	meta := ChangeMetadata{
		Changes:            changes,
		Summary:            summary,
		TotalChanges:       len(changes),
		SignificantChanges: significant,
		ChangeContext:      OperationTag(changeContext),
		AdditionalContext:  residualContext(changeContext, changes),
		ChangeTimestamp:    r.now().UTC(),
		ChangedBy:          actor.UserID,
	}

	// Embed the metadata into a clone of the new snapshot. The original is
	// caller-owned and must not grow audit bookkeeping.
	enriched := make(Snapshot, len(newSnap)+1)
	for k, v := range newSnap {
		enriched[k] = v
	}
	enriched[metadataKey] = meta

	oldJSON, err := marshalPayload(oldSnap)
	if err != nil {
		slog.Error("audit: serializing old snapshot",
			slog.String("record_id", recordID), slog.Any("error", err))
		return recordFailed("serializing old snapshot: " + err.Error())
	}
	newJSON, err := marshalPayload(enriched)
	if err != nil {
		slog.Error("audit: serializing new snapshot",
			slog.String("record_id", recordID), slog.Any("error", err))
		return recordFailed("serializing new snapshot: " + err.Error())
	}

	entry := r.newEntry(r.entityLabel+changeActionSuffix, recordID, oldJSON, newJSON, actor)
	if err := r.repo.Insert(ctx, entry); err != nil {
		slog.Error("audit: inserting change row",
			slog.String("record_id", recordID), slog.Any("error", err))
		return recordFailed("inserting change row: " + err.Error())
	}

	if len(significant) > 0 {
		compact := Snapshot{
			"summary":            summary,
			"significantChanges": significant,
			"totalChanges":       len(changes),
			"changeTimestamp":    meta.ChangeTimestamp,
			"changedBy":          actor.UserID,
		}
		compactJSON, err := marshalPayload(compact)
		if err == nil {
			sigEntry := r.newEntry(r.entityLabel+significantActionSuffix, recordID, nil, compactJSON, actor)
			if err := r.repo.Insert(ctx, sigEntry); err != nil {
				// The full row already landed; log and move on.
				slog.Error("audit: inserting significant-change row",
					slog.String("record_id", recordID), slog.Any("error", err))
			}
		}
	}

	return recorded()
}

// RecordCreation audits a freshly created record. Diffing against an empty
// snapshot turns every populated field into a "set to" change.
func (r *Recorder) RecordCreation(ctx context.Context, recordID string, newSnap Snapshot, actor Actor) RecordResult {
	return r.RecordChange(ctx, recordID, Snapshot{}, newSnap, actor, nil)
}

// RecordDeletion audits a delete as a pseudo-transition to the virtual
// "deleted" status. Deletions thereby appear in status-change history with
// the same shape as any other status change.
func (r *Recorder) RecordDeletion(ctx context.Context, recordID string, oldSnap Snapshot, actor Actor) RecordResult {
	tombstone := make(Snapshot, len(oldSnap))
	for k, v := range oldSnap {
		tombstone[k] = v
	}
	tombstone["status"] = "deleted"
	return r.RecordChange(ctx, recordID, oldSnap, tombstone, actor, nil)
}

// newEntry assembles an audit row with actor metadata. Empty actor fields
// are stored as NULL rather than empty strings.
func (r *Recorder) newEntry(action, recordID string, oldData, newData *string, actor Actor) *Entry {
	return &Entry{
		Action:    action,
		TableName: r.tableName,
		RecordID:  recordID,
		OldData:   oldData,
		NewData:   newData,
		UserID:    nullable(actor.UserID),
		IPAddress: nullable(actor.IPAddress),
		UserAgent: nullable(actor.UserAgent),
		SessionID: nullable(actor.SessionID),
		Timestamp: r.now().UTC(),
	}
}

// residualContext strips a caller-supplied change context down to what is
// not already captured elsewhere: operation tags live in ChangeContext,
// keys matching a changed field would duplicate the change record, and the
// blocklist covers facts always present in the snapshot.
func residualContext(changeContext map[string]any, changes []FieldChange) map[string]any {
	if len(changeContext) == 0 {
		return nil
	}

	changed := ChangedFieldSet(changes)
	blocked := make(map[string]bool, len(contextBlocklist))
	for _, k := range contextBlocklist {
		blocked[k] = true
	}

	residual := make(map[string]any)
	for k, v := range changeContext {
		lower := strings.ToLower(k)
		if lower == "actiontype" || lower == "operation" {
			continue
		}
		if changed[lower] || blocked[lower] {
			continue
		}
		residual[k] = v
	}

	if len(residual) == 0 {
		return nil
	}
	return residual
}

// marshalPayload serializes a snapshot to JSON text. Nil snapshots become
// SQL NULL rather than the string "null".
func marshalPayload(snap Snapshot) (*string, error) {
	if snap == nil {
		return nil, nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
