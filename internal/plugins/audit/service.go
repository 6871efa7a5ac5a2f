package audit

import (
	"context"
	"fmt"

	"github.com/sandwichproject/opsdesk/internal/apperror"
)

// perPage is the number of audit entries shown per page in history views.
const perPage = 50

// maxRecordHistoryEntries caps the history returned for a single record to
// prevent unbounded result sets.
const maxRecordHistoryEntries = 100

// Service handles the read side of the audit log. Writing goes through the
// Recorder; this service only queries.
type Service interface {
	// History returns a paginated, newest-first slice of the audit log
	// matching the filter, plus the total match count.
	History(ctx context.Context, f Filter, page int) ([]Entry, int, error)

	// RecordHistory returns the recent audit trail for one record. When
	// significantOnly is set, only the compact significant-change rows are
	// returned.
	RecordHistory(ctx context.Context, tableName, recordID, entityLabel string, significantOnly bool) ([]Entry, error)

	// Detail returns a single audit row with its payloads parsed for
	// display. Corrupt stored JSON yields a sentinel payload, never an error.
	Detail(ctx context.Context, id int64) (*EntryDetail, error)
}

// EntryDetail is an audit row with its JSON payloads decoded for display.
type EntryDetail struct {
	Entry
	OldPayload map[string]any `json:"oldPayload,omitempty"`
	NewPayload map[string]any `json:"newPayload,omitempty"`
}

type service struct {
	repo Repository
}

// NewService creates a new audit query service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// History returns a page of the audit log. Pages are 1-indexed; invalid
// page numbers are clamped to 1.
func (s *service) History(ctx context.Context, f Filter, page int) ([]Entry, int, error) {
	if page < 1 {
		page = 1
	}

	offset := (page - 1) * perPage
	entries, total, err := s.repo.List(ctx, f, perPage, offset)
	if err != nil {
		return nil, 0, apperror.NewInternal(fmt.Errorf("listing audit history: %w", err))
	}

	return entries, total, nil
}

// RecordHistory returns the recent audit trail for one record.
func (s *service) RecordHistory(ctx context.Context, tableName, recordID, entityLabel string, significantOnly bool) ([]Entry, error) {
	if recordID == "" {
		return nil, apperror.NewBadRequest("record ID is required")
	}

	f := Filter{TableName: tableName, RecordID: recordID}
	if significantOnly {
		f.Action = entityLabel + significantActionSuffix
	}

	entries, _, err := s.repo.List(ctx, f, maxRecordHistoryEntries, 0)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing record history: %w", err))
	}

	return entries, nil
}

// Detail returns one audit row with parsed payloads.
func (s *service) Detail(ctx context.Context, id int64) (*EntryDetail, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("finding audit entry: %w", err))
	}
	if entry == nil {
		return nil, apperror.NewNotFound("audit entry not found")
	}

	detail := &EntryDetail{Entry: *entry}
	if entry.OldData != nil {
		detail.OldPayload = ParsePayload(*entry.OldData)
	}
	if entry.NewData != nil {
		detail.NewPayload = ParsePayload(*entry.NewData)
	}

	return detail, nil
}
