package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockDB(t *testing.T) (*repository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("creating sqlmock: %v", err)
	}
	return &repository{db: db}, mock, func() { db.Close() }
}

var entryColumns = []string{
	"id", "action", "table_name", "record_id", "old_data", "new_data",
	"user_id", "ip_address", "user_agent", "session_id", "created_at",
}

func TestRepositoryInsert(t *testing.T) {
	repo, mock, cleanup := newMockDB(t)
	defer cleanup()

	newData := `{"status":"new"}`
	userID := "u1"

	mock.ExpectExec("INSERT INTO audit_log").
		WithArgs("EVENT_REQUEST_CHANGE", "event_requests", "42",
			nil, newData, userID, nil, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	entry := &Entry{
		Action:    "EVENT_REQUEST_CHANGE",
		TableName: "event_requests",
		RecordID:  "42",
		NewData:   &newData,
		UserID:    &userID,
	}
	if err := repo.Insert(context.Background(), entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.ID != 7 {
		t.Errorf("expected generated id 7, got %d", entry.ID)
	}
	if entry.Timestamp.IsZero() {
		t.Error("expected zero timestamp to be stamped")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRepositoryList_Filtered(t *testing.T) {
	repo, mock, cleanup := newMockDB(t)
	defer cleanup()

	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM audit_log WHERE table_name = \? AND record_id = \?`).
		WithArgs("event_requests", "42").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	mock.ExpectQuery(`SELECT id, action, table_name, record_id, old_data, new_data`).
		WithArgs("event_requests", "42", 50, 0).
		WillReturnRows(sqlmock.NewRows(entryColumns).
			AddRow(2, "EVENT_REQUEST_CHANGE", "event_requests", "42", nil, `{}`, nil, nil, nil, nil, now).
			AddRow(1, "EVENT_REQUEST_CHANGE", "event_requests", "42", nil, `{}`, nil, nil, nil, nil, now.Add(-time.Hour)))

	entries, total, err := repo.List(context.Background(),
		Filter{TableName: "event_requests", RecordID: "42"}, 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 {
		t.Errorf("expected total 2, got %d", total)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != 2 {
		t.Errorf("expected newest entry first, got id %d", entries[0].ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRepositoryFindByID_Missing(t *testing.T) {
	repo, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT id, action, table_name, record_id`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(entryColumns))

	entry, err := repo.FindByID(context.Background(), 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry != nil {
		t.Errorf("expected nil for missing row, got %+v", entry)
	}
}

func TestBuildFilter(t *testing.T) {
	where, args := buildFilter(Filter{})
	if where != "" || args != nil {
		t.Errorf("empty filter should produce no clause, got %q %v", where, args)
	}

	where, args = buildFilter(Filter{TableName: "event_requests", Action: "X"})
	if where != " WHERE table_name = ? AND action = ?" {
		t.Errorf("unexpected clause: %q", where)
	}
	if len(args) != 2 {
		t.Errorf("expected 2 args, got %v", args)
	}
}
