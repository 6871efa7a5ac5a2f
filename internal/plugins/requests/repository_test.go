package requests

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockDB(t *testing.T) (*requestRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("creating sqlmock: %v", err)
	}
	return &requestRepository{db: db}, mock, func() { db.Close() }
}

var requestColumnList = []string{
	"id", "organization_name", "email", "phone", "status", "is_confirmed",
	"desired_event_date", "scheduled_event_date",
	"drivers_needed", "speakers_needed", "volunteers_needed",
	"assigned_driver_ids", "assigned_van_driver_id", "speaker_details", "assigned_volunteer_ids",
	"tsp_contact", "custom_tsp_contact", "tsp_contact_assigned_date",
	"recipients", "toolkit_sent", "toolkit_sent_date",
	"social_media_requested", "social_media_requested_date",
	"social_media_completed", "social_media_completed_date", "social_media_notes",
	"estimated_sandwich_count", "actual_sandwich_count", "sandwich_breakdown",
	"notes", "created_at", "updated_at",
}

func fullRow(id int64, now time.Time) []driverValue {
	return []driverValue{
		id, "Food Bank", "events@foodbank.org", nil, "scheduled", true,
		nil, now,
		2, 1, 0,
		"u1,u2", "u3", `{"u4":{"topic":"history"}}`, "",
		nil, nil, nil,
		"host:12,7", false, nil,
		false, nil,
		false, nil, nil,
		90, nil, `[{"type":"turkey","quantity":90}]`,
		nil, now, now,
	}
}

type driverValue = driver.Value

func addRow(rows *sqlmock.Rows, values []driverValue) *sqlmock.Rows {
	return rows.AddRow(values...)
}

func TestRepositoryFindByID_DecodesLegacyColumns(t *testing.T) {
	repo, mock, cleanup := newMockDB(t)
	defer cleanup()

	now := time.Now().UTC()
	rows := addRow(sqlmock.NewRows(requestColumnList), fullRow(5, now))

	mock.ExpectQuery("SELECT (.+) FROM event_requests WHERE id = ?").
		WithArgs(int64(5)).
		WillReturnRows(rows)

	req, err := repo.FindByID(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req == nil {
		t.Fatal("expected request")
	}

	if len(req.AssignedDriverIDs) != 2 || req.AssignedDriverIDs[0] != "u1" {
		t.Errorf("expected decoded driver ids, got %v", req.AssignedDriverIDs)
	}
	if req.AssignedVolunteerIDs == nil || len(req.AssignedVolunteerIDs) != 0 {
		t.Errorf("expected empty non-nil volunteer list, got %v", req.AssignedVolunteerIDs)
	}
	if len(req.Recipients) != 2 {
		t.Fatalf("expected 2 recipients, got %v", req.Recipients)
	}
	if req.Recipients[0].Type != RecipientHost || req.Recipients[0].Value != "12" {
		t.Errorf("unexpected first recipient: %+v", req.Recipients[0])
	}
	// Bare legacy numeric id defaults to the recipient type.
	if req.Recipients[1].Type != RecipientRecipient || req.Recipients[1].Value != "7" {
		t.Errorf("unexpected second recipient: %+v", req.Recipients[1])
	}
	if req.SpeakerDetails["u4"].Topic != "history" {
		t.Errorf("expected decoded speaker details, got %v", req.SpeakerDetails)
	}
	if len(req.SandwichBreakdown) != 1 || req.SandwichBreakdown[0].Quantity != 90 {
		t.Errorf("expected decoded breakdown, got %v", req.SandwichBreakdown)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRepositoryFindByID_Missing(t *testing.T) {
	repo, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM event_requests WHERE id = ?").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(requestColumnList))

	req, err := repo.FindByID(context.Background(), 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req != nil {
		t.Errorf("expected nil for missing row, got %+v", req)
	}
}

func TestRepositoryFindByID_MalformedRecipientSkipped(t *testing.T) {
	repo, mock, cleanup := newMockDB(t)
	defer cleanup()

	now := time.Now().UTC()
	values := fullRow(5, now)
	values[18] = "host:12,garbage-ref" // recipients column

	mock.ExpectQuery("SELECT (.+) FROM event_requests WHERE id = ?").
		WithArgs(int64(5)).
		WillReturnRows(addRow(sqlmock.NewRows(requestColumnList), values))

	req, err := repo.FindByID(context.Background(), 5)
	if err != nil {
		t.Fatalf("a malformed legacy reference must not hide the row: %v", err)
	}
	if len(req.Recipients) != 1 {
		t.Errorf("expected the malformed reference dropped, got %v", req.Recipients)
	}
}

func TestRepositoryCreate_EncodesColumns(t *testing.T) {
	repo, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO event_requests").
		WillReturnResult(sqlmock.NewResult(42, 1))

	req := &EventRequest{
		OrganizationName:     "Food Bank",
		Status:               StatusNew,
		AssignedDriverIDs:    []string{"u1", "u2"},
		AssignedVolunteerIDs: []string{},
		Recipients:           []RecipientRef{{Type: RecipientHost, Value: "12"}},
	}
	if err := repo.Create(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.ID != 42 {
		t.Errorf("expected generated id, got %d", req.ID)
	}
	if req.CreatedAt.IsZero() || req.UpdatedAt.IsZero() {
		t.Error("expected timestamps stamped")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRepositoryList_StatusFilter(t *testing.T) {
	repo, mock, cleanup := newMockDB(t)
	defer cleanup()

	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM event_requests WHERE status = \?`).
		WithArgs("scheduled").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery("SELECT (.+) FROM event_requests WHERE status = ?").
		WithArgs("scheduled", 25, 0).
		WillReturnRows(addRow(sqlmock.NewRows(requestColumnList), fullRow(5, now)))

	list, total, err := repo.List(context.Background(), "scheduled", 25, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Errorf("expected 1 result, got total=%d len=%d", total, len(list))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRepositoryDelete(t *testing.T) {
	repo, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM event_requests WHERE id = ?").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestEncodeColumns(t *testing.T) {
	req := &EventRequest{
		AssignedDriverIDs:    []string{"u1", "u2"},
		AssignedVolunteerIDs: []string{"custom:Pat"},
		Recipients: []RecipientRef{
			{Type: RecipientHost, Value: "12"},
			{Type: RecipientCustom, Value: "Local shelter"},
		},
		SpeakerDetails:    map[string]SpeakerDetail{"u4": {Topic: "history"}},
		SandwichBreakdown: []SandwichCount{{Type: "turkey", Quantity: 90}},
	}

	cols, err := encodeColumns(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cols.driverIDs != "u1,u2" {
		t.Errorf("unexpected driver encoding: %q", cols.driverIDs)
	}
	if cols.volunteerIDs != "custom:Pat" {
		t.Errorf("unexpected volunteer encoding: %q", cols.volunteerIDs)
	}
	if cols.recipients != "host:12,custom:Local shelter" {
		t.Errorf("unexpected recipient encoding: %q", cols.recipients)
	}
	if cols.speakerDetails == nil || cols.breakdown == nil {
		t.Fatal("expected JSON detail columns")
	}

	// Empty structured fields become empty strings / NULLs.
	empty := &EventRequest{}
	cols, err = encodeColumns(empty)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cols.driverIDs != "" || cols.speakerDetails != nil || cols.breakdown != nil {
		t.Errorf("unexpected empty encodings: %+v", cols)
	}
}
