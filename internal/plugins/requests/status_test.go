package requests

import (
	"errors"
	"testing"
	"time"

	"github.com/sandwichproject/opsdesk/internal/apperror"
)

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusNew, StatusInProcess, StatusScheduled, StatusCompleted, StatusDeclined} {
		if !ValidStatus(s) {
			t.Errorf("%s should be valid", s)
		}
	}
	// The virtual deleted status is never storable.
	if ValidStatus(StatusDeleted) {
		t.Error("deleted must not be a storable status")
	}
	if ValidStatus("archived") {
		t.Error("unknown statuses must be rejected")
	}
	if ValidStatus("") {
		t.Error("empty status must be rejected")
	}
}

func TestTransition_InvalidLeavesRequestUntouched(t *testing.T) {
	req := &EventRequest{Status: StatusNew}
	err := Transition(req, "archived")

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 422 {
		t.Fatalf("expected validation error, got %v", err)
	}
	if req.Status != StatusNew {
		t.Errorf("failed transition must not change status, got %s", req.Status)
	}
}

func TestTransition_CompletedForcesConfirmation(t *testing.T) {
	req := &EventRequest{Status: StatusScheduled, IsConfirmed: false}
	if err := Transition(req, StatusCompleted); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", req.Status)
	}
	if !req.IsConfirmed {
		t.Error("completing must force confirmation")
	}
}

func TestTransition_AnyKnownTargetFromAnyState(t *testing.T) {
	// Staff back-fill historical events, so e.g. completed -> new is legal.
	req := &EventRequest{Status: StatusCompleted, IsConfirmed: true}
	if err := Transition(req, StatusNew); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Status != StatusNew {
		t.Errorf("expected new, got %s", req.Status)
	}
	// Moving away from completed does not unwind confirmation.
	if !req.IsConfirmed {
		t.Error("leaving completed must not reset confirmation")
	}
}

func TestTransition_RetainsDataAcrossStatuses(t *testing.T) {
	desired := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	req := &EventRequest{Status: StatusScheduled, DesiredEventDate: &desired}
	if err := Transition(req, StatusDeclined); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.DesiredEventDate == nil {
		t.Error("transitions must never drop previously entered data")
	}
}

func TestEffectiveEventDate_ScheduledSupersedesDesired(t *testing.T) {
	desired := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	scheduled := time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC)

	req := &EventRequest{DesiredEventDate: &desired}
	if got := req.EffectiveEventDate(); got == nil || !got.Equal(desired) {
		t.Errorf("expected desired date, got %v", got)
	}

	req.ScheduledEventDate = &scheduled
	if got := req.EffectiveEventDate(); got == nil || !got.Equal(scheduled) {
		t.Errorf("scheduled date must supersede desired, got %v", got)
	}

	empty := &EventRequest{}
	if got := empty.EffectiveEventDate(); got != nil {
		t.Errorf("expected nil for unscheduled request, got %v", got)
	}
}

func TestDeriveReschedule(t *testing.T) {
	scheduled := time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC)
	tsp := "u9"
	src := &EventRequest{
		ID:                 41,
		OrganizationName:   "Food Bank",
		Email:              strPtr("events@foodbank.org"),
		Status:             StatusCompleted,
		IsConfirmed:        true,
		ScheduledEventDate: &scheduled,
		AssignedDriverIDs:  []string{"u1", "u2"},
		TSPContact:         &tsp,
		Recipients:         []RecipientRef{{Type: RecipientHost, Value: "12"}},
		ToolkitSent:        true,
		Notes:              strPtr("great event"),
	}

	now := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	derived := DeriveReschedule(src, now)

	if derived.ID != 0 {
		t.Error("derived request must be a new record")
	}
	if derived.Status != StatusNew {
		t.Errorf("derived request starts at new, got %s", derived.Status)
	}
	if derived.OrganizationName != "Food Bank" || derived.Email == nil {
		t.Error("organization and contact data must carry over")
	}
	if derived.TSPContact == nil || *derived.TSPContact != "u9" {
		t.Error("staff liaison must carry over")
	}
	if len(derived.Recipients) != 1 {
		t.Error("recipients must carry over")
	}
	if derived.ScheduledEventDate != nil || len(derived.AssignedDriverIDs) != 0 ||
		derived.ToolkitSent || derived.IsConfirmed {
		t.Error("schedule, assignments, and progress flags must not carry over")
	}

	// The source is untouched.
	if src.Status != StatusCompleted || src.ScheduledEventDate == nil {
		t.Error("rescheduling must never mutate the completed request")
	}

	// Copied slices are independent.
	derived.Recipients[0].Value = "99"
	if src.Recipients[0].Value != "12" {
		t.Error("derived recipients must not share backing array with the source")
	}
}

func TestAssignTSPContact(t *testing.T) {
	now := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)

	req := &EventRequest{}
	if err := AssignTSPContact(req, "u5", "", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.TSPContact == nil || *req.TSPContact != "u5" {
		t.Error("expected user contact set")
	}
	if req.TSPContactAssignedDate == nil || !req.TSPContactAssignedDate.Equal(now) {
		t.Error("expected assignment stamped")
	}

	// Switching to a custom name clears the user reference.
	if err := AssignTSPContact(req, "", "Pat from Rotary", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.TSPContact != nil {
		t.Error("custom contact must clear the user reference")
	}
	if req.CustomTSPContact == nil || *req.CustomTSPContact != "Pat from Rotary" {
		t.Error("expected custom contact set")
	}
}

func TestAssignTSPContact_MutualExclusion(t *testing.T) {
	now := time.Now()

	err := AssignTSPContact(&EventRequest{}, "u5", "Pat", now)
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != 422 {
		t.Errorf("both set: expected validation error, got %v", err)
	}

	err = AssignTSPContact(&EventRequest{}, "", "", now)
	if !errors.As(err, &appErr) || appErr.Code != 422 {
		t.Errorf("neither set: expected validation error, got %v", err)
	}
}

func strPtr(s string) *string { return &s }
