package requests

import (
	"fmt"
	"time"

	"github.com/sandwichproject/opsdesk/internal/apperror"
)

// validStatuses is the closed set of storable statuses. StatusDeleted is
// deliberately absent: it only ever appears in audit history.
var validStatuses = map[string]bool{
	StatusNew:       true,
	StatusInProcess: true,
	StatusScheduled: true,
	StatusCompleted: true,
	StatusDeclined:  true,
}

// ValidStatus reports whether s is a storable status value.
func ValidStatus(s string) bool {
	return validStatuses[s]
}

// Transition applies a status change to the request in place. Any known
// target status is permitted from any state -- staff back-fill historical
// events, so there is no workflow guard -- but an unknown status is rejected
// before anything is touched.
//
// Status-linked side effects:
//   - completed forces IsConfirmed true, regardless of what the caller
//     supplied alongside the transition
//
// No transition drops previously-entered data; fields not displayed for the
// new status (e.g. the desired date once scheduled) are retained.
func Transition(req *EventRequest, target string) error {
	if !ValidStatus(target) {
		return apperror.NewValidation(fmt.Sprintf("invalid status %q: must be one of new, in_process, scheduled, completed, declined", target))
	}

	req.Status = target

	if target == StatusCompleted {
		req.IsConfirmed = true
	}

	return nil
}

// DeriveReschedule builds a fresh request from a completed one. Rescheduling
// never mutates history: the completed request stays as-is and a new derived
// request starts the lifecycle over, carrying the organization and contact
// data but no schedule, assignments, or counts.
func DeriveReschedule(src *EventRequest, now time.Time) *EventRequest {
	return &EventRequest{
		OrganizationName: src.OrganizationName,
		Email:            src.Email,
		Phone:            src.Phone,
		Status:           StatusNew,
		Recipients:       append([]RecipientRef(nil), src.Recipients...),
		TSPContact:       src.TSPContact,
		CustomTSPContact: src.CustomTSPContact,
		Notes:            src.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// AssignTSPContact sets the staff liaison. The real-user reference and the
// free-text name are mutually exclusive: setting one clears the other.
// Either way the assignment time is stamped.
func AssignTSPContact(req *EventRequest, userID, customName string, now time.Time) error {
	if userID != "" && customName != "" {
		return apperror.NewValidation("tspContact and customTspContact are mutually exclusive")
	}
	if userID == "" && customName == "" {
		return apperror.NewValidation("either tspContact or customTspContact is required")
	}

	if userID != "" {
		req.TSPContact = &userID
		req.CustomTSPContact = nil
	} else {
		req.CustomTSPContact = &customName
		req.TSPContact = nil
	}
	req.TSPContactAssignedDate = &now

	return nil
}
