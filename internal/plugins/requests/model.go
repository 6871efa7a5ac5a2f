// Package requests manages event requests -- organizations asking to host a
// sandwich-making or distribution event. A request moves through a simple
// lifecycle (new, in process, scheduled, then completed or declined), carries
// staffing needs and assignments for drivers, speakers, and volunteers, and
// records every mutation to the audit trail via the audit plugin.
//
// This is the core plugin of OpsDesk.
package requests

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status values for an event request. The set is closed: anything else is
// rejected before persistence.
const (
	StatusNew       = "new"
	StatusInProcess = "in_process"
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusDeclined  = "declined"

	// StatusDeleted is virtual: never stored on a request, only synthesized
	// into audit history so deletions read like any other status change.
	StatusDeleted = "deleted"
)

// Recipient reference types. A recipient entry is serialized as
// "<type>:<value>"; a bare legacy numeric id defaults to "recipient".
const (
	RecipientHost      = "host"
	RecipientRecipient = "recipient"
	RecipientCustom    = "custom"
)

// EventRequest is the subject entity: one organization's request for an
// event, with scheduling, staffing, contact, and tracking fields.
type EventRequest struct {
	ID int64 `json:"id"`

	OrganizationName string  `json:"organizationName"`
	Email            *string `json:"email,omitempty"`
	Phone            *string `json:"phone,omitempty"`

	Status      string `json:"status"`
	IsConfirmed bool   `json:"isConfirmed"`

	// DesiredEventDate is what the organization asked for. Once
	// ScheduledEventDate is set it supersedes the desired date for all
	// display and edit purposes; the desired date is retained but no longer
	// shown.
	DesiredEventDate   *time.Time `json:"desiredEventDate,omitempty"`
	ScheduledEventDate *time.Time `json:"scheduledEventDate,omitempty"`

	DriversNeeded    int `json:"driversNeeded"`
	SpeakersNeeded   int `json:"speakersNeeded"`
	VolunteersNeeded int `json:"volunteersNeeded"`

	// AssignedDriverIDs and AssignedVolunteerIDs hold person ids, which may
	// be real user ids or custom free-text entries (see CustomEntry).
	// SpeakerDetails is keyed by person id; the key set doubles as the
	// assigned-speaker set. AssignedVanDriverID is tracked separately from
	// regular drivers and holds at most one person.
	AssignedDriverIDs    []string                 `json:"assignedDriverIds"`
	AssignedVanDriverID  *string                  `json:"assignedVanDriverId,omitempty"`
	SpeakerDetails       map[string]SpeakerDetail `json:"speakerDetails,omitempty"`
	AssignedVolunteerIDs []string                 `json:"assignedVolunteerIds"`

	// TSPContact references a real user; CustomTSPContact is a free-text
	// name. They are mutually exclusive -- setting one clears the other.
	TSPContact             *string    `json:"tspContact,omitempty"`
	CustomTSPContact       *string    `json:"customTspContact,omitempty"`
	TSPContactAssignedDate *time.Time `json:"tspContactAssignedDate,omitempty"`

	Recipients []RecipientRef `json:"recipients,omitempty"`

	ToolkitSent     bool       `json:"toolkitSent"`
	ToolkitSentDate *time.Time `json:"toolkitSentDate,omitempty"`

	SocialMediaRequested     bool       `json:"socialMediaRequested"`
	SocialMediaRequestedDate *time.Time `json:"socialMediaRequestedDate,omitempty"`
	SocialMediaCompleted     bool       `json:"socialMediaCompleted"`
	SocialMediaCompletedDate *time.Time `json:"socialMediaCompletedDate,omitempty"`

	// SocialMediaNotes is free text; an Instagram link travels inside it as
	// an "Instagram: <url>" line rather than a separate column.
	SocialMediaNotes *string `json:"socialMediaNotes,omitempty"`

	EstimatedSandwichCount *int            `json:"estimatedSandwichCount,omitempty"`
	ActualSandwichCount    *int            `json:"actualSandwichCount,omitempty"`
	SandwichBreakdown      []SandwichCount `json:"sandwichBreakdown,omitempty"`

	Notes *string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SpeakerDetail holds per-speaker information for an assigned speaker.
type SpeakerDetail struct {
	Name  string `json:"name,omitempty"`
	Topic string `json:"topic,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// SandwichCount is one line of a typed sandwich breakdown.
type SandwichCount struct {
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
}

// RecipientRef is a typed reference to who receives the sandwiches: a host
// organization, a recipient organization, or a custom free-text entry.
type RecipientRef struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// String renders the stored "<type>:<value>" form.
func (r RecipientRef) String() string {
	return r.Type + ":" + r.Value
}

// ParseRecipientRef decodes a stored recipient reference. Bare legacy
// numeric ids default to the "recipient" type.
func ParseRecipientRef(raw string) (RecipientRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return RecipientRef{}, fmt.Errorf("empty recipient reference")
	}

	if typ, value, ok := strings.Cut(raw, ":"); ok {
		switch typ {
		case RecipientHost, RecipientRecipient, RecipientCustom:
			return RecipientRef{Type: typ, Value: value}, nil
		}
		return RecipientRef{}, fmt.Errorf("unknown recipient type %q", typ)
	}

	if _, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return RecipientRef{Type: RecipientRecipient, Value: raw}, nil
	}
	return RecipientRef{}, fmt.Errorf("malformed recipient reference %q", raw)
}

// EffectiveEventDate returns the date currently authoritative for display:
// the scheduled date once present, otherwise the desired date.
func (e *EventRequest) EffectiveEventDate() *time.Time {
	if e.ScheduledEventDate != nil {
		return e.ScheduledEventDate
	}
	return e.DesiredEventDate
}

// SetEventDate writes to whichever date field is currently authoritative.
// Once a request is scheduled, edits to "the event date" always land on the
// scheduled date; the originally desired date is never overwritten.
func (e *EventRequest) SetEventDate(t time.Time) {
	if e.ScheduledEventDate != nil {
		e.ScheduledEventDate = &t
		return
	}
	e.DesiredEventDate = &t
}

// Snapshot converts the request into the map form consumed by the audit
// diff engine, via a JSON round-trip so snapshot keys always match the wire
// names.
func (e *EventRequest) Snapshot() map[string]any {
	data, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	var snap map[string]any
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil
	}
	return snap
}

// FieldNames is the display dictionary for event request snapshot keys,
// injected into the audit diff engine at wiring time. Keys absent here fall
// back to the raw key.
func FieldNames() map[string]string {
	return map[string]string{
		"organizationName":         "Organization Name",
		"email":                    "Email",
		"phone":                    "Phone",
		"status":                   "Status",
		"isConfirmed":              "Confirmed",
		"desiredEventDate":         "Desired Event Date",
		"scheduledEventDate":       "Scheduled Event Date",
		"driversNeeded":            "Drivers Needed",
		"speakersNeeded":           "Speakers Needed",
		"volunteersNeeded":         "Volunteers Needed",
		"assignedDriverIds":        "Assigned Drivers",
		"assignedVanDriverId":      "Assigned Van Driver",
		"speakerDetails":           "Speakers",
		"assignedVolunteerIds":     "Assigned Volunteers",
		"tspContact":               "TSP Contact",
		"customTspContact":         "Custom TSP Contact",
		"tspContactAssignedDate":   "TSP Contact Assigned Date",
		"recipients":               "Recipients",
		"toolkitSent":              "Toolkit Sent",
		"toolkitSentDate":          "Toolkit Sent Date",
		"socialMediaRequested":     "Social Media Requested",
		"socialMediaRequestedDate": "Social Media Requested Date",
		"socialMediaCompleted":     "Social Media Completed",
		"socialMediaCompletedDate": "Social Media Completed Date",
		"socialMediaNotes":         "Social Media Notes",
		"estimatedSandwichCount":   "Estimated Sandwich Count",
		"actualSandwichCount":      "Actual Sandwich Count",
		"sandwichBreakdown":        "Sandwich Breakdown",
		"notes":                    "Notes",
	}
}

// instagramPrefix marks the Instagram link line embedded in social media
// notes.
const instagramPrefix = "Instagram: "

// InstagramLink extracts the Instagram URL embedded in the social media
// notes, or "" when none is present.
func (e *EventRequest) InstagramLink() string {
	if e.SocialMediaNotes == nil {
		return ""
	}
	for _, line := range strings.Split(*e.SocialMediaNotes, "\n") {
		if url, ok := strings.CutPrefix(strings.TrimSpace(line), instagramPrefix); ok {
			return strings.TrimSpace(url)
		}
	}
	return ""
}

// SetInstagramLink embeds or replaces the Instagram link line in the social
// media notes, preserving all other note content. An empty url removes the
// line.
func (e *EventRequest) SetInstagramLink(url string) {
	var kept []string
	if e.SocialMediaNotes != nil {
		for _, line := range strings.Split(*e.SocialMediaNotes, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), instagramPrefix) {
				continue
			}
			kept = append(kept, line)
		}
	}
	if url != "" {
		kept = append(kept, instagramPrefix+url)
	}

	if len(kept) == 0 {
		e.SocialMediaNotes = nil
		return
	}
	notes := strings.Join(kept, "\n")
	e.SocialMediaNotes = &notes
}

// ValidateSandwichCounts enforces the breakdown-sum invariant: when a typed
// breakdown exists, its quantities must sum to the reported actual count
// (or the estimate when no actual count is recorded yet).
func (e *EventRequest) ValidateSandwichCounts() error {
	if len(e.SandwichBreakdown) == 0 {
		return nil
	}

	sum := 0
	for _, b := range e.SandwichBreakdown {
		if b.Quantity < 0 {
			return fmt.Errorf("sandwich breakdown quantity for %q must be non-negative", b.Type)
		}
		sum += b.Quantity
	}

	total := e.ActualSandwichCount
	if total == nil {
		total = e.EstimatedSandwichCount
	}
	if total == nil {
		return fmt.Errorf("sandwich breakdown present but no total count reported")
	}
	if sum != *total {
		return fmt.Errorf("sandwich breakdown sums to %d but reported total is %d", sum, *total)
	}
	return nil
}
