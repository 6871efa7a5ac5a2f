package requests

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sandwichproject/opsdesk/internal/apperror"
	"github.com/sandwichproject/opsdesk/internal/plugins/audit"
)

// perPage is the number of requests shown per page in list views.
const perPage = 25

// maxOrganizationNameLength caps the organization name.
const maxOrganizationNameLength = 200

// ChangeRecorder is the slice of the audit recorder the service needs.
// Recording is fire-and-forget: results are logged, never propagated.
type ChangeRecorder interface {
	RecordCreation(ctx context.Context, recordID string, newSnap map[string]any, actor audit.Actor) audit.RecordResult
	RecordChange(ctx context.Context, recordID string, oldSnap, newSnap map[string]any, actor audit.Actor, changeContext map[string]any) audit.RecordResult
	RecordDeletion(ctx context.Context, recordID string, oldSnap map[string]any, actor audit.Actor) audit.RecordResult
}

// NameResolver resolves person ids to display names. Implemented by the
// directory plugin; ids may be real user ids or custom free-text entries.
type NameResolver interface {
	Resolve(ctx context.Context, ids []string) (map[string]string, error)
}

// RequestService handles business logic for event requests. It validates
// inputs, applies status side effects, and hands every mutation to the
// audit recorder.
type RequestService interface {
	Create(ctx context.Context, input CreateRequestInput, actor audit.Actor) (*EventRequest, error)
	Get(ctx context.Context, id int64) (*EventRequest, error)
	List(ctx context.Context, status string, page int) ([]EventRequest, int, error)

	// Update applies a partial edit. Nil input fields are left unchanged;
	// for nullable fields an explicit empty value clears.
	Update(ctx context.Context, id int64, input UpdateRequestInput, actor audit.Actor) (*EventRequest, error)

	// UpdateStatus transitions the request to the target status, applying
	// status-linked side effects. Unknown statuses are rejected before
	// persistence.
	UpdateStatus(ctx context.Context, id int64, target string, actor audit.Actor) (*EventRequest, error)

	// AssignDrivers replaces the driver assignments (regular and van).
	AssignDrivers(ctx context.Context, id int64, driverIDs []string, vanDriverID string, actor audit.Actor) (*EventRequest, error)

	// SetTSPContact assigns the staff liaison: a real user id or a
	// free-text name, mutually exclusive.
	SetTSPContact(ctx context.Context, id int64, userID, customName string, actor audit.Actor) (*EventRequest, error)

	// MarkToolkitSent records that the event toolkit went out.
	MarkToolkitSent(ctx context.Context, id int64, actor audit.Actor) (*EventRequest, error)

	// CompleteFollowUp appends a follow-up note and audits it as a
	// completed follow-up.
	CompleteFollowUp(ctx context.Context, id int64, note string, actor audit.Actor) (*EventRequest, error)

	// Reschedule derives a fresh request from a completed one. History is
	// never mutated; the completed request stays as-is.
	Reschedule(ctx context.Context, id int64, actor audit.Actor) (*EventRequest, error)

	// Delete removes the request and audits it as a transition to the
	// virtual "deleted" status.
	Delete(ctx context.Context, id int64, actor audit.Actor) error

	// Staffing computes assigned-vs-needed headcounts with display names
	// resolved through the directory.
	Staffing(ctx context.Context, id int64) (*StaffingView, error)
}

// StaffingView is a StaffingSummary enriched with resolved display names
// for the UI.
type StaffingView struct {
	StaffingSummary
	DriverNames    []string `json:"driverNames"`
	VanDriverName  string   `json:"vanDriverName,omitempty"`
	SpeakerNames   []string `json:"speakerNames"`
	VolunteerNames []string `json:"volunteerNames"`
}

// CreateRequestInput is the payload for creating an event request.
type CreateRequestInput struct {
	OrganizationName string     `json:"organizationName"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	DesiredEventDate *time.Time `json:"desiredEventDate"`
	DriversNeeded    int        `json:"driversNeeded"`
	SpeakersNeeded   int        `json:"speakersNeeded"`
	VolunteersNeeded int        `json:"volunteersNeeded"`
	Recipients       []string   `json:"recipients"`
	Notes            string     `json:"notes"`
}

// UpdateRequestInput is a partial edit. Nil means "leave unchanged"; for
// nullable fields an explicit empty value clears.
type UpdateRequestInput struct {
	OrganizationName *string    `json:"organizationName"`
	Email            *string    `json:"email"`
	Phone            *string    `json:"phone"`
	EventDate        *time.Time `json:"eventDate"`
	ScheduledEventDate *time.Time `json:"scheduledEventDate"`

	DriversNeeded    *int `json:"driversNeeded"`
	SpeakersNeeded   *int `json:"speakersNeeded"`
	VolunteersNeeded *int `json:"volunteersNeeded"`

	AssignedDriverIDs    *[]string                 `json:"assignedDriverIds"`
	AssignedVanDriverID  *string                   `json:"assignedVanDriverId"`
	SpeakerDetails       *map[string]SpeakerDetail `json:"speakerDetails"`
	AssignedVolunteerIDs *[]string                 `json:"assignedVolunteerIds"`

	Recipients *[]string `json:"recipients"`

	SocialMediaRequested *bool   `json:"socialMediaRequested"`
	SocialMediaCompleted *bool   `json:"socialMediaCompleted"`
	SocialMediaNotes     *string `json:"socialMediaNotes"`
	InstagramLink        *string `json:"instagramLink"`

	EstimatedSandwichCount *int             `json:"estimatedSandwichCount"`
	ActualSandwichCount    *int             `json:"actualSandwichCount"`
	SandwichBreakdown      *[]SandwichCount `json:"sandwichBreakdown"`

	Notes *string `json:"notes"`

	// ChangeContext is an optional caller hint about why the edit happened,
	// passed through to the audit trail.
	ChangeContext map[string]any `json:"changeContext"`
}

// requestService implements RequestService.
type requestService struct {
	repo     RequestRepository
	recorder ChangeRecorder
	resolver NameResolver
}

// NewRequestService creates a new request service.
func NewRequestService(repo RequestRepository, recorder ChangeRecorder, resolver NameResolver) RequestService {
	return &requestService{repo: repo, recorder: recorder, resolver: resolver}
}

// Create validates and persists a new request, then audits the creation.
func (s *requestService) Create(ctx context.Context, input CreateRequestInput, actor audit.Actor) (*EventRequest, error) {
	name := strings.TrimSpace(input.OrganizationName)
	if name == "" {
		return nil, apperror.NewBadRequest("organization name is required")
	}
	if len(name) > maxOrganizationNameLength {
		return nil, apperror.NewBadRequest("organization name must be 200 characters or fewer")
	}
	if input.DriversNeeded < 0 || input.SpeakersNeeded < 0 || input.VolunteersNeeded < 0 {
		return nil, apperror.NewValidation("needed counts must be non-negative")
	}

	recipients, err := parseRecipients(input.Recipients)
	if err != nil {
		return nil, err
	}

	req := &EventRequest{
		OrganizationName:     name,
		Email:                nullable(input.Email),
		Phone:                nullable(input.Phone),
		Status:               StatusNew,
		DesiredEventDate:     input.DesiredEventDate,
		DriversNeeded:        input.DriversNeeded,
		SpeakersNeeded:       input.SpeakersNeeded,
		VolunteersNeeded:     input.VolunteersNeeded,
		AssignedDriverIDs:    []string{},
		AssignedVolunteerIDs: []string{},
		Recipients:           recipients,
		Notes:                nullable(input.Notes),
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating event request: %w", err))
	}

	s.record(func() audit.RecordResult {
		return s.recorder.RecordCreation(ctx, recordID(req.ID), req.Snapshot(), actor)
	})

	return req, nil
}

// Get returns one request.
func (s *requestService) Get(ctx context.Context, id int64) (*EventRequest, error) {
	return s.load(ctx, id)
}

// List returns a page of requests, newest first. Pages are 1-indexed.
func (s *requestService) List(ctx context.Context, status string, page int) ([]EventRequest, int, error) {
	if status != "" && !ValidStatus(status) {
		return nil, 0, apperror.NewValidation(fmt.Sprintf("invalid status filter %q", status))
	}
	if page < 1 {
		page = 1
	}

	offset := (page - 1) * perPage
	list, total, err := s.repo.List(ctx, status, perPage, offset)
	if err != nil {
		return nil, 0, apperror.NewInternal(fmt.Errorf("listing event requests: %w", err))
	}
	return list, total, nil
}

// Update applies a partial edit, validates invariants, persists, and audits.
func (s *requestService) Update(ctx context.Context, id int64, input UpdateRequestInput, actor audit.Actor) (*EventRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	oldSnap := req.Snapshot()

	if err := applyUpdate(req, input); err != nil {
		return nil, err
	}
	if err := req.ValidateSandwichCounts(); err != nil {
		return nil, apperror.NewValidation(err.Error())
	}

	if err := s.repo.Update(ctx, req); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("updating event request: %w", err))
	}

	s.record(func() audit.RecordResult {
		return s.recorder.RecordChange(ctx, recordID(id), oldSnap, req.Snapshot(), actor, input.ChangeContext)
	})

	return req, nil
}

// UpdateStatus transitions the request. Rejection happens before any write.
func (s *requestService) UpdateStatus(ctx context.Context, id int64, target string, actor audit.Actor) (*EventRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	oldSnap := req.Snapshot()

	if err := Transition(req, target); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, req); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("updating event request status: %w", err))
	}

	s.record(func() audit.RecordResult {
		return s.recorder.RecordChange(ctx, recordID(id), oldSnap, req.Snapshot(), actor, nil)
	})

	return req, nil
}

// AssignDrivers replaces the driver assignments.
func (s *requestService) AssignDrivers(ctx context.Context, id int64, driverIDs []string, vanDriverID string, actor audit.Actor) (*EventRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	oldSnap := req.Snapshot()

	if driverIDs == nil {
		driverIDs = []string{}
	}
	req.AssignedDriverIDs = driverIDs
	req.AssignedVanDriverID = nullable(vanDriverID)

	if err := s.repo.Update(ctx, req); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("updating driver assignments: %w", err))
	}

	s.record(func() audit.RecordResult {
		return s.recorder.RecordChange(ctx, recordID(id), oldSnap, req.Snapshot(), actor,
			map[string]any{"actionType": audit.OpDriverAssignment})
	})

	return req, nil
}

// SetTSPContact assigns the staff liaison and stamps the assignment time.
func (s *requestService) SetTSPContact(ctx context.Context, id int64, userID, customName string, actor audit.Actor) (*EventRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	oldSnap := req.Snapshot()

	if err := AssignTSPContact(req, userID, strings.TrimSpace(customName), time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, req); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("updating TSP contact: %w", err))
	}

	s.record(func() audit.RecordResult {
		return s.recorder.RecordChange(ctx, recordID(id), oldSnap, req.Snapshot(), actor,
			map[string]any{"actionType": audit.OpContactCompletion})
	})

	return req, nil
}

// MarkToolkitSent stamps the toolkit fields.
func (s *requestService) MarkToolkitSent(ctx context.Context, id int64, actor audit.Actor) (*EventRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	oldSnap := req.Snapshot()

	now := time.Now().UTC()
	req.ToolkitSent = true
	if req.ToolkitSentDate == nil {
		req.ToolkitSentDate = &now
	}

	if err := s.repo.Update(ctx, req); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("marking toolkit sent: %w", err))
	}

	s.record(func() audit.RecordResult {
		return s.recorder.RecordChange(ctx, recordID(id), oldSnap, req.Snapshot(), actor,
			map[string]any{"actionType": audit.OpToolkitSent})
	})

	return req, nil
}

// CompleteFollowUp appends a follow-up note to the request.
func (s *requestService) CompleteFollowUp(ctx context.Context, id int64, note string, actor audit.Actor) (*EventRequest, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, apperror.NewBadRequest("follow-up note is required")
	}

	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	oldSnap := req.Snapshot()

	stamped := fmt.Sprintf("[%s] %s", time.Now().UTC().Format("2006-01-02"), note)
	if req.Notes == nil || *req.Notes == "" {
		req.Notes = &stamped
	} else {
		combined := *req.Notes + "\n" + stamped
		req.Notes = &combined
	}

	if err := s.repo.Update(ctx, req); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("recording follow-up: %w", err))
	}

	s.record(func() audit.RecordResult {
		return s.recorder.RecordChange(ctx, recordID(id), oldSnap, req.Snapshot(), actor,
			map[string]any{"actionType": audit.OpFollowUpCompleted})
	})

	return req, nil
}

// Reschedule derives a fresh request from a completed one.
func (s *requestService) Reschedule(ctx context.Context, id int64, actor audit.Actor) (*EventRequest, error) {
	src, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if src.Status != StatusCompleted {
		return nil, apperror.NewValidation("only completed requests can be rescheduled")
	}

	derived := DeriveReschedule(src, time.Now().UTC())
	if err := s.repo.Create(ctx, derived); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating rescheduled request: %w", err))
	}

	s.record(func() audit.RecordResult {
		return s.recorder.RecordCreation(ctx, recordID(derived.ID), derived.Snapshot(), actor)
	})

	return derived, nil
}

// Delete removes the request and audits a pseudo-transition to "deleted".
func (s *requestService) Delete(ctx context.Context, id int64, actor audit.Actor) error {
	req, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	oldSnap := req.Snapshot()

	if err := s.repo.Delete(ctx, id); err != nil {
		return apperror.NewInternal(fmt.Errorf("deleting event request: %w", err))
	}

	s.record(func() audit.RecordResult {
		return s.recorder.RecordDeletion(ctx, recordID(id), oldSnap, actor)
	})

	return nil
}

// Staffing computes the staffing summary with resolved display names.
func (s *requestService) Staffing(ctx context.Context, id int64) (*StaffingView, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &StaffingView{StaffingSummary: ComputeStaffing(req)}

	// Collect every referenced person id for one batched resolution.
	ids := append([]string{}, req.AssignedDriverIDs...)
	ids = append(ids, req.AssignedVolunteerIDs...)
	for speakerID := range req.SpeakerDetails {
		ids = append(ids, speakerID)
	}
	if req.AssignedVanDriverID != nil && *req.AssignedVanDriverID != "" {
		ids = append(ids, *req.AssignedVanDriverID)
	}

	names, err := s.resolver.Resolve(ctx, ids)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("resolving staffing names: %w", err))
	}

	view.DriverNames = resolveAll(names, req.AssignedDriverIDs)
	view.VolunteerNames = resolveAll(names, req.AssignedVolunteerIDs)
	speakerIDs := make([]string, 0, len(req.SpeakerDetails))
	for speakerID := range req.SpeakerDetails {
		speakerIDs = append(speakerIDs, speakerID)
	}
	sort.Strings(speakerIDs)
	view.SpeakerNames = resolveAll(names, speakerIDs)
	if req.AssignedVanDriverID != nil && *req.AssignedVanDriverID != "" {
		view.VanDriverName = names[*req.AssignedVanDriverID]
	}

	return view, nil
}

// --- Helpers ---

// load fetches a request or returns a 404 AppError.
func (s *requestService) load(ctx context.Context, id int64) (*EventRequest, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("finding event request: %w", err))
	}
	if req == nil {
		return nil, apperror.NewNotFound("event request not found")
	}
	return req, nil
}

// record runs an audit recording and logs failures at debug level. The
// business mutation already succeeded; a failed recording never surfaces.
func (s *requestService) record(fn func() audit.RecordResult) {
	if result := fn(); !result.OK {
		slog.Debug("audit recording failed", slog.String("reason", result.Reason))
	}
}

// applyUpdate copies set input fields onto the request.
func applyUpdate(req *EventRequest, input UpdateRequestInput) error {
	if input.OrganizationName != nil {
		name := strings.TrimSpace(*input.OrganizationName)
		if name == "" {
			return apperror.NewBadRequest("organization name cannot be empty")
		}
		req.OrganizationName = name
	}
	if input.Email != nil {
		req.Email = nullable(*input.Email)
	}
	if input.Phone != nil {
		req.Phone = nullable(*input.Phone)
	}

	// "The event date" targets whichever field is authoritative; an
	// explicit scheduled date always lands on the scheduled field.
	if input.EventDate != nil {
		req.SetEventDate(*input.EventDate)
	}
	if input.ScheduledEventDate != nil {
		req.ScheduledEventDate = input.ScheduledEventDate
	}

	if input.DriversNeeded != nil {
		if *input.DriversNeeded < 0 {
			return apperror.NewValidation("driversNeeded must be non-negative")
		}
		req.DriversNeeded = *input.DriversNeeded
	}
	if input.SpeakersNeeded != nil {
		if *input.SpeakersNeeded < 0 {
			return apperror.NewValidation("speakersNeeded must be non-negative")
		}
		req.SpeakersNeeded = *input.SpeakersNeeded
	}
	if input.VolunteersNeeded != nil {
		if *input.VolunteersNeeded < 0 {
			return apperror.NewValidation("volunteersNeeded must be non-negative")
		}
		req.VolunteersNeeded = *input.VolunteersNeeded
	}

	if input.AssignedDriverIDs != nil {
		req.AssignedDriverIDs = *input.AssignedDriverIDs
	}
	if input.AssignedVanDriverID != nil {
		req.AssignedVanDriverID = nullable(*input.AssignedVanDriverID)
	}
	if input.SpeakerDetails != nil {
		req.SpeakerDetails = *input.SpeakerDetails
	}
	if input.AssignedVolunteerIDs != nil {
		req.AssignedVolunteerIDs = *input.AssignedVolunteerIDs
	}

	if input.Recipients != nil {
		recipients, err := parseRecipients(*input.Recipients)
		if err != nil {
			return err
		}
		req.Recipients = recipients
	}

	now := time.Now().UTC()
	if input.SocialMediaRequested != nil {
		req.SocialMediaRequested = *input.SocialMediaRequested
		if *input.SocialMediaRequested && req.SocialMediaRequestedDate == nil {
			req.SocialMediaRequestedDate = &now
		}
	}
	if input.SocialMediaCompleted != nil {
		req.SocialMediaCompleted = *input.SocialMediaCompleted
		if *input.SocialMediaCompleted && req.SocialMediaCompletedDate == nil {
			req.SocialMediaCompletedDate = &now
		}
	}
	if input.SocialMediaNotes != nil {
		// Replacing the notes wholesale; re-embed any existing Instagram
		// link unless the caller is also setting one.
		link := req.InstagramLink()
		req.SocialMediaNotes = nullable(*input.SocialMediaNotes)
		if input.InstagramLink == nil && link != "" && req.InstagramLink() == "" {
			req.SetInstagramLink(link)
		}
	}
	if input.InstagramLink != nil {
		req.SetInstagramLink(strings.TrimSpace(*input.InstagramLink))
	}

	if input.EstimatedSandwichCount != nil {
		req.EstimatedSandwichCount = input.EstimatedSandwichCount
	}
	if input.ActualSandwichCount != nil {
		req.ActualSandwichCount = input.ActualSandwichCount
	}
	if input.SandwichBreakdown != nil {
		req.SandwichBreakdown = *input.SandwichBreakdown
	}

	if input.Notes != nil {
		req.Notes = nullable(*input.Notes)
	}

	return nil
}

// parseRecipients decodes raw recipient references, rejecting malformed
// entries with an actionable message.
func parseRecipients(raw []string) ([]RecipientRef, error) {
	refs := make([]RecipientRef, 0, len(raw))
	for _, r := range raw {
		ref, err := ParseRecipientRef(r)
		if err != nil {
			return nil, apperror.NewValidation("recipients: " + err.Error())
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// resolveAll maps ids to display names, falling back to the raw id when
// resolution produced nothing.
func resolveAll(names map[string]string, ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := names[id]; ok && name != "" {
			out = append(out, name)
			continue
		}
		out = append(out, id)
	}
	return out
}

func recordID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// nullable converts an empty string to nil. Clearing a field and never
// setting it are stored the same way.
func nullable(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
