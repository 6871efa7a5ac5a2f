package requests

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// RequestRepository defines the data access contract for event requests.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type RequestRepository interface {
	// Create inserts a new request and populates its generated ID.
	Create(ctx context.Context, req *EventRequest) error

	// FindByID returns one request, or nil when it does not exist.
	FindByID(ctx context.Context, id int64) (*EventRequest, error)

	// Update persists all mutable fields of the request.
	Update(ctx context.Context, req *EventRequest) error

	// Delete removes a request.
	Delete(ctx context.Context, id int64) error

	// List returns requests newest-first, optionally filtered by status,
	// plus the total match count.
	List(ctx context.Context, status string, limit, offset int) ([]EventRequest, int, error)
}

// requestRepository implements RequestRepository with MariaDB queries. The
// legacy delimited id-list encoding and JSON detail columns are translated
// at this boundary; callers only ever see typed fields.
type requestRepository struct {
	db *sql.DB
}

// NewRequestRepository creates a new repository backed by the given DB pool.
func NewRequestRepository(db *sql.DB) RequestRepository {
	return &requestRepository{db: db}
}

const requestColumns = `id, organization_name, email, phone, status, is_confirmed,
	desired_event_date, scheduled_event_date,
	drivers_needed, speakers_needed, volunteers_needed,
	assigned_driver_ids, assigned_van_driver_id, speaker_details, assigned_volunteer_ids,
	tsp_contact, custom_tsp_contact, tsp_contact_assigned_date,
	recipients, toolkit_sent, toolkit_sent_date,
	social_media_requested, social_media_requested_date,
	social_media_completed, social_media_completed_date, social_media_notes,
	estimated_sandwich_count, actual_sandwich_count, sandwich_breakdown,
	notes, created_at, updated_at`

// Create inserts a new request row.
func (r *requestRepository) Create(ctx context.Context, req *EventRequest) error {
	now := time.Now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now

	cols, err := encodeColumns(req)
	if err != nil {
		return err
	}

	query := `INSERT INTO event_requests (organization_name, email, phone, status, is_confirmed,
	              desired_event_date, scheduled_event_date,
	              drivers_needed, speakers_needed, volunteers_needed,
	              assigned_driver_ids, assigned_van_driver_id, speaker_details, assigned_volunteer_ids,
	              tsp_contact, custom_tsp_contact, tsp_contact_assigned_date,
	              recipients, toolkit_sent, toolkit_sent_date,
	              social_media_requested, social_media_requested_date,
	              social_media_completed, social_media_completed_date, social_media_notes,
	              estimated_sandwich_count, actual_sandwich_count, sandwich_breakdown,
	              notes, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		req.OrganizationName, req.Email, req.Phone, req.Status, req.IsConfirmed,
		req.DesiredEventDate, req.ScheduledEventDate,
		req.DriversNeeded, req.SpeakersNeeded, req.VolunteersNeeded,
		cols.driverIDs, req.AssignedVanDriverID, cols.speakerDetails, cols.volunteerIDs,
		req.TSPContact, req.CustomTSPContact, req.TSPContactAssignedDate,
		cols.recipients, req.ToolkitSent, req.ToolkitSentDate,
		req.SocialMediaRequested, req.SocialMediaRequestedDate,
		req.SocialMediaCompleted, req.SocialMediaCompletedDate, req.SocialMediaNotes,
		req.EstimatedSandwichCount, req.ActualSandwichCount, cols.breakdown,
		req.Notes, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting event request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting event request id: %w", err)
	}
	req.ID = id

	return nil
}

// FindByID returns one request by primary key, or nil when absent.
func (r *requestRepository) FindByID(ctx context.Context, id int64) (*EventRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM event_requests WHERE id = ?`

	req, err := scanRequest(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding event request: %w", err)
	}
	return req, nil
}

// Update persists all mutable fields.
func (r *requestRepository) Update(ctx context.Context, req *EventRequest) error {
	req.UpdatedAt = time.Now().UTC()

	cols, err := encodeColumns(req)
	if err != nil {
		return err
	}

	query := `UPDATE event_requests SET organization_name = ?, email = ?, phone = ?, status = ?, is_confirmed = ?,
	              desired_event_date = ?, scheduled_event_date = ?,
	              drivers_needed = ?, speakers_needed = ?, volunteers_needed = ?,
	              assigned_driver_ids = ?, assigned_van_driver_id = ?, speaker_details = ?, assigned_volunteer_ids = ?,
	              tsp_contact = ?, custom_tsp_contact = ?, tsp_contact_assigned_date = ?,
	              recipients = ?, toolkit_sent = ?, toolkit_sent_date = ?,
	              social_media_requested = ?, social_media_requested_date = ?,
	              social_media_completed = ?, social_media_completed_date = ?, social_media_notes = ?,
	              estimated_sandwich_count = ?, actual_sandwich_count = ?, sandwich_breakdown = ?,
	              notes = ?, updated_at = ?
	          WHERE id = ?`

	_, err = r.db.ExecContext(ctx, query,
		req.OrganizationName, req.Email, req.Phone, req.Status, req.IsConfirmed,
		req.DesiredEventDate, req.ScheduledEventDate,
		req.DriversNeeded, req.SpeakersNeeded, req.VolunteersNeeded,
		cols.driverIDs, req.AssignedVanDriverID, cols.speakerDetails, cols.volunteerIDs,
		req.TSPContact, req.CustomTSPContact, req.TSPContactAssignedDate,
		cols.recipients, req.ToolkitSent, req.ToolkitSentDate,
		req.SocialMediaRequested, req.SocialMediaRequestedDate,
		req.SocialMediaCompleted, req.SocialMediaCompletedDate, req.SocialMediaNotes,
		req.EstimatedSandwichCount, req.ActualSandwichCount, cols.breakdown,
		req.Notes, req.UpdatedAt,
		req.ID,
	)
	if err != nil {
		return fmt.Errorf("updating event request: %w", err)
	}

	return nil
}

// Delete removes a request row.
func (r *requestRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM event_requests WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting event request: %w", err)
	}
	return nil
}

// List returns requests newest-first, optionally filtered by status.
func (r *requestRepository) List(ctx context.Context, status string, limit, offset int) ([]EventRequest, int, error) {
	where := ""
	var args []any
	if status != "" {
		where = " WHERE status = ?"
		args = append(args, status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM event_requests`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting event requests: %w", err)
	}

	query := `SELECT ` + requestColumns + ` FROM event_requests` + where + `
	          ORDER BY created_at DESC, id DESC
	          LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing event requests: %w", err)
	}
	defer rows.Close()

	var requests []EventRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning event request: %w", err)
		}
		requests = append(requests, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating event request rows: %w", err)
	}

	return requests, total, nil
}

// encodedColumns holds the storage-side encodings of the structured fields.
type encodedColumns struct {
	driverIDs      string
	volunteerIDs   string
	recipients     string
	speakerDetails *string
	breakdown      *string
}

// encodeColumns translates slices and maps into their stored forms: id
// lists into the legacy delimited encoding, speaker details and the
// sandwich breakdown into JSON.
func encodeColumns(req *EventRequest) (encodedColumns, error) {
	cols := encodedColumns{
		driverIDs:    FormatDelimitedIDSet(req.AssignedDriverIDs),
		volunteerIDs: FormatDelimitedIDSet(req.AssignedVolunteerIDs),
	}

	refs := make([]string, 0, len(req.Recipients))
	for _, ref := range req.Recipients {
		refs = append(refs, ref.String())
	}
	cols.recipients = FormatDelimitedIDSet(refs)

	if len(req.SpeakerDetails) > 0 {
		data, err := json.Marshal(req.SpeakerDetails)
		if err != nil {
			return cols, fmt.Errorf("marshaling speaker details: %w", err)
		}
		s := string(data)
		cols.speakerDetails = &s
	}

	if len(req.SandwichBreakdown) > 0 {
		data, err := json.Marshal(req.SandwichBreakdown)
		if err != nil {
			return cols, fmt.Errorf("marshaling sandwich breakdown: %w", err)
		}
		s := string(data)
		cols.breakdown = &s
	}

	return cols, nil
}

// rowScanner lets scanRequest work with both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRequest scans one event_requests row and decodes the legacy and JSON
// columns back into typed fields.
func scanRequest(row rowScanner) (*EventRequest, error) {
	var req EventRequest
	var driverIDs, volunteerIDs, recipients sql.NullString
	var speakerDetails, breakdown sql.NullString

	if err := row.Scan(
		&req.ID, &req.OrganizationName, &req.Email, &req.Phone, &req.Status, &req.IsConfirmed,
		&req.DesiredEventDate, &req.ScheduledEventDate,
		&req.DriversNeeded, &req.SpeakersNeeded, &req.VolunteersNeeded,
		&driverIDs, &req.AssignedVanDriverID, &speakerDetails, &volunteerIDs,
		&req.TSPContact, &req.CustomTSPContact, &req.TSPContactAssignedDate,
		&recipients, &req.ToolkitSent, &req.ToolkitSentDate,
		&req.SocialMediaRequested, &req.SocialMediaRequestedDate,
		&req.SocialMediaCompleted, &req.SocialMediaCompletedDate, &req.SocialMediaNotes,
		&req.EstimatedSandwichCount, &req.ActualSandwichCount, &breakdown,
		&req.Notes, &req.CreatedAt, &req.UpdatedAt,
	); err != nil {
		return nil, err
	}

	req.AssignedDriverIDs = ParseDelimitedIDSet(driverIDs.String)
	req.AssignedVolunteerIDs = ParseDelimitedIDSet(volunteerIDs.String)

	req.Recipients = []RecipientRef{}
	for _, raw := range ParseDelimitedIDSet(recipients.String) {
		ref, err := ParseRecipientRef(raw)
		if err != nil {
			// A single malformed legacy reference should not hide the row.
			continue
		}
		req.Recipients = append(req.Recipients, ref)
	}

	if speakerDetails.Valid && speakerDetails.String != "" {
		if err := json.Unmarshal([]byte(speakerDetails.String), &req.SpeakerDetails); err != nil {
			return nil, fmt.Errorf("unmarshaling speaker details: %w", err)
		}
	}
	if breakdown.Valid && breakdown.String != "" {
		if err := json.Unmarshal([]byte(breakdown.String), &req.SandwichBreakdown); err != nil {
			return nil, fmt.Errorf("unmarshaling sandwich breakdown: %w", err)
		}
	}

	return &req, nil
}
