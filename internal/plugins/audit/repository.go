package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Filter narrows audit history queries. Zero-value fields are not applied.
type Filter struct {
	TableName string
	RecordID  string
	UserID    string
	Action    string
}

// Repository defines the data access contract for the audit log. All SQL
// lives in the concrete implementation -- no SQL leaks out.
type Repository interface {
	// Insert appends a new audit row. Rows are never updated or deleted.
	Insert(ctx context.Context, entry *Entry) error

	// List returns audit rows matching the filter, newest first, plus the
	// total match count for pagination.
	List(ctx context.Context, f Filter, limit, offset int) ([]Entry, int, error)

	// FindByID returns a single audit row.
	FindByID(ctx context.Context, id int64) (*Entry, error)
}

// repository implements Repository with MariaDB queries.
type repository struct {
	db *sql.DB
}

// NewRepository creates a new repository backed by the given DB pool.
func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// Insert appends a new audit row. A zero timestamp is stamped with the
// current UTC time.
func (r *repository) Insert(ctx context.Context, entry *Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	query := `INSERT INTO audit_log (action, table_name, record_id, old_data, new_data, user_id, ip_address, user_agent, session_id, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		entry.Action, entry.TableName, entry.RecordID,
		entry.OldData, entry.NewData,
		entry.UserID, entry.IPAddress, entry.UserAgent, entry.SessionID,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting audit entry id: %w", err)
	}
	entry.ID = id

	return nil
}

// List returns audit rows matching the filter ordered by most recent first.
func (r *repository) List(ctx context.Context, f Filter, limit, offset int) ([]Entry, int, error) {
	where, args := buildFilter(f)

	countQuery := `SELECT COUNT(*) FROM audit_log` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting audit entries: %w", err)
	}

	query := `SELECT id, action, table_name, record_id, old_data, new_data,
	                 user_id, ip_address, user_agent, session_id, created_at
	          FROM audit_log` + where + `
	          ORDER BY created_at DESC, id DESC
	          LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing audit entries: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// FindByID returns one audit row by primary key.
func (r *repository) FindByID(ctx context.Context, id int64) (*Entry, error) {
	query := `SELECT id, action, table_name, record_id, old_data, new_data,
	                 user_id, ip_address, user_agent, session_id, created_at
	          FROM audit_log WHERE id = ?`

	var e Entry
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Action, &e.TableName, &e.RecordID,
		&e.OldData, &e.NewData,
		&e.UserID, &e.IPAddress, &e.UserAgent, &e.SessionID,
		&e.Timestamp,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding audit entry: %w", err)
	}
	return &e, nil
}

// buildFilter assembles the WHERE clause and its arguments for a Filter.
func buildFilter(f Filter) (string, []any) {
	var conds []string
	var args []any

	if f.TableName != "" {
		conds = append(conds, "table_name = ?")
		args = append(args, f.TableName)
	}
	if f.RecordID != "" {
		conds = append(conds, "record_id = ?")
		args = append(args, f.RecordID)
	}
	if f.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, f.Action)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// scanEntries scans rows from an audit_log query. Expects columns in the
// SELECT order used by List/FindByID.
func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.ID, &e.Action, &e.TableName, &e.RecordID,
			&e.OldData, &e.NewData,
			&e.UserID, &e.IPAddress, &e.UserAgent, &e.SessionID,
			&e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit rows: %w", err)
	}

	return entries, nil
}
