package directory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// UserRepository defines the data access contract for directory users.
type UserRepository interface {
	// FindByID returns one user, or nil when absent.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByIDs returns the users matching the given ids. Missing ids are
	// simply absent from the result.
	FindByIDs(ctx context.Context, ids []string) ([]User, error)

	// List returns all users ordered by display name.
	List(ctx context.Context) ([]User, error)

	// Upsert inserts or updates a user.
	Upsert(ctx context.Context, user *User) error
}

// userRepository implements UserRepository with MariaDB queries.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new repository backed by the given DB pool.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, display_name, email, phone, created_at, updated_at`

// FindByID returns one user by primary key.
func (r *userRepository) FindByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.DisplayName, &u.Email, &u.Phone, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	return &u, nil
}

// FindByIDs returns users matching the given ids in one query.
func (r *userRepository) FindByIDs(ctx context.Context, ids []string) ([]User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("finding users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// List returns all users ordered by display name.
func (r *userRepository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY display_name`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// Upsert inserts or updates a user row.
func (r *userRepository) Upsert(ctx context.Context, user *User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, display_name, email, phone, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE display_name = VALUES(display_name),
		     email = VALUES(email), phone = VALUES(phone), updated_at = VALUES(updated_at)`,
		user.ID, user.DisplayName, user.Email, user.Phone, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting user: %w", err)
	}
	return nil
}

func scanUsers(rows *sql.Rows) ([]User, error) {
	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.DisplayName, &u.Email, &u.Phone, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}
	return users, nil
}
