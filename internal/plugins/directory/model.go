// Package directory manages the user directory: the staff and volunteers
// that event request assignments reference by id. Its main job is resolving
// opaque person ids into display names for the staffing views, including
// decoding "custom:" free-text entries that are not tied to an account.
// Display names are cached in Redis since the same handful of people appear
// on most requests.
package directory

import "time"

// User is one directory entry.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	Email       *string   `json:"email,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
