package directory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sandwichproject/opsdesk/internal/apperror"
)

// nameCacheTTL is how long resolved display names stay cached. The same
// handful of staff appear on most requests, so even a short TTL removes
// nearly all directory queries from staffing views.
const nameCacheTTL = 10 * time.Minute

// nameCacheKey builds the Redis key for one user's display name.
func nameCacheKey(id string) string {
	return "directory:name:" + id
}

// customEntryPrefix mirrors the marker used in assignment id lists for
// free-text entries not tied to an account.
const customEntryPrefix = "custom:"

// DirectoryService resolves person ids to display names and manages
// directory entries.
type DirectoryService interface {
	// Resolve maps person ids to display names. Custom entries are decoded
	// from their id; unknown ids are omitted from the result.
	Resolve(ctx context.Context, ids []string) (map[string]string, error)

	// Get returns one user.
	Get(ctx context.Context, id string) (*User, error)

	// List returns all users ordered by display name.
	List(ctx context.Context) ([]User, error)

	// Save inserts or updates a user and invalidates its cached name.
	Save(ctx context.Context, user *User) error
}

type directoryService struct {
	repo  UserRepository
	redis *redis.Client
}

// NewDirectoryService creates a new directory service.
func NewDirectoryService(repo UserRepository, rdb *redis.Client) DirectoryService {
	return &directoryService{repo: repo, redis: rdb}
}

// Resolve maps person ids to display names. Custom entries never touch
// storage; real ids are served from the Redis cache where possible and
// looked up in one batched query otherwise. Cache failures degrade to
// straight DB reads.
func (s *directoryService) Resolve(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	var lookup []string
	seen := make(map[string]bool, len(ids))

	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		if name, ok := strings.CutPrefix(id, customEntryPrefix); ok {
			names[id] = strings.TrimSpace(name)
			continue
		}

		if cached, err := s.redis.Get(ctx, nameCacheKey(id)).Result(); err == nil {
			names[id] = cached
			continue
		}
		lookup = append(lookup, id)
	}

	if len(lookup) == 0 {
		return names, nil
	}

	users, err := s.repo.FindByIDs(ctx, lookup)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("resolving display names: %w", err))
	}

	for _, u := range users {
		names[u.ID] = u.DisplayName
		if err := s.redis.Set(ctx, nameCacheKey(u.ID), u.DisplayName, nameCacheTTL).Err(); err != nil {
			slog.Warn("caching display name failed",
				slog.String("user_id", u.ID), slog.Any("error", err))
		}
	}

	return names, nil
}

// Get returns one user.
func (s *directoryService) Get(ctx context.Context, id string) (*User, error) {
	if id == "" {
		return nil, apperror.NewBadRequest("user ID is required")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}
	if user == nil {
		return nil, apperror.NewNotFound("user not found")
	}
	return user, nil
}

// List returns all users.
func (s *directoryService) List(ctx context.Context) ([]User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing users: %w", err))
	}
	return users, nil
}

// Save upserts a user and drops its cached display name so the next
// resolution sees the update.
func (s *directoryService) Save(ctx context.Context, user *User) error {
	if user.ID == "" {
		return apperror.NewBadRequest("user ID is required")
	}
	if strings.TrimSpace(user.DisplayName) == "" {
		return apperror.NewBadRequest("display name is required")
	}

	if err := s.repo.Upsert(ctx, user); err != nil {
		return apperror.NewInternal(fmt.Errorf("saving user: %w", err))
	}

	if err := s.redis.Del(ctx, nameCacheKey(user.ID)).Err(); err != nil {
		slog.Warn("invalidating display name cache failed",
			slog.String("user_id", user.ID), slog.Any("error", err))
	}

	return nil
}
