package bot

import (
	"context"
	"log/slog"
)

// UnknownUser is the display name used when a lookup fails.
const UnknownUser = "Unknown User ID"

// Directory looks up user display names.
type Directory interface {
	UserRealName(ctx context.Context, userID string) (string, error)
}

// Resolver maps user IDs to display names on a best-effort basis.
type Resolver struct {
	dir Directory
}

// NewResolver wraps dir.
func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve never fails; any lookup error yields UnknownUser.
func (r *Resolver) Resolve(ctx context.Context, userID string) string {
	if userID == "" {
		return UnknownUser
	}
	name, err := r.dir.UserRealName(ctx, userID)
	if err != nil || name == "" {
		slog.Warn("User lookup failed",
			"user_id", userID,
			"error", err,
		)
		return UnknownUser
	}
	return name
}
