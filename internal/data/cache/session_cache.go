package cache

import (
	"context"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/gtd-backend/internal/domain"
)

// CachedSession is what the auth middleware needs to serve a request without
// touching the database.
type CachedSession struct {
	SessionID uuid.UUID   `json:"session_id"`
	UserID    uuid.UUID   `json:"user_id"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *types.User `json:"user"`
}

// SessionCache stores sessions keyed by id, with a per-user index so every
// session of a user can be dropped or refreshed at once. Get returns nil, nil
// on a miss.
type SessionCache interface {
	Get(ctx context.Context, sessionID uuid.UUID) (*CachedSession, error)
	Set(ctx context.Context, s *CachedSession, ttl time.Duration) error
	Delete(ctx context.Context, sessionIDs ...uuid.UUID) error
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	RefreshUser(ctx context.Context, user *types.User) error
}

// clampTTL keeps cache entries from outliving the session itself.
func clampTTL(s *CachedSession, ttl time.Duration, now time.Time) time.Duration {
	remaining := s.ExpiresAt.Sub(now)
	if remaining < ttl {
		return remaining
	}
	return ttl
}
