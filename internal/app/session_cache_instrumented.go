package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/gtd-backend/internal/data/cache"
	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/observability"
)

type instrumentedSessionCache struct {
	backend string
	inner   cache.SessionCache
	metrics *observability.Metrics
}

func instrumentSessionCache(backend string, inner cache.SessionCache, metrics *observability.Metrics) cache.SessionCache {
	if inner == nil || metrics == nil {
		return inner
	}
	return &instrumentedSessionCache{
		backend: backend,
		inner:   inner,
		metrics: metrics,
	}
}

func (s *instrumentedSessionCache) Get(ctx context.Context, sessionID uuid.UUID) (*cache.CachedSession, error) {
	start := time.Now()
	out, err := s.inner.Get(ctx, sessionID)
	s.observe("get", err, time.Since(start))
	if err == nil {
		s.metrics.IncSessionCacheLookup(out != nil)
	}
	return out, err
}

func (s *instrumentedSessionCache) Set(ctx context.Context, sess *cache.CachedSession, ttl time.Duration) error {
	start := time.Now()
	err := s.inner.Set(ctx, sess, ttl)
	s.observe("set", err, time.Since(start))
	return err
}

func (s *instrumentedSessionCache) Delete(ctx context.Context, sessionIDs ...uuid.UUID) error {
	start := time.Now()
	err := s.inner.Delete(ctx, sessionIDs...)
	s.observe("delete", err, time.Since(start))
	return err
}

func (s *instrumentedSessionCache) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	start := time.Now()
	err := s.inner.DeleteUser(ctx, userID)
	s.observe("delete_user", err, time.Since(start))
	return err
}

func (s *instrumentedSessionCache) RefreshUser(ctx context.Context, user *types.User) error {
	start := time.Now()
	err := s.inner.RefreshUser(ctx, user)
	s.observe("refresh_user", err, time.Since(start))
	return err
}

func (s *instrumentedSessionCache) observe(operation string, err error, dur time.Duration) {
	if s == nil || s.metrics == nil {
		return
	}
	s.metrics.ObserveSessionCache(s.backend, operation, err, dur)
}
