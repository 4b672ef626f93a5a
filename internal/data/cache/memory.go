package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	types "github.com/yungbote/gtd-backend/internal/domain"
)

const defaultMemoryCacheSize = 4096

// memorySessionCache serves single-process deployments that run without Redis.
// The LRU bounds memory and its TTL is the ceiling; each entry also honours
// its own deadline.
type memorySessionCache struct {
	lru *expirable.LRU[uuid.UUID, memoryEntry]
}

type memoryEntry struct {
	session  CachedSession
	deadline time.Time
}

func NewMemorySessionCache(size int, maxTTL time.Duration) SessionCache {
	if size <= 0 {
		size = defaultMemoryCacheSize
	}
	return &memorySessionCache{lru: expirable.NewLRU[uuid.UUID, memoryEntry](size, nil, maxTTL)}
}

func (c *memorySessionCache) Get(_ context.Context, sessionID uuid.UUID) (*CachedSession, error) {
	e, ok := c.lru.Get(sessionID)
	if !ok {
		return nil, nil
	}
	if !time.Now().Before(e.deadline) {
		c.lru.Remove(sessionID)
		return nil, nil
	}
	s := e.session
	return &s, nil
}

func (c *memorySessionCache) Set(ctx context.Context, s *CachedSession, ttl time.Duration) error {
	if s == nil || s.SessionID == uuid.Nil {
		return nil
	}
	now := time.Now()
	ttl = clampTTL(s, ttl, now)
	if ttl <= 0 {
		return c.Delete(ctx, s.SessionID)
	}
	c.lru.Add(s.SessionID, memoryEntry{session: *s, deadline: now.Add(ttl)})
	return nil
}

func (c *memorySessionCache) Delete(_ context.Context, sessionIDs ...uuid.UUID) error {
	for _, id := range sessionIDs {
		c.lru.Remove(id)
	}
	return nil
}

func (c *memorySessionCache) DeleteUser(_ context.Context, userID uuid.UUID) error {
	for _, id := range c.lru.Keys() {
		if e, ok := c.lru.Peek(id); ok && e.session.UserID == userID {
			c.lru.Remove(id)
		}
	}
	return nil
}

func (c *memorySessionCache) RefreshUser(_ context.Context, user *types.User) error {
	if user == nil {
		return nil
	}
	for _, id := range c.lru.Keys() {
		e, ok := c.lru.Peek(id)
		if !ok || e.session.UserID != user.ID {
			continue
		}
		e.session.User = user
		// Re-adding resets the LRU clock; the per-entry deadline is kept.
		c.lru.Add(id, e)
	}
	return nil
}
