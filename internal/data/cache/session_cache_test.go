package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
)

func newSession(userID uuid.UUID, life time.Duration) *CachedSession {
	return &CachedSession{
		SessionID: uuid.New(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(life),
		User:      &types.User{ID: userID, Email: "cache@example.com", FirstName: "Ada"},
	}
}

func exerciseSessionCache(t *testing.T, c SessionCache) {
	t.Helper()
	ctx := context.Background()
	userID := uuid.New()

	miss, err := c.Get(ctx, uuid.New())
	if err != nil || miss != nil {
		t.Fatalf("Get (miss): %v %+v", err, miss)
	}

	a := newSession(userID, time.Hour)
	b := newSession(userID, time.Hour)
	other := newSession(uuid.New(), time.Hour)
	for _, s := range []*CachedSession{a, b, other} {
		if err := c.Set(ctx, s, 10*time.Minute); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}

	got, err := c.Get(ctx, a.SessionID)
	if err != nil || got == nil {
		t.Fatalf("Get: %v %+v", err, got)
	}
	if got.UserID != userID || got.User == nil || got.User.FirstName != "Ada" {
		t.Fatalf("Get: unexpected %+v", got)
	}

	renamed := &types.User{ID: userID, Email: "cache@example.com", FirstName: "Grace"}
	if err := c.RefreshUser(ctx, renamed); err != nil {
		t.Fatalf("RefreshUser: %v", err)
	}
	for _, id := range []uuid.UUID{a.SessionID, b.SessionID} {
		got, err := c.Get(ctx, id)
		if err != nil || got == nil || got.User.FirstName != "Grace" {
			t.Fatalf("RefreshUser: session %s not refreshed: %v %+v", id, err, got)
		}
	}
	got, err = c.Get(ctx, other.SessionID)
	if err != nil || got == nil || got.User.FirstName != "Ada" {
		t.Fatalf("RefreshUser touched another user's session: %v %+v", err, got)
	}

	if err := c.Delete(ctx, a.SessionID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := c.Get(ctx, a.SessionID); got != nil {
		t.Fatalf("Delete: session still cached")
	}

	if err := c.DeleteUser(ctx, userID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if got, _ := c.Get(ctx, b.SessionID); got != nil {
		t.Fatalf("DeleteUser: session still cached")
	}
	if got, _ := c.Get(ctx, other.SessionID); got == nil {
		t.Fatalf("DeleteUser removed another user's session")
	}

	expired := newSession(userID, -time.Minute)
	if err := c.Set(ctx, expired, 10*time.Minute); err != nil {
		t.Fatalf("Set (expired): %v", err)
	}
	if got, _ := c.Get(ctx, expired.SessionID); got != nil {
		t.Fatalf("expired session should not be cached")
	}
}

func TestMemorySessionCache(t *testing.T) {
	exerciseSessionCache(t, NewMemorySessionCache(16, time.Hour))
}

func TestRedisSessionCacheKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	for _, prefix := range []string{"gtd", "gtd:", ""} {
		c := NewRedisSessionCache(rdb, logger.Nop(), prefix, time.Hour)
		s := newSession(uuid.New(), time.Hour)
		if err := c.Set(context.Background(), s, time.Minute); err != nil {
			t.Fatalf("Set(%q): %v", prefix, err)
		}
		if !mr.Exists("gtd:session:" + s.SessionID.String()) {
			t.Fatalf("prefix %q: session key not found in %v", prefix, mr.Keys())
		}
	}
}

func TestRedisSessionCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	c := NewRedisSessionCache(rdb, logger.Nop(), "test", time.Hour)
	exerciseSessionCache(t, c)

	s := newSession(uuid.New(), time.Hour)
	if err := c.Set(context.Background(), s, 5*time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ttl := mr.TTL("test:session:" + s.SessionID.String()); ttl != 5*time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}
	mr.FastForward(6 * time.Minute)
	if got, _ := c.Get(context.Background(), s.SessionID); got != nil {
		t.Fatalf("entry should expire with its ttl")
	}
}
