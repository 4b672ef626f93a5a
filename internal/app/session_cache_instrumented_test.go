package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/gtd-backend/internal/data/cache"
	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/observability"
)

func TestInstrumentSessionCachePassThrough(t *testing.T) {
	metrics := observability.NewMetrics()
	sc := instrumentSessionCache("memory", cache.NewMemorySessionCache(16, time.Hour), metrics)

	user := &types.User{ID: uuid.New(), Email: "a@example.com"}
	sess := &cache.CachedSession{SessionID: uuid.New(), UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour), User: user}
	if err := sc.Set(context.Background(), sess, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := sc.Get(context.Background(), sess.SessionID)
	if err != nil || got == nil {
		t.Fatalf("Get: got=%v err=%v", got, err)
	}
	if got, _ := sc.Get(context.Background(), uuid.New()); got != nil {
		t.Fatalf("Get unknown: expected miss")
	}
	if err := sc.DeleteUser(context.Background(), user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`gtd_session_cache_operations_total{backend="memory",operation="get",status="success"} 2`,
		`gtd_session_cache_lookups_total{result="hit"} 1`,
		`gtd_session_cache_lookups_total{result="miss"} 1`,
		`gtd_session_cache_operations_total{backend="memory",operation="delete_user",status="success"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestInstrumentSessionCacheErrorPassThrough(t *testing.T) {
	want := errors.New("redis down")
	sc := instrumentSessionCache("redis", failingCache{err: want}, observability.NewMetrics())
	if err := sc.Delete(context.Background(), uuid.New()); !errors.Is(err, want) {
		t.Fatalf("Delete: expected %v, got=%v", want, err)
	}
}

func TestInstrumentSessionCacheWithoutMetrics(t *testing.T) {
	inner := cache.NewMemorySessionCache(4, time.Hour)
	if got := instrumentSessionCache("memory", inner, nil); got != inner {
		t.Fatalf("expected the inner cache back when metrics are disabled")
	}
}

type failingCache struct{ err error }

func (f failingCache) Get(context.Context, uuid.UUID) (*cache.CachedSession, error) { return nil, f.err }
func (f failingCache) Set(context.Context, *cache.CachedSession, time.Duration) error { return f.err }
func (f failingCache) Delete(context.Context, ...uuid.UUID) error                      { return f.err }
func (f failingCache) DeleteUser(context.Context, uuid.UUID) error                     { return f.err }
func (f failingCache) RefreshUser(context.Context, *types.User) error                  { return f.err }
