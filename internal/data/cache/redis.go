package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
)

type redisSessionCache struct {
	rdb    *goredis.Client
	log    *logger.Logger
	prefix string
	maxTTL time.Duration
}

// NewRedisSessionCache stores sessions under "<prefix>:session:<id>". maxTTL is
// the longest TTL Set will be called with.
func NewRedisSessionCache(rdb *goredis.Client, log *logger.Logger, prefix string, maxTTL time.Duration) SessionCache {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "gtd"
	}
	return &redisSessionCache{
		rdb:    rdb,
		log:    log.With("cache", "RedisSessionCache"),
		prefix: prefix,
		maxTTL: maxTTL,
	}
}

func (c *redisSessionCache) sessionKey(id uuid.UUID) string {
	return fmt.Sprintf("%s:session:%s", c.prefix, id)
}

func (c *redisSessionCache) userKey(id uuid.UUID) string {
	return fmt.Sprintf("%s:user_sessions:%s", c.prefix, id)
}

func (c *redisSessionCache) Get(ctx context.Context, sessionID uuid.UUID) (*CachedSession, error) {
	raw, err := c.rdb.Get(ctx, c.sessionKey(sessionID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s CachedSession
	if err := json.Unmarshal(raw, &s); err != nil {
		// A corrupt entry is treated as a miss; the caller reloads from the database.
		c.log.Warn("Dropping undecodable cached session", "session_id", sessionID, "error", err)
		_ = c.rdb.Del(ctx, c.sessionKey(sessionID)).Err()
		return nil, nil
	}
	return &s, nil
}

func (c *redisSessionCache) Set(ctx context.Context, s *CachedSession, ttl time.Duration) error {
	if s == nil || s.SessionID == uuid.Nil {
		return nil
	}
	if ttl > c.maxTTL {
		ttl = c.maxTTL
	}
	ttl = clampTTL(s, ttl, time.Now())
	if ttl <= 0 {
		return c.Delete(ctx, s.SessionID)
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	userKey := c.userKey(s.UserID)
	_, err = c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, c.sessionKey(s.SessionID), raw, ttl)
		pipe.SAdd(ctx, userKey, s.SessionID.String())
		// The index must outlive every member it points at.
		pipe.Expire(ctx, userKey, c.maxTTL)
		return nil
	})
	return err
}

func (c *redisSessionCache) Delete(ctx context.Context, sessionIDs ...uuid.UUID) error {
	if len(sessionIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(sessionIDs))
	for _, id := range sessionIDs {
		keys = append(keys, c.sessionKey(id))
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *redisSessionCache) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	userKey := c.userKey(userID)
	members, err := c.rdb.SMembers(ctx, userKey).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		keys = append(keys, c.prefix+":session:"+m)
	}
	keys = append(keys, userKey)
	return c.rdb.Del(ctx, keys...).Err()
}

// RefreshUser rewrites the user snapshot in every cached session of that user,
// keeping each entry's remaining TTL.
func (c *redisSessionCache) RefreshUser(ctx context.Context, user *types.User) error {
	if user == nil || user.ID == uuid.Nil {
		return nil
	}
	userKey := c.userKey(user.ID)
	members, err := c.rdb.SMembers(ctx, userKey).Result()
	if err != nil {
		return err
	}
	for _, m := range members {
		sid, err := uuid.Parse(m)
		if err != nil {
			_ = c.rdb.SRem(ctx, userKey, m).Err()
			continue
		}
		s, err := c.Get(ctx, sid)
		if err != nil {
			return err
		}
		if s == nil {
			_ = c.rdb.SRem(ctx, userKey, m).Err()
			continue
		}
		s.User = user
		raw, err := json.Marshal(s)
		if err != nil {
			return err
		}
		if err := c.rdb.SetArgs(ctx, c.sessionKey(sid), raw, goredis.SetArgs{KeepTTL: true, Mode: "XX"}).Err(); err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
	}
	return nil
}
