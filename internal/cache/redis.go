package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// UnreadCache caches per-user unread totals. It is a projection only: the
// message collection stays the source of truth, and every mutation path
// invalidates the cached value. A nil *UnreadCache is a no-op, so the service
// runs without Redis.
type UnreadCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewUnreadCache(rdb *redis.Client, ttl time.Duration) *UnreadCache {
	return &UnreadCache{rdb: rdb, ttl: ttl}
}

func key(userID string) string { return "unread:" + userID }

func (c *UnreadCache) Get(ctx context.Context, userID string) (int64, bool) {
	if c == nil {
		return 0, false
	}
	v, err := c.rdb.Get(ctx, key(userID)).Result()
	if err != nil {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (c *UnreadCache) Set(ctx context.Context, userID string, n int64) {
	if c == nil {
		return
	}
	_ = c.rdb.Set(ctx, key(userID), strconv.FormatInt(n, 10), c.ttl).Err()
}

func (c *UnreadCache) Invalidate(ctx context.Context, userIDs ...string) {
	if c == nil || len(userIDs) == 0 {
		return
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = key(id)
	}
	_ = c.rdb.Del(ctx, keys...).Err()
}
