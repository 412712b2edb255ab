package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Cache key pattern:
// - unread:{user_id} - global unread badge, short TTL plus explicit
//   invalidation on send and on seen transitions.

const defaultBadgeTTL = 30 * time.Second

// UnreadBadgeCache keeps the global unread badge at O(1) read cost so the
// precise strategy's per-conversation sub-queries only run on a miss.
type UnreadBadgeCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewUnreadBadgeCache(client *goredis.Client, ttl time.Duration) *UnreadBadgeCache {
	if ttl <= 0 {
		ttl = defaultBadgeTTL
	}
	return &UnreadBadgeCache{client: client, ttl: ttl}
}

func badgeKey(userID string) string {
	return fmt.Sprintf("unread:%s", userID)
}

// Get returns the cached badge and whether it was present.
func (c *UnreadBadgeCache) Get(ctx context.Context, userID string) (int, bool, error) {
	data, err := c.client.Get(ctx, badgeKey(userID)).Result()
	if err == goredis.Nil {
		return 0, false, nil // Cache miss
	}
	if err != nil {
		return 0, false, err
	}
	count, err := strconv.Atoi(data)
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

func (c *UnreadBadgeCache) Set(ctx context.Context, userID string, count int) error {
	return c.client.Set(ctx, badgeKey(userID), strconv.Itoa(count), c.ttl).Err()
}

func (c *UnreadBadgeCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, badgeKey(userID)).Err()
}
