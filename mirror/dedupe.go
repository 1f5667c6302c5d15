package mirror

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper records seen notification-delivery ids so a redelivered
// envelope is applied once. Add returns true when the id is new.
type Deduper interface {
	Add(ctx context.Context, collection, id string) (bool, error)
}

// RedisDeduper stores seen ids in Redis with a TTL, so restarts within
// the redelivery window still dedup.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDeduper creates a deduper using the provided Redis client
// and TTL.
func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (r *RedisDeduper) key(collection, id string) string {
	return "seen:" + collection + ":" + id
}

// Add records the id if it does not already exist. It returns true
// when the id was newly added.
func (r *RedisDeduper) Add(ctx context.Context, collection, id string) (bool, error) {
	return r.client.SetNX(ctx, r.key(collection, id), 1, r.ttl).Result()
}
