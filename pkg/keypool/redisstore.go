package keypool

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis key for the shared rotation cursor.
const RedisKeyCursor = "yt:keypool:cursor"

// RedisStore persists the rotation cursor in Redis so that multiple
// processes sharing a key pool also share the rotation position.
type RedisStore struct {
	redis *redis.Client
	key   string
}

// NewRedisStore creates a Redis-backed state store. An empty key uses
// RedisKeyCursor.
func NewRedisStore(redisClient *redis.Client, key string) *RedisStore {
	if key == "" {
		key = RedisKeyCursor
	}
	return &RedisStore{
		redis: redisClient,
		key:   key,
	}
}

// Load reads the cursor from Redis. A missing key is cursor 0.
func (s *RedisStore) Load(ctx context.Context) (int, error) {
	cursor, err := s.redis.Get(ctx, s.key).Int()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get cursor: %w", err)
	}
	if cursor < 0 {
		return 0, nil
	}
	return cursor, nil
}

// Save writes the cursor to Redis without expiry.
func (s *RedisStore) Save(ctx context.Context, cursor int) error {
	if err := s.redis.Set(ctx, s.key, cursor, 0).Err(); err != nil {
		return fmt.Errorf("redis set cursor: %w", err)
	}
	return nil
}
