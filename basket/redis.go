package basket

import (
	"context"
	"encoding/json"
	"fmt"

	"branch-order-api/config"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps each user's basket as a JSON blob under basket:<id>.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(cfg config.RedisConfig) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func key(userID uint) string {
	return fmt.Sprintf("basket:%d", userID)
}

func (s *RedisStore) Items(ctx context.Context, userID uint) ([]Item, error) {
	data, err := s.client.Get(ctx, key(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Clear deletes the basket key. DEL on a missing key is a no-op, which
// keeps clearing idempotent.
func (s *RedisStore) Clear(ctx context.Context, userID uint) error {
	return s.client.Del(ctx, key(userID)).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
