package dialogue

import (
	"context"
	"encoding/json"
	"time"

	"roomwise/models"

	"github.com/go-redis/redis/v8"
)

const contextPrefix = "chat:ctx:"

// ContextStore persists per-user dialogue state between turns.
type ContextStore interface {
	Get(ctx context.Context, userID string) (*models.DialogueContext, error)
	Set(ctx context.Context, userID string, dc *models.DialogueContext) error
	Clear(ctx context.Context, userID string) error
}

// RedisContextStore stores dialogue contexts in Redis with a TTL, which
// doubles as the eviction policy for abandoned sessions.
type RedisContextStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisContextStore(client *redis.Client, ttl time.Duration) *RedisContextStore {
	return &RedisContextStore{client: client, ttl: ttl}
}

func (s *RedisContextStore) Get(ctx context.Context, userID string) (*models.DialogueContext, error) {
	key := contextPrefix + userID
	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return &models.DialogueContext{}, nil
	}
	if err != nil {
		return nil, err
	}
	var dc models.DialogueContext
	if err := json.Unmarshal([]byte(data), &dc); err != nil {
		return nil, err
	}
	return &dc, nil
}

func (s *RedisContextStore) Set(ctx context.Context, userID string, dc *models.DialogueContext) error {
	key := contextPrefix + userID
	b, err := json.Marshal(dc)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, b, s.ttl).Err()
}

func (s *RedisContextStore) Clear(ctx context.Context, userID string) error {
	key := contextPrefix + userID
	return s.client.Del(ctx, key).Err()
}
