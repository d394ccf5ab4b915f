package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisDocuments interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisSink stores each collection document under <prefix><collection>.
type RedisSink struct {
	client redisDocuments
	prefix string
}

// NewRedisSink wraps a go-redis client (or anything with Get/Set).
func NewRedisSink(client redisDocuments, prefix string) *RedisSink {
	return &RedisSink{client: client, prefix: prefix}
}

func (s *RedisSink) key(c Collection) string { return s.prefix + string(c) }

// Load fetches the document; redis.Nil means it was never saved.
func (s *RedisSink) Load(ctx context.Context, collection Collection) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(collection)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key(collection), err)
	}
	return data, nil
}

// Save overwrites the document without expiry.
func (s *RedisSink) Save(ctx context.Context, collection Collection, payload []byte) error {
	if err := s.client.Set(ctx, s.key(collection), payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key(collection), err)
	}
	return nil
}
