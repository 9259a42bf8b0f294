package kv

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/bookstore-backend/pkg/redis"
)

// Redis adapts the shared redis client to the Store port. Keys are namespaced
// by the client.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.client.Get(ctx, r.client.Key(key))
	if errors.Is(err, redis.ErrNil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.client.Key(key), value, ttl)
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.client.Key(key))
}
