package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/bookstore-backend/pkg/redis"
)

// Manager guards one-shot operations per scope using Redis SETNX with a TTL.
// Keys follow the `bks:idempotency:once:<scope>:<id>` pattern.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// NewManager builds a guard that remembers a claimed id for the given TTL.
func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{
		store: store,
		ttl:   ttl,
	}, nil
}

// Claim marks id as handled within scope. It returns false when the id was
// already claimed by an earlier caller.
func (m *Manager) Claim(ctx context.Context, scope, id string) (bool, error) {
	key, err := m.key(scope, id)
	if err != nil {
		return false, err
	}
	return m.store.SetNX(ctx, key, "1", m.ttl)
}

// Release forgets a claim so the operation may run again.
func (m *Manager) Release(ctx context.Context, scope, id string) error {
	key, err := m.key(scope, id)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) key(scope, id string) (string, error) {
	if strings.TrimSpace(scope) == "" {
		return "", errors.New("scope is required")
	}
	if strings.TrimSpace(id) == "" {
		return "", errors.New("id is required")
	}
	return m.store.IdempotencyKey(fmt.Sprintf("once:%s", scope), id), nil
}
