package cart

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/kv"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/metrics"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

const storeSession = "session"

// SessionAPI is the backend cart surface, authenticated by the caller's token.
type SessionAPI interface {
	ListCart(ctx context.Context, token string) ([]types.CartLine, error)
	AddCartItem(ctx context.Context, token string, bookID int64, quantity int) (types.CartLine, error)
	UpdateCartItem(ctx context.Context, token, lineID string, quantity int) (types.CartLine, error)
	RemoveCartItem(ctx context.Context, token, lineID string) error
	ClearCart(ctx context.Context, token string) error
}

// SessionStore mirrors the server-resident cart of an authenticated shopper.
// Stock rules are enforced by the server; its errors are passed through.
// The last fetched view is cached briefly and dropped after every mutation.
type SessionStore struct {
	api     SessionAPI
	kv      kv.Store
	views   *singleflight.Group
	gens    *viewGenerations
	token   string
	key     string
	ttl     time.Duration
	logg    *logger.Logger
	metrics *metrics.CartMetrics
}

func sessionViewKey(userID string) string {
	return "cart:session:" + userID
}

// List returns the cached view or fetches it; concurrent misses share one fetch.
func (s *SessionStore) List(ctx context.Context) ([]Line, error) {
	var cached []Line
	err := kv.GetJSON(ctx, s.kv, s.key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, kv.ErrNotFound) && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.session.view_read_failed")
	}

	v, err, _ := s.views.Do(s.key, func() (any, error) {
		gen := s.gens.current(s.key)
		lines, err := s.api.ListCart(ctx, s.token)
		if err != nil {
			return nil, err
		}
		if lines == nil {
			lines = []Line{}
		}
		s.publish(ctx, gen, lines)
		return lines, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Line), nil
}

func (s *SessionStore) Add(ctx context.Context, bookID int64, quantity int) (Line, error) {
	defer s.invalidate(ctx)
	line, err := s.api.AddCartItem(ctx, s.token, bookID, quantity)
	if err != nil {
		recordRejection(s.metrics, storeSession, err)
		return Line{}, err
	}
	return line, nil
}

func (s *SessionStore) Update(ctx context.Context, lineID string, quantity int) (Line, error) {
	defer s.invalidate(ctx)
	line, err := s.api.UpdateCartItem(ctx, s.token, lineID, quantity)
	if err != nil {
		recordRejection(s.metrics, storeSession, err)
		return Line{}, err
	}
	return line, nil
}

func (s *SessionStore) Remove(ctx context.Context, lineID string) error {
	defer s.invalidate(ctx)
	return s.api.RemoveCartItem(ctx, s.token, lineID)
}

func (s *SessionStore) Clear(ctx context.Context) error {
	defer s.invalidate(ctx)
	return s.api.ClearCart(ctx, s.token)
}

// publish caches a fetched view unless a mutation invalidated the key while
// the fetch was running. The generation is checked again after the write
// because an invalidation can land between the check and the Set.
func (s *SessionStore) publish(ctx context.Context, gen uint64, lines []Line) {
	if s.ttl <= 0 || s.gens.current(s.key) != gen {
		return
	}
	if err := kv.SetJSON(ctx, s.kv, s.key, lines, s.ttl); err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.session.view_write_failed")
		}
		return
	}
	if s.gens.current(s.key) != gen {
		if err := s.kv.Remove(ctx, s.key); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.session.invalidate_failed")
		}
	}
}

// Invalidate drops the cached view so the next List re-fetches. Fetches
// already in flight are detached and will not publish their result.
func (s *SessionStore) Invalidate(ctx context.Context) error {
	s.gens.bump(s.key)
	s.views.Forget(s.key)
	return s.kv.Remove(ctx, s.key)
}

func (s *SessionStore) invalidate(ctx context.Context) {
	if err := s.Invalidate(ctx); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.session.invalidate_failed")
	}
}

func recordRejection(m *metrics.CartMetrics, store string, err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		return
	}
	switch typed.Code() {
	case pkgerrors.CodeOutOfStock, pkgerrors.CodeStockExceeded:
		m.IncStockRejection(store, string(typed.Code()))
	}
}
