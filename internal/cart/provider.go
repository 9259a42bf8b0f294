package cart

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/bookstore-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/kv"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/metrics"
)

const defaultRefreshConcurrency = 8

// Provider builds the cart store matching a request identity. It is created
// once per process and shares the lock table and view fetches across requests.
type Provider struct {
	kv        kv.Store
	inventory Inventory
	session   SessionAPI
	cfg       config.CartConfig
	logg      *logger.Logger
	metrics   *metrics.CartMetrics

	locks stripedLocks
	views singleflight.Group
	gens  viewGenerations
	now   func() time.Time
	newID func() string
}

func NewProvider(store kv.Store, inventory Inventory, session SessionAPI, cfg config.CartConfig, logg *logger.Logger, m *metrics.CartMetrics) *Provider {
	return &Provider{
		kv:        store,
		inventory: inventory,
		session:   session,
		cfg:       cfg,
		logg:      logg,
		metrics:   m,
		now:       time.Now,
		newID: func() string {
			return uuid.Must(uuid.NewV7()).String()
		},
	}
}

// Anonymous returns the guest cart stored under guestID.
func (p *Provider) Anonymous(guestID string) *AnonymousStore {
	fanOut := p.cfg.RefreshConcurrency
	if fanOut <= 0 {
		fanOut = defaultRefreshConcurrency
	}
	return &AnonymousStore{
		kv:        p.kv,
		inventory: p.inventory,
		locks:     &p.locks,
		key:       anonymousKey(guestID),
		ttl:       p.cfg.AnonymousTTL,
		fanOut:    fanOut,
		now:       p.now,
		newID:     p.newID,
		logg:      p.logg,
		metrics:   p.metrics,
	}
}

// Session returns the server-resident cart of an authenticated identity.
func (p *Provider) Session(identity Identity) *SessionStore {
	return &SessionStore{
		api:     p.session,
		kv:      p.kv,
		views:   &p.views,
		gens:    &p.gens,
		token:   identity.Token,
		key:     sessionViewKey(identity.UserID),
		ttl:     p.cfg.SessionViewTTL,
		logg:    p.logg,
		metrics: p.metrics,
	}
}

// For picks the session store when the identity is authenticated and the
// guest store otherwise.
func (p *Provider) For(identity Identity) (Store, error) {
	if identity.Authenticated() {
		return p.Session(identity), nil
	}
	if strings.TrimSpace(identity.GuestID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest cart id is required")
	}
	return p.Anonymous(identity.GuestID), nil
}
