package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/fx"
	"github.com/angelmondragon/bookstore-backend/pkg/kv"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/metrics"
)

const defaultRateTTL = time.Hour

// ErrConversionUnavailable marks a rate that could not be obtained.
var ErrConversionUnavailable = errors.New("currency conversion unavailable")

// RateSource fetches a fresh rate table for a base currency.
type RateSource interface {
	Latest(ctx context.Context, base string) (fx.RateTable, error)
}

type cachedTable struct {
	Base      string                     `json:"base"`
	Rates     map[string]decimal.Decimal `json:"rates"`
	ExpiresAt time.Time                  `json:"expiresAt"`
}

// RateCache keeps one rate table per base currency in the key-value port.
// Concurrent misses for the same base share a single provider call.
type RateCache struct {
	kv      kv.Store
	source  RateSource
	ttl     time.Duration
	now     func() time.Time
	group   singleflight.Group
	logg    *logger.Logger
	metrics *metrics.CartMetrics
}

func NewRateCache(store kv.Store, source RateSource, ttl time.Duration, logg *logger.Logger, m *metrics.CartMetrics) *RateCache {
	if ttl <= 0 {
		ttl = defaultRateTTL
	}
	return &RateCache{
		kv:      store,
		source:  source,
		ttl:     ttl,
		now:     time.Now,
		logg:    logg,
		metrics: m,
	}
}

func rateKey(base string) string {
	return "fx:rates:" + base
}

// Table returns the rate table for base, serving the cached copy until it expires.
func (c *RateCache) Table(ctx context.Context, base string) (fx.RateTable, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	key := rateKey(base)

	var cached cachedTable
	err := kv.GetJSON(ctx, c.kv, key, &cached)
	switch {
	case err == nil && c.now().Before(cached.ExpiresAt):
		c.metrics.IncRateCacheHit()
		return fx.RateTable{Base: cached.Base, Rates: cached.Rates}, nil
	case err != nil && !errors.Is(err, kv.ErrNotFound) && c.logg != nil:
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "pricing.rates.cache_read_failed")
	}
	c.metrics.IncRateCacheMiss()

	v, err, _ := c.group.Do(base, func() (any, error) {
		table, err := c.source.Latest(ctx, base)
		if err != nil {
			return nil, err
		}
		entry := cachedTable{Base: table.Base, Rates: table.Rates, ExpiresAt: c.now().Add(c.ttl)}
		if err := kv.SetJSON(ctx, c.kv, key, entry, c.ttl); err != nil && c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "pricing.rates.cache_write_failed")
		}
		return table, nil
	})
	if err != nil {
		return fx.RateTable{}, err
	}
	return v.(fx.RateTable), nil
}

// Rate returns the multiplier converting from into to.
func (c *RateCache) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if strings.EqualFold(from, to) {
		return decimal.NewFromInt(1), nil
	}
	table, err := c.Table(ctx, from)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency,
			fmt.Errorf("%w: %w", ErrConversionUnavailable, err),
			fmt.Sprintf("cannot convert %s to %s", from, to))
	}
	rate, ok := table.Rate(to)
	if !ok {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency,
			ErrConversionUnavailable,
			fmt.Sprintf("no rate from %s to %s", from, to))
	}
	return rate, nil
}
