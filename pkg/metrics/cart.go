package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bookstore"

// CartMetrics records cart mutations, login reconciliation and checkout pricing.
type CartMetrics struct {
	stockRejections     *prometheus.CounterVec
	rateCacheLookups    *prometheus.CounterVec
	conversionFallbacks *prometheus.CounterVec
	reconciledLines     *prometheus.CounterVec
	reconcileDuration   prometheus.Histogram
}

// NewCartMetrics registers the cart metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	stockRejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_stock_rejections_total",
		Help:      "Cart mutations rejected by the stock rules.",
	}, []string{"store", "code"})
	rateCacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "exchange_rate_cache_lookups_total",
		Help:      "Exchange-rate table lookups by cache result.",
	}, []string{"result"})
	conversionFallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_conversion_fallbacks_total",
		Help:      "Checkout amounts shown in the base currency because conversion failed.",
	}, []string{"currency"})
	reconciledLines := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_reconcile_lines_total",
		Help:      "Guest cart lines processed at login, by outcome.",
	}, []string{"outcome"})
	reconcileDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cart_reconcile_duration_seconds",
		Help:      "Duration of guest-to-session cart reconciliation.",
		Buckets:   prometheus.DefBuckets,
	})
	reg.MustRegister(stockRejections, rateCacheLookups, conversionFallbacks, reconciledLines, reconcileDuration)
	return &CartMetrics{
		stockRejections:     stockRejections,
		rateCacheLookups:    rateCacheLookups,
		conversionFallbacks: conversionFallbacks,
		reconciledLines:     reconciledLines,
		reconcileDuration:   reconcileDuration,
	}
}

func (c *CartMetrics) IncStockRejection(store, code string) {
	if c == nil || c.stockRejections == nil {
		return
	}
	c.stockRejections.WithLabelValues(normalizeLabel(store), normalizeLabel(code)).Inc()
}

func (c *CartMetrics) IncRateCacheHit() {
	if c == nil || c.rateCacheLookups == nil {
		return
	}
	c.rateCacheLookups.WithLabelValues("hit").Inc()
}

func (c *CartMetrics) IncRateCacheMiss() {
	if c == nil || c.rateCacheLookups == nil {
		return
	}
	c.rateCacheLookups.WithLabelValues("miss").Inc()
}

func (c *CartMetrics) IncConversionFallback(currency string) {
	if c == nil || c.conversionFallbacks == nil {
		return
	}
	c.conversionFallbacks.WithLabelValues(normalizeLabel(currency)).Inc()
}

// ObserveReconcile records one reconciliation run.
func (c *CartMetrics) ObserveReconcile(migrated, failed int, duration time.Duration) {
	if c == nil || c.reconciledLines == nil {
		return
	}
	c.reconciledLines.WithLabelValues("migrated").Add(float64(migrated))
	c.reconciledLines.WithLabelValues("failed").Add(float64(failed))
	c.reconcileDuration.Observe(duration.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
