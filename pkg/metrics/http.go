package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records request latency per route.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer, service string) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   namespace,
		Name:        "http_request_duration_seconds",
		Help:        "Duration of HTTP requests in seconds.",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: prometheus.Labels{"service": normalizeLabel(service)},
	}, []string{"method", "route", "status"})
	reg.MustRegister(duration)
	return &HTTPMetrics{duration: duration}
}

func (h *HTTPMetrics) Observe(method, route string, status int, duration time.Duration) {
	if h == nil || h.duration == nil {
		return
	}
	h.duration.WithLabelValues(method, normalizeLabel(route), strconv.Itoa(status)).Observe(duration.Seconds())
}
