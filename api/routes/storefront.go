package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/bookstore-backend/api/controllers"
	"github.com/angelmondragon/bookstore-backend/api/controllers/storefront"
	"github.com/angelmondragon/bookstore-backend/api/middleware"
	"github.com/angelmondragon/bookstore-backend/pkg/config"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/metrics"
)

// StorefrontDeps groups what the storefront edge router needs.
type StorefrontDeps struct {
	Carts       storefront.CartResolver
	Pricer      storefront.Pricer
	Reconciler  storefront.Reconciler
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
	Redis       controllers.Pinger
}

// NewStorefrontRouter builds the edge service that owns guest carts, proxies
// session carts to the backend and prices checkout.
func NewStorefrontRouter(cfg *config.Config, logg *logger.Logger, deps StorefrontDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"redis": deps.Redis,
		}))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Guest(cfg.Storefront.GuestCookieTTL, cfg.App.IsProd(), logg))
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", storefront.CartGet(deps.Carts, logg))
			r.Delete("/", storefront.CartClear(deps.Carts, logg))
			r.Post("/items", storefront.CartAddItem(deps.Carts, logg))
			r.Put("/items/{lineId}", storefront.CartUpdateItem(deps.Carts, logg))
			r.Delete("/items/{lineId}", storefront.CartRemoveItem(deps.Carts, logg))
			r.Post("/refresh", storefront.CartRefresh(deps.Carts, logg))
		})

		r.Get("/checkout/summary", storefront.CheckoutSummary(deps.Carts, deps.Pricer, logg))

		r.With(middleware.Auth(cfg.JWT, logg)).
			Post("/session/login", storefront.SessionLogin(deps.Carts, deps.Reconciler, logg))
	})

	return r
}
