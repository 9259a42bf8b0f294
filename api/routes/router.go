package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/bookstore-backend/api/controllers"
	"github.com/angelmondragon/bookstore-backend/api/middleware"
	"github.com/angelmondragon/bookstore-backend/internal/books"
	"github.com/angelmondragon/bookstore-backend/internal/sessioncart"
	"github.com/angelmondragon/bookstore-backend/internal/shipping"
	"github.com/angelmondragon/bookstore-backend/pkg/config"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/metrics"
)

// NewRouter builds the backend API: catalog reads, shipping rates and the
// session cart of authenticated users.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	httpMetrics *metrics.HTTPMetrics,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	bookService books.Service,
	shippingService shipping.Service,
	cartService sessioncart.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"postgres": dbP,
			"redis":    redisP,
		}))
	})

	r.Get("/books/{bookId}", controllers.BookGet(bookService, logg))
	r.Get("/shipping-rate/{countryCode}", controllers.ShippingRateGet(shippingService, logg))

	r.Route("/cart", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Get("/", controllers.CartList(cartService, logg))
		r.Delete("/", controllers.CartClear(cartService, logg))
		r.Post("/add", controllers.CartAdd(cartService, logg))
		r.Put("/{lineId}", controllers.CartUpdate(cartService, logg))
		r.Delete("/{lineId}", controllers.CartRemove(cartService, logg))
	})

	return r
}
