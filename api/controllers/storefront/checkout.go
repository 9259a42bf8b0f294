package storefront

import (
	"context"
	"net/http"

	"github.com/angelmondragon/bookstore-backend/api/responses"
	"github.com/angelmondragon/bookstore-backend/api/validators"
	"github.com/angelmondragon/bookstore-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

// Pricer computes checkout totals.
type Pricer interface {
	Compute(ctx context.Context, lines []types.CartLine, countryCode, displayCurrency string) (pricing.CheckoutTotals, error)
}

type checkoutSummary struct {
	Lines  []types.CartLine       `json:"lines"`
	Totals pricing.CheckoutTotals `json:"totals"`
}

// CheckoutSummary serves GET /api/v1/checkout/summary?country=XX&currency=YYY
// over the active cart of the request identity.
func CheckoutSummary(carts CartResolver, pricer Pricer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pricer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing unavailable"))
			return
		}
		query, err := validators.ParseCheckoutQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store, ok := resolveStore(w, r, carts, logg)
		if !ok {
			return
		}

		lines, err := store.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		totals, err := pricer.Compute(r.Context(), lines, query.Country, query.Currency)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, checkoutSummary{Lines: lines, Totals: totals})
	}
}
