package controllers

import (
	"net/http"

	"github.com/angelmondragon/bookstore-backend/api/responses"
	"github.com/angelmondragon/bookstore-backend/api/validators"
	"github.com/angelmondragon/bookstore-backend/internal/shipping"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
)

// ShippingRateGet serves GET /shipping-rate/{countryCode}. Countries without a
// configured rate get the default with isDefault set.
func ShippingRateGet(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shipping service unavailable"))
			return
		}

		code, err := validators.ParseStringParam(r, "countryCode")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rate, err := svc.RateFor(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rate)
	}
}
