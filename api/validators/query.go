package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
)

// CheckoutQuery carries the destination and display currency of a checkout summary.
type CheckoutQuery struct {
	Country  string `query:"country" validate:"required,iso3166_1_alpha2"`
	Currency string `query:"currency" validate:"omitempty,iso4217"`
}

// ParseCheckoutQuery reads and validates ?country=&currency=. Codes are upper-cased.
func ParseCheckoutQuery(r *http.Request) (CheckoutQuery, error) {
	q := CheckoutQuery{
		Country:  strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("country"))),
		Currency: strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("currency"))),
	}
	if err := Struct(&q); err != nil {
		return CheckoutQuery{}, err
	}
	return q, nil
}

// ParseIDParam reads a positive integer chi URL parameter.
func ParseIDParam(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a positive integer").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

// ParseStringParam reads a required chi URL parameter.
func ParseStringParam(r *http.Request, key string) (string, error) {
	value := strings.TrimSpace(chi.URLParam(r, key))
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "path parameter is required").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}
