package pricing

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bookstore-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/metrics"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

// ShippingRates looks up the per-country shipping rate.
type ShippingRates interface {
	ShippingRate(ctx context.Context, countryCode string) (types.ShippingRate, error)
}

// Converter returns the multiplier between two currencies.
type Converter interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// Engine computes checkout totals for a set of cart lines.
type Engine struct {
	baseCurrency    string
	taxRate         decimal.Decimal
	defaultShipping decimal.Decimal
	shipping        ShippingRates
	rates           Converter
	logg            *logger.Logger
	metrics         *metrics.CartMetrics
}

func NewEngine(cfg config.PricingConfig, shipping ShippingRates, rates Converter, logg *logger.Logger, m *metrics.CartMetrics) *Engine {
	base := strings.ToUpper(strings.TrimSpace(cfg.BaseCurrency))
	if base == "" {
		base = "USD"
	}
	return &Engine{
		baseCurrency:    base,
		taxRate:         cfg.TaxRate,
		defaultShipping: cfg.DefaultShippingCost,
		shipping:        shipping,
		rates:           rates,
		logg:            logg,
		metrics:         m,
	}
}

// BaseCurrency is the catalog's accounting currency.
func (e *Engine) BaseCurrency() string {
	return e.baseCurrency
}

// Compute prices lines for delivery to countryCode. Totals are always
// produced in the base currency; a display currency that cannot be reached
// leaves the affected amounts in base currency and marks the result degraded.
func (e *Engine) Compute(ctx context.Context, lines []types.CartLine, countryCode, displayCurrency string) (CheckoutTotals, error) {
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	if countryCode == "" {
		return CheckoutTotals{}, pkgerrors.New(pkgerrors.CodeValidation, "country is required")
	}
	display := strings.ToUpper(strings.TrimSpace(displayCurrency))
	if display == "" {
		display = e.baseCurrency
	}

	subtotal := decimal.Zero
	items := 0
	for _, line := range lines {
		subtotal = subtotal.Add(line.Book.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items += line.Quantity
	}

	totals := CheckoutTotals{
		DisplayCurrency: display,
		CountryCode:     countryCode,
		ItemCount:       items,
	}

	shippingCost := e.resolveShipping(ctx, countryCode, &totals)
	tax := subtotal.Mul(e.taxRate)

	subtotal = round(subtotal)
	shippingCost = round(shippingCost)
	tax = round(tax)
	grand := subtotal.Add(shippingCost).Add(tax)

	totals.ShippingFree = shippingCost.IsZero()
	totals.Base = Amounts{
		Subtotal:     e.money(subtotal),
		ShippingCost: e.money(shippingCost),
		Tax:          e.money(tax),
		GrandTotal:   e.money(grand),
	}

	if display == e.baseCurrency {
		totals.Display = totals.Base
		return totals, nil
	}

	totals.Display = Amounts{
		Subtotal:     e.convert(ctx, totals.Base.Subtotal, display, &totals),
		ShippingCost: e.convert(ctx, totals.Base.ShippingCost, display, &totals),
		Tax:          e.convert(ctx, totals.Base.Tax, display, &totals),
		GrandTotal:   e.convert(ctx, totals.Base.GrandTotal, display, &totals),
	}
	return totals, nil
}

func (e *Engine) money(amount decimal.Decimal) Money {
	return Money{Amount: amount, Currency: e.baseCurrency}
}

func (e *Engine) resolveShipping(ctx context.Context, countryCode string, totals *CheckoutTotals) decimal.Decimal {
	if e.shipping == nil {
		totals.ShippingIsDefault = true
		return e.defaultShipping
	}
	rate, err := e.shipping.ShippingRate(ctx, countryCode)
	if err != nil {
		if e.logg != nil && !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			e.logg.Warn(e.logg.WithFields(ctx, map[string]any{
				"country_code": countryCode,
				"error":        err.Error(),
			}), "pricing.shipping.lookup_failed")
		}
		totals.ShippingIsDefault = true
		return e.defaultShipping
	}
	// The backend owns the rate table, its default included; the configured
	// default only covers a failed lookup.
	totals.MinDeliveryDays = rate.MinDeliveryDays
	totals.MaxDeliveryDays = rate.MaxDeliveryDays
	totals.ShippingIsDefault = rate.IsDefault
	return rate.ShippingCost
}

func (e *Engine) convert(ctx context.Context, amount Money, currency string, totals *CheckoutTotals) Money {
	if e.rates == nil {
		e.fallback(ctx, currency, nil, totals)
		return amount
	}
	rate, err := e.rates.Rate(ctx, amount.Currency, currency)
	if err != nil {
		e.fallback(ctx, currency, err, totals)
		return amount
	}
	return Money{Amount: round(amount.Amount.Mul(rate)), Currency: currency}
}

func (e *Engine) fallback(ctx context.Context, currency string, err error, totals *CheckoutTotals) {
	totals.Degraded = true
	e.metrics.IncConversionFallback(currency)
	if e.logg == nil {
		return
	}
	fields := map[string]any{"currency": currency}
	if err != nil {
		fields["error"] = err.Error()
	}
	e.logg.Warn(e.logg.WithFields(ctx, fields), "pricing.conversion.fallback")
}
