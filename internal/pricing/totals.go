package pricing

import "github.com/shopspring/decimal"

// Money is an amount tagged with the currency it is expressed in.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// Amounts is one rendering of the four checkout figures. Each amount carries
// its own currency so a partially converted display stays unambiguous.
type Amounts struct {
	Subtotal     Money `json:"subtotal"`
	ShippingCost Money `json:"shippingCost"`
	Tax          Money `json:"tax"`
	GrandTotal   Money `json:"grandTotal"`
}

// CheckoutTotals is derived on every request and never persisted.
type CheckoutTotals struct {
	Base              Amounts `json:"base"`
	Display           Amounts `json:"display"`
	DisplayCurrency   string  `json:"displayCurrency"`
	Degraded          bool    `json:"degraded"`
	ShippingFree      bool    `json:"shippingFree"`
	ShippingIsDefault bool    `json:"shippingIsDefault"`
	MinDeliveryDays   int     `json:"minDeliveryDays"`
	MaxDeliveryDays   int     `json:"maxDeliveryDays"`
	CountryCode       string  `json:"countryCode"`
	ItemCount         int     `json:"itemCount"`
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
