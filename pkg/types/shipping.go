package types

import "github.com/shopspring/decimal"

// ShippingRate is the response of GET /shipping-rate/{countryCode}.
type ShippingRate struct {
	CountryCode     string          `json:"countryCode"`
	ShippingCost    decimal.Decimal `json:"shippingCost"`
	MinDeliveryDays int             `json:"minDeliveryDays"`
	MaxDeliveryDays int             `json:"maxDeliveryDays"`
	IsDefault       bool            `json:"isDefault"`
}
