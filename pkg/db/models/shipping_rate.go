package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShippingRate is the configured cost and delivery window for one destination country.
type ShippingRate struct {
	CountryCode     string          `gorm:"column:country_code;type:char(2);primaryKey"`
	Cost            decimal.Decimal `gorm:"column:cost;type:numeric(12,2);not null"`
	MinDeliveryDays int             `gorm:"column:min_delivery_days;not null"`
	MaxDeliveryDays int             `gorm:"column:max_delivery_days;not null"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
