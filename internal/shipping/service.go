package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/pkg/config"
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

type rateReader interface {
	FindByCountry(ctx context.Context, countryCode string) (*models.ShippingRate, error)
}

// Service resolves the shipping rate for a destination country.
type Service interface {
	RateFor(ctx context.Context, countryCode string) (types.ShippingRate, error)
}

type service struct {
	repo     rateReader
	defaults config.ShippingConfig
}

func NewService(repo rateReader, defaults config.ShippingConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipping repository required")
	}
	if defaults.DefaultCost.IsNegative() {
		return nil, fmt.Errorf("default shipping cost must be non-negative")
	}
	return &service{repo: repo, defaults: defaults}, nil
}

// RateFor returns the configured rate, or the default flagged with IsDefault
// when the country has none.
func (s *service) RateFor(ctx context.Context, countryCode string) (types.ShippingRate, error) {
	code := strings.ToUpper(strings.TrimSpace(countryCode))
	if !validCountryCode(code) {
		return types.ShippingRate{}, pkgerrors.New(pkgerrors.CodeValidation, "country code must be two letters")
	}

	row, err := s.repo.FindByCountry(ctx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.ShippingRate{
			CountryCode:     code,
			ShippingCost:    s.defaults.DefaultCost,
			MinDeliveryDays: s.defaults.DefaultMinDays,
			MaxDeliveryDays: s.defaults.DefaultMaxDays,
			IsDefault:       true,
		}, nil
	}
	if err != nil {
		return types.ShippingRate{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shipping rate")
	}
	return types.ShippingRate{
		CountryCode:     row.CountryCode,
		ShippingCost:    row.Cost,
		MinDeliveryDays: row.MinDeliveryDays,
		MaxDeliveryDays: row.MaxDeliveryDays,
	}, nil
}

func validCountryCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
