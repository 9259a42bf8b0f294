package shipping

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
)

// Repository reads the per-country shipping table.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByCountry returns the rate row or gorm.ErrRecordNotFound.
func (r *Repository) FindByCountry(ctx context.Context, countryCode string) (*models.ShippingRate, error) {
	var rate models.ShippingRate
	if err := r.db.WithContext(ctx).First(&rate, "country_code = ?", countryCode).Error; err != nil {
		return nil, err
	}
	return &rate, nil
}

// Upsert writes the rate for a country.
func (r *Repository) Upsert(ctx context.Context, rate *models.ShippingRate) error {
	return r.db.WithContext(ctx).Save(rate).Error
}
