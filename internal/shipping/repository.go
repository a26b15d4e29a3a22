package shipping

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/baseemali/neushop-backend/pkg/db/models"
	"github.com/baseemali/neushop-backend/pkg/enums"
)

// Repository exposes shipping rate lookups.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindRate loads the rate for one country and service level. Returns
// (nil, nil) when no rate is configured.
func (r *Repository) FindRate(ctx context.Context, country string, method enums.ShippingMethod) (*models.ShippingRate, error) {
	var rate models.ShippingRate
	err := r.db.WithContext(ctx).
		First(&rate, "UPPER(country) = ? AND method = ?", strings.ToUpper(strings.TrimSpace(country)), method).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// ListRates returns every configured rate for a destination country.
func (r *Repository) ListRates(ctx context.Context, country string) ([]models.ShippingRate, error) {
	var rates []models.ShippingRate
	err := r.db.WithContext(ctx).
		Where("UPPER(country) = ?", strings.ToUpper(strings.TrimSpace(country))).
		Order("amount_cents ASC").
		Find(&rates).
		Error
	if err != nil {
		return nil, err
	}
	return rates, nil
}
