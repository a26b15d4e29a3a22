package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/baseemali/neushop-backend/pkg/enums"
)

// ShippingRate prices one service level for a destination country.
type ShippingRate struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Country           string               `gorm:"column:country;not null;uniqueIndex:idx_shipping_rates_country_method"`
	Method            enums.ShippingMethod `gorm:"column:method;not null;uniqueIndex:idx_shipping_rates_country_method"`
	AmountCents       int64                `gorm:"column:amount_cents;not null"`
	FreeAboveCents    *int64               `gorm:"column:free_above_cents"`
	EstimatedDaysMin  int                  `gorm:"column:estimated_days_min;not null;default:2"`
	EstimatedDaysMax  int                  `gorm:"column:estimated_days_max;not null;default:7"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
