package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog listing. The cart freezes PriceCents at add
// time; later price edits never touch existing line items.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU         string           `gorm:"column:sku;not null;unique"`
	Name        string           `gorm:"column:name;not null"`
	Description *string          `gorm:"column:description"`
	ImageURL    *string          `gorm:"column:image_url"`
	PriceCents  int64            `gorm:"column:price_cents;not null"`
	Currency    string           `gorm:"column:currency;not null;default:'USD'"`
	IsActive    bool             `gorm:"column:is_active;not null;default:true"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductVariant qualifies a product by size/color. VariantKey is the stable
// composite the cart uses to tell two variants of one product apart.
type ProductVariant struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID       uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	VariantKey      string    `gorm:"column:variant_key;not null"`
	Size            *string   `gorm:"column:size"`
	Color           *string   `gorm:"column:color"`
	PriceDeltaCents int64     `gorm:"column:price_delta_cents;not null;default:0"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
