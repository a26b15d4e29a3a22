package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/baseemali/neushop-backend/pkg/enums"
)

// Coupon is a discount rule validated against the cart subtotal. Value holds
// either a percentage (numeric string, e.g. "10") or a fixed amount in cents
// depending on Type.
type Coupon struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code              string           `gorm:"column:code;not null;unique"`
	Type              enums.CouponType `gorm:"column:type;not null"`
	Value             string           `gorm:"column:value;not null"`
	MinSubtotalCents  int64            `gorm:"column:min_subtotal_cents;not null;default:0"`
	MaxDiscountCents  *int64           `gorm:"column:max_discount_cents"`
	IsActive          bool             `gorm:"column:is_active;not null;default:true"`
	ExpiresAt         *time.Time       `gorm:"column:expires_at"`
	RedemptionCount   int              `gorm:"column:redemption_count;not null;default:0"`
	RedemptionLimit   *int             `gorm:"column:redemption_limit"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
