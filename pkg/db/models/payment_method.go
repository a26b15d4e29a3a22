package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/baseemali/neushop-backend/pkg/enums"
)

// PaymentMethod holds display metadata for a vaulted instrument. VaultToken is
// the opaque reference the external payment processor hands back; no PAN data
// is ever stored here.
type PaymentMethod struct {
	ID           uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID   string                  `gorm:"column:customer_id;not null;index"`
	VaultToken   string                  `gorm:"column:vault_token;not null;unique"`
	Type         enums.PaymentMethodType `gorm:"column:type;not null;default:'card'"`
	CardBrand    *string                 `gorm:"column:card_brand"`
	CardLast4    *string                 `gorm:"column:card_last4"`
	CardExpMonth *int                    `gorm:"column:card_exp_month"`
	CardExpYear  *int                    `gorm:"column:card_exp_year"`
	HolderName   *string                 `gorm:"column:holder_name"`
	Metadata     json.RawMessage         `gorm:"column:metadata;type:jsonb"`
	IsDefault    bool                    `gorm:"column:is_default;not null;default:false"`
	CreatedAt    time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
