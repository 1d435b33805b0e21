package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawpantry/storefront-api/pkg/enums"
)

// Coupon is an admin-defined discount redeemable at checkout.
type Coupon struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Code          string              `gorm:"column:code;not null;uniqueIndex"`
	Description   *string             `gorm:"column:description"`
	DiscountType  enums.DiscountType  `gorm:"column:discount_type;type:text;not null"`
	DiscountValue decimal.Decimal     `gorm:"column:discount_value;type:numeric(12,2);not null"`
	MinPurchase   decimal.NullDecimal `gorm:"column:min_purchase;type:numeric(12,2)"`
	MaxDiscount   decimal.NullDecimal `gorm:"column:max_discount;type:numeric(12,2)"`
	UsageLimit    *int                `gorm:"column:usage_limit"`
	UsedCount     int                 `gorm:"column:used_count;not null;default:0"`
	ValidFrom     time.Time           `gorm:"column:valid_from;not null"`
	ValidUntil    *time.Time          `gorm:"column:valid_until"`
	Status        enums.CouponStatus  `gorm:"column:status;type:text;not null;default:active"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
