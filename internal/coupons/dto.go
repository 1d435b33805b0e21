package coupons

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pawpantry/storefront-api/pkg/db/models"
	"github.com/pawpantry/storefront-api/pkg/enums"
)

type CouponDTO struct {
	ID            uuid.UUID          `json:"id"`
	Code          string             `json:"code"`
	Description   *string            `json:"description,omitempty"`
	DiscountType  enums.DiscountType `json:"discount_type"`
	DiscountValue decimal.Decimal    `json:"discount_value"`
	MinPurchase   *decimal.Decimal   `json:"min_purchase,omitempty"`
	MaxDiscount   *decimal.Decimal   `json:"max_discount,omitempty"`
	UsageLimit    *int               `json:"usage_limit,omitempty"`
	UsedCount     int                `json:"used_count"`
	ValidFrom     time.Time          `json:"valid_from"`
	ValidUntil    *time.Time         `json:"valid_until,omitempty"`
	Status        enums.CouponStatus `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
}

func NewCouponDTO(c *models.Coupon) *CouponDTO {
	return &CouponDTO{
		ID:            c.ID,
		Code:          c.Code,
		Description:   c.Description,
		DiscountType:  c.DiscountType,
		DiscountValue: c.DiscountValue,
		MinPurchase:   nullable(c.MinPurchase),
		MaxDiscount:   nullable(c.MaxDiscount),
		UsageLimit:    c.UsageLimit,
		UsedCount:     c.UsedCount,
		ValidFrom:     c.ValidFrom,
		ValidUntil:    c.ValidUntil,
		Status:        c.Status,
		CreatedAt:     c.CreatedAt,
	}
}

func nullable(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d := v.Decimal
	return &d
}
