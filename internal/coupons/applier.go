package coupons

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawpantry/storefront-api/pkg/checkout"
	"github.com/pawpantry/storefront-api/pkg/db/models"
	"github.com/pawpantry/storefront-api/pkg/enums"
	"github.com/pawpantry/storefront-api/pkg/logger"
)

// Reasons a submitted code did not produce a discount.
const (
	ReasonNone          = ""
	ReasonNotFound      = "not_found"
	ReasonNotStarted    = "not_started"
	ReasonExpired       = "expired"
	ReasonUsageExceeded = "usage_limit_reached"
	ReasonBelowMinimum  = "below_min_purchase"
	ReasonUnavailable   = "unavailable"
)

// Quote is the outcome of applying an optional coupon to a subtotal.
type Quote struct {
	CouponID uuid.UUID       `json:"-"`
	Code     *string         `json:"code,omitempty"`
	Applied  bool            `json:"applied"`
	Reason   string          `json:"reason,omitempty"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

type couponFinder interface {
	FindActiveByCode(ctx context.Context, code string) (*models.Coupon, error)
}

// Applier resolves coupon codes leniently: anything short of a valid
// coupon yields a zero discount rather than an error.
type Applier struct {
	repo couponFinder
	now  func() time.Time
	logg *logger.Logger
}

func NewApplier(repo couponFinder, logg *logger.Logger) *Applier {
	return &Applier{repo: repo, now: time.Now, logg: logg}
}

func (a *Applier) Apply(ctx context.Context, code *string, subtotal decimal.Decimal) Quote {
	quote := Quote{Subtotal: subtotal, Discount: decimal.Zero, Total: subtotal}
	if code == nil || strings.TrimSpace(*code) == "" {
		return quote
	}
	normalized := NormalizeCode(*code)
	quote.Code = &normalized

	coupon, err := a.repo.FindActiveByCode(ctx, normalized)
	if err != nil {
		quote.Reason = ReasonNotFound
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			quote.Reason = ReasonUnavailable
			if a.logg != nil {
				a.logg.Error(a.logg.WithField(ctx, "coupon_code", normalized), "coupon lookup failed", err)
			}
		}
		return quote
	}

	discount, reason := Evaluate(*coupon, subtotal, a.now())
	if reason != ReasonNone {
		quote.Reason = reason
		return quote
	}
	quote.CouponID = coupon.ID
	quote.Applied = true
	quote.Discount = discount
	quote.Total = checkout.ApplyDiscount(subtotal, discount)
	return quote
}

// Evaluate checks the coupon's window, usage and minimum purchase and
// returns the discount it grants on subtotal.
func Evaluate(c models.Coupon, subtotal decimal.Decimal, now time.Time) (decimal.Decimal, string) {
	if now.Before(c.ValidFrom) {
		return decimal.Zero, ReasonNotStarted
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return decimal.Zero, ReasonExpired
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return decimal.Zero, ReasonUsageExceeded
	}
	if c.MinPurchase.Valid && subtotal.LessThan(c.MinPurchase.Decimal) {
		return decimal.Zero, ReasonBelowMinimum
	}

	switch c.DiscountType {
	case enums.DiscountTypePercentage:
		return checkout.PercentageDiscount(subtotal, c.DiscountValue, c.MaxDiscount), ReasonNone
	case enums.DiscountTypeFixed:
		if c.DiscountValue.GreaterThan(subtotal) {
			return subtotal, ReasonNone
		}
		return c.DiscountValue, ReasonNone
	default:
		return decimal.Zero, ReasonUnavailable
	}
}
