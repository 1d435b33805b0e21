package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawpantry/storefront-api/api/responses"
	"github.com/pawpantry/storefront-api/api/validators"
	"github.com/pawpantry/storefront-api/internal/coupons"
	"github.com/pawpantry/storefront-api/pkg/enums"
	"github.com/pawpantry/storefront-api/pkg/logger"
)

// CouponQuote previews a code against a cart subtotal. Unusable codes come
// back with applied=false and a reason rather than an error.
func CouponQuote(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("coupon service"))
			return
		}
		code, err := validators.PathParam(r, "code", 64)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		subtotal, err := validators.ParseQueryDecimal(r, "subtotal")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quote, err := svc.Quote(r.Context(), code, subtotal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

type createCouponRequest struct {
	Code          string           `json:"code" validate:"required,max=64"`
	Description   *string          `json:"description,omitempty" validate:"omitempty,max=500"`
	DiscountType  string           `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue decimal.Decimal  `json:"discount_value" validate:"gt=0"`
	MinPurchase   *decimal.Decimal `json:"min_purchase,omitempty" validate:"omitempty,gte=0"`
	MaxDiscount   *decimal.Decimal `json:"max_discount,omitempty" validate:"omitempty,gt=0"`
	UsageLimit    *int             `json:"usage_limit,omitempty" validate:"omitempty,gte=1"`
	ValidFrom     *time.Time       `json:"valid_from,omitempty"`
	ValidUntil    *time.Time       `json:"valid_until,omitempty"`
	ValidDays     *int             `json:"valid_days,omitempty" validate:"omitempty,gte=1"`
}

func AdminCreateCoupon(svc coupons.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("coupon service"))
			return
		}
		var payload createCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		coupon, err := svc.CreateCoupon(r.Context(), coupons.CreateCouponInput{
			Code:          payload.Code,
			Description:   validators.OptionalString(payload.Description),
			DiscountType:  enums.DiscountType(payload.DiscountType),
			DiscountValue: payload.DiscountValue,
			MinPurchase:   payload.MinPurchase,
			MaxDiscount:   payload.MaxDiscount,
			UsageLimit:    payload.UsageLimit,
			ValidFrom:     payload.ValidFrom,
			ValidUntil:    payload.ValidUntil,
			ValidDays:     payload.ValidDays,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, coupon)
	}
}
