package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/pawpantry/storefront-api/api/responses"
	"github.com/pawpantry/storefront-api/api/validators"
	checkoutsvc "github.com/pawpantry/storefront-api/internal/checkout"
	"github.com/pawpantry/storefront-api/pkg/checkout"
	"github.com/pawpantry/storefront-api/pkg/logger"
	"github.com/pawpantry/storefront-api/pkg/types"
)

// Checkout prices the cart server-side, verifies the PayPal payment when a
// reference is sent and persists the order. Signed-in callers are linked
// to the order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("checkout service"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBodyLenient(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), payload.toInput(optionalCallerID(r)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type checkoutRequest struct {
	Items           []checkoutLine `json:"items" validate:"required,min=1"`
	Email           string         `json:"email" validate:"required,email,max=254"`
	ShippingAddress types.Address  `json:"shipping_address"`
	BillingAddress  types.Address  `json:"billing_address"`
	Courier         string         `json:"courier" validate:"required,max=80"`
	CouponCode      *string        `json:"coupon_code,omitempty" validate:"omitempty,max=64"`
	AffiliateID     *string        `json:"affiliate_id,omitempty"`
	PayPalOrderID   *string        `json:"paypal_order_id,omitempty" validate:"omitempty,max=64"`
}

// checkoutLine drops any client price; only identity and quantity count.
type checkoutLine struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Size      *string   `json:"size,omitempty"`
	Color     *string   `json:"color,omitempty"`
}

func (req checkoutRequest) toInput(userID *uuid.UUID) checkoutsvc.Input {
	lines := make([]checkout.CartLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, checkout.CartLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
		})
	}
	return checkoutsvc.Input{
		Lines:            lines,
		Email:            req.Email,
		ShippingAddress:  req.ShippingAddress,
		BillingAddress:   req.BillingAddress,
		Courier:          req.Courier,
		UserID:           userID,
		CouponCode:       validators.OptionalString(req.CouponCode),
		AffiliateID:      validators.OptionalString(req.AffiliateID),
		PaymentReference: validators.OptionalString(req.PayPalOrderID),
	}
}
