package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pawpantry/storefront-api/api/responses"
	"github.com/pawpantry/storefront-api/api/validators"
	pkgerrors "github.com/pawpantry/storefront-api/pkg/errors"
	"github.com/pawpantry/storefront-api/pkg/logger"
	"github.com/pawpantry/storefront-api/pkg/paypal"
)

// PayPalOrders is the write side of the payment provider used by the
// storefront's payment buttons.
type PayPalOrders interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, reference string) (*paypal.OrderSummary, error)
	CaptureOrder(ctx context.Context, orderID string) (*paypal.CaptureSummary, error)
}

type paypalCreateRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Reference string          `json:"reference,omitempty" validate:"omitempty,max=127"`
}

type paypalOrderResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Amount   string `json:"amount,omitempty"`
	Currency string `json:"currency,omitempty"`
}

type paypalCaptureResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	PayerEmail string `json:"payer_email,omitempty"`
	PayerID    string `json:"payer_id,omitempty"`
}

// PayPalCreateOrder opens a provider order for the amount the client shows
// on the payment button. The checkout later re-verifies it server side.
func PayPalCreateOrder(client PayPalOrders, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, paymentUnconfigured())
			return
		}
		var payload paypalCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := client.CreateOrder(r.Context(), payload.Amount, strings.TrimSpace(payload.Reference))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, paymentError(err, "create payment order"))
			return
		}
		out := paypalOrderResponse{ID: order.ID, Status: order.Status}
		if order.HasAmount {
			out.Amount = order.Amount.StringFixed(2)
			out.Currency = order.Currency
		}
		responses.WriteCreated(w, out)
	}
}

// PayPalCaptureOrder captures a payer-approved provider order.
func PayPalCaptureOrder(client PayPalOrders, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, paymentUnconfigured())
			return
		}
		orderID, err := validators.PathParam(r, "paypalOrderId", 64)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		capture, err := client.CaptureOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, paymentError(err, "capture payment order"))
			return
		}
		responses.WriteSuccess(w, paypalCaptureResponse{
			ID:         capture.ID,
			Status:     capture.Status,
			PayerEmail: capture.PayerEmail,
			PayerID:    capture.PayerID,
		})
	}
}

func paymentUnconfigured() error {
	return pkgerrors.New(pkgerrors.CodeDependency, "payment provider not configured")
}

func paymentError(err error, msg string) error {
	switch {
	case errors.Is(err, paypal.ErrOrderNotFound):
		return pkgerrors.Wrap(pkgerrors.CodePaymentNotFound, err, "payment not found")
	case errors.Is(err, paypal.ErrAuth):
		return pkgerrors.Wrap(pkgerrors.CodePaymentAuthFailed, err, "payment provider authentication failed")
	case errors.Is(err, paypal.ErrTimeout):
		return pkgerrors.Wrap(pkgerrors.CodePaymentVerificationTimeout, err, "payment provider timed out")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
	}
}
