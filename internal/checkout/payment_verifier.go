package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawpantry/storefront-api/pkg/checkout"
	pkgerrors "github.com/pawpantry/storefront-api/pkg/errors"
	"github.com/pawpantry/storefront-api/pkg/paypal"
)

// PaymentGateway is the read side of the payment provider.
type PaymentGateway interface {
	Authenticate(ctx context.Context) error
	GetOrder(ctx context.Context, orderID string) (*paypal.OrderSummary, error)
}

type paymentObserver interface {
	ObservePayment(result string, d time.Duration)
}

// paymentVerifier confirms a captured provider order pays the computed total.
type paymentVerifier struct {
	gateway   PaymentGateway
	tolerance decimal.Decimal
	metrics   paymentObserver
}

// verify returns false with no error when no reference was supplied.
func (v paymentVerifier) verify(ctx context.Context, reference *string, expected decimal.Decimal) (bool, error) {
	if reference == nil || strings.TrimSpace(*reference) == "" {
		return false, nil
	}
	start := time.Now()
	err := v.check(ctx, strings.TrimSpace(*reference), expected)
	if v.metrics != nil {
		result := "ok"
		if typed := pkgerrors.As(err); typed != nil {
			result = string(typed.Code())
		}
		v.metrics.ObservePayment(result, time.Since(start))
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (v paymentVerifier) check(ctx context.Context, reference string, expected decimal.Decimal) error {
	if v.gateway == nil {
		return pkgerrors.New(pkgerrors.CodePaymentAuthFailed, "payment provider is not configured")
	}
	if err := v.gateway.Authenticate(ctx); err != nil {
		if errors.Is(err, paypal.ErrTimeout) {
			return pkgerrors.Wrap(pkgerrors.CodePaymentVerificationTimeout, err, "payment provider timed out")
		}
		return pkgerrors.Wrap(pkgerrors.CodePaymentAuthFailed, err, "payment provider authentication failed")
	}

	order, err := v.gateway.GetOrder(ctx, reference)
	if err != nil {
		switch {
		case errors.Is(err, paypal.ErrTimeout):
			return pkgerrors.Wrap(pkgerrors.CodePaymentVerificationTimeout, err, "payment provider timed out")
		case errors.Is(err, paypal.ErrAuth):
			return pkgerrors.Wrap(pkgerrors.CodePaymentAuthFailed, err, "payment provider authentication failed")
		default:
			return pkgerrors.Wrap(pkgerrors.CodePaymentNotFound, err, "payment not found")
		}
	}

	if order.Status != paypal.StatusCompleted {
		return pkgerrors.New(pkgerrors.CodePaymentNotCompleted, "payment has not been completed").
			WithDetails(map[string]any{"status": order.Status})
	}
	if !order.HasAmount || !checkout.AmountsMatch(order.Amount, expected, v.tolerance) {
		details := map[string]any{"expected": expected.StringFixed(2)}
		if order.HasAmount {
			details["paid"] = order.Amount.StringFixed(2)
		}
		return pkgerrors.New(pkgerrors.CodePaymentAmountMismatch, "payment amount does not match order total").WithDetails(details)
	}
	return nil
}
