package checkout

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawpantry/storefront-api/internal/coupons"
	"github.com/pawpantry/storefront-api/pkg/db"
	"github.com/pawpantry/storefront-api/pkg/db/models"
	"github.com/pawpantry/storefront-api/pkg/enums"
	pkgerrors "github.com/pawpantry/storefront-api/pkg/errors"
	"github.com/pawpantry/storefront-api/pkg/outbox"
	"github.com/pawpantry/storefront-api/pkg/outbox/payloads"
)

const couponSavepoint = "coupon_usage"

// orderDraft is everything the writer needs once pricing and payment are
// settled.
type orderDraft struct {
	input           Input
	cart            *pricedCart
	quote           coupons.Quote
	affiliateID     *uuid.UUID
	paymentVerified bool
}

// writeOrder persists header, items, coupon usage and the order.created
// event in one transaction.
func (s *service) writeOrder(ctx context.Context, draft orderDraft, now time.Time) (*models.Order, error) {
	number, err := s.numbers.Next(ctx, now)
	if err != nil {
		s.logg.Error(ctx, "order number sequence unavailable, using random suffix", err)
		number, err = s.fallbackNumbers.Next(ctx, now)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeOrderPersistFailed, err, "generate order number")
		}
	}

	order := &models.Order{
		OrderNumber:     number,
		UserID:          draft.input.UserID,
		Email:           strings.TrimSpace(draft.input.Email),
		Status:          enums.OrderStatusProcessing,
		Subtotal:        draft.cart.subtotal,
		Discount:        draft.quote.Discount,
		Total:           draft.quote.Total,
		AffiliateID:     draft.affiliateID,
		PaymentMethod:   paymentMethodPayPal,
		PaymentVerified: draft.paymentVerified,
		ShippingAddress: draft.input.ShippingAddress,
		BillingAddress:  draft.input.BillingAddress,
		Courier:         strings.TrimSpace(draft.input.Courier),
	}
	if draft.quote.Applied {
		order.CouponCode = draft.quote.Code
	}
	if ref := draft.input.PaymentReference; ref != nil && strings.TrimSpace(*ref) != "" {
		trimmed := strings.TrimSpace(*ref)
		order.PaymentReference = &trimmed
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if draft.quote.Applied {
			consumed, err := s.consumeCoupon(ctx, tx, draft.quote)
			if err != nil {
				return err
			}
			if !consumed {
				if draft.paymentVerified {
					return pkgerrors.New(pkgerrors.CodePaymentAmountMismatch, "coupon is no longer available; payment does not cover the full price").
						WithDetails(map[string]any{"coupon_code": *draft.quote.Code, "expected_total": draft.cart.subtotal.StringFixed(2)})
				}
				order.CouponCode = nil
				order.Discount = decimal.Zero
				order.Total = draft.cart.subtotal
			}
		}

		repo := s.orders.WithTx(tx)
		if err := repo.CreateOrder(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeOrderPersistFailed, err, "order number already in use, please retry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeOrderPersistFailed, err, "insert order")
		}

		items := make([]models.OrderItem, 0, len(draft.cart.lines))
		for _, line := range draft.cart.lines {
			items = append(items, models.OrderItem{
				OrderID:     order.ID,
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Quantity:    line.Quantity,
				UnitPrice:   line.UnitPrice,
				Subtotal:    line.Subtotal,
				Size:        line.Size,
				Color:       line.Color,
			})
		}
		if err := repo.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeOrderItemsPersistFailed, err, "insert order items")
		}
		order.Items = items

		return s.emitOrderCreated(ctx, tx, order)
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeOrderPersistFailed, err, "persist order")
		}
		return nil, err
	}
	return order, nil
}

// consumeCoupon takes one use of the coupon before the order row exists.
// It reports false when the usage limit was reached since the quote; the
// order is then priced without the coupon. Other increment failures are
// logged and keep the quoted discount.
func (s *service) consumeCoupon(ctx context.Context, tx *gorm.DB, quote coupons.Quote) (bool, error) {
	logCtx := s.logg.WithFields(ctx, map[string]any{"coupon_code": *quote.Code, "step": "coupon_usage"})
	if err := tx.SavePoint(couponSavepoint).Error; err != nil {
		s.logg.Error(logCtx, "coupon savepoint failed", err)
		s.metrics.IncBestEffortFailure("coupon_usage")
		return true, nil
	}
	ok, err := s.coupons.WithTx(tx).IncrementUsage(ctx, quote.CouponID)
	if err != nil {
		s.logg.Error(logCtx, "coupon usage increment failed", err)
		s.metrics.IncBestEffortFailure("coupon_usage")
		if rbErr := tx.RollbackTo(couponSavepoint).Error; rbErr != nil {
			s.logg.Error(logCtx, "rollback to coupon savepoint failed", rbErr)
			return false, pkgerrors.Wrap(pkgerrors.CodeOrderPersistFailed, rbErr, "restore transaction after coupon usage failure")
		}
		return true, nil
	}
	if !ok {
		s.logg.Warn(logCtx, "coupon usage limit reached before order commit, charging full price")
		s.metrics.IncBestEffortFailure("coupon_usage")
	}
	return ok, nil
}

func (s *service) emitOrderCreated(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: payloads.OrderCreatedEvent{
			OrderID:         order.ID,
			OrderNumber:     order.OrderNumber,
			Email:           order.Email,
			Status:          order.Status,
			Subtotal:        order.Subtotal,
			Discount:        order.Discount,
			Total:           order.Total,
			CouponCode:      order.CouponCode,
			AffiliateID:     order.AffiliateID,
			PaymentVerified: order.PaymentVerified,
			ItemCount:       len(order.Items),
		},
	}
	if order.UserID != nil {
		event.Actor = &outbox.ActorRef{UserID: order.UserID, Role: "customer"}
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeOrderPersistFailed, err, "queue order.created event")
	}
	return nil
}
