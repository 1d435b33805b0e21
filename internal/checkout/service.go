package checkout

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawpantry/storefront-api/internal/affiliates"
	"github.com/pawpantry/storefront-api/internal/coupons"
	"github.com/pawpantry/storefront-api/internal/orders"
	"github.com/pawpantry/storefront-api/pkg/checkout"
	"github.com/pawpantry/storefront-api/pkg/db/models"
	pkgerrors "github.com/pawpantry/storefront-api/pkg/errors"
	"github.com/pawpantry/storefront-api/pkg/logger"
	"github.com/pawpantry/storefront-api/pkg/metrics"
	"github.com/pawpantry/storefront-api/pkg/outbox"
	"github.com/pawpantry/storefront-api/pkg/types"
)

const (
	paymentMethodPayPal      = "paypal"
	defaultBestEffortTimeout = 10 * time.Second
)

// Service runs the checkout workflow: validate cart, apply coupon, verify
// payment, write order, then adjust inventory and record commission on a
// best-effort basis.
type Service interface {
	Checkout(ctx context.Context, input Input) (*Result, error)
}

// Input is a checkout request after transport decoding.
type Input struct {
	Lines            []checkout.CartLine
	Email            string
	ShippingAddress  types.Address
	BillingAddress   types.Address
	Courier          string
	UserID           *uuid.UUID
	CouponCode       *string
	AffiliateID      *string
	PaymentReference *string
}

// Result identifies the persisted order.
type Result struct {
	OrderID         uuid.UUID       `json:"order_id"`
	OrderNumber     string          `json:"order_number"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Discount        decimal.Decimal `json:"discount_amount"`
	Total           decimal.Decimal `json:"total"`
	CouponCode      *string         `json:"coupon_code,omitempty"`
	PaymentVerified bool            `json:"payment_verified"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type couponApplier interface {
	Apply(ctx context.Context, code *string, subtotal decimal.Decimal) coupons.Quote
}

type affiliateAttribution interface {
	Resolve(ctx context.Context, raw *string) (*uuid.UUID, error)
	Record(ctx context.Context, affiliateID, orderID uuid.UUID, orderTotal decimal.Decimal) (*models.AffiliateSale, error)
}

// Dependencies wires the collaborators of each workflow stage. Payment may
// be nil when no provider is configured; references are then rejected.
type Dependencies struct {
	Tx                txRunner
	Products          productLoader
	Stock             stockAdjuster
	Coupons           *coupons.Repository
	CouponApplier     couponApplier
	Orders            orders.Repository
	Numbers           orders.NumberGenerator
	Affiliates        affiliateAttribution
	Outbox            outboxPublisher
	Payment           PaymentGateway
	AmountTolerance   decimal.Decimal
	BestEffortTimeout time.Duration
	Metrics           *metrics.CheckoutMetrics
	Logger            *logger.Logger
	Now               func() time.Time
}

type service struct {
	tx                txRunner
	products          productLoader
	stock             stockAdjuster
	coupons           *coupons.Repository
	applier           couponApplier
	orders            orders.Repository
	numbers           orders.NumberGenerator
	fallbackNumbers   orders.NumberGenerator
	affiliates        affiliateAttribution
	outbox            outboxPublisher
	payment           paymentVerifier
	bestEffortTimeout time.Duration
	metrics           *metrics.CheckoutMetrics
	logg              *logger.Logger
	now               func() time.Time
}

func NewService(deps Dependencies) (Service, error) {
	switch {
	case deps.Tx == nil:
		return nil, fmt.Errorf("tx runner required")
	case deps.Products == nil:
		return nil, fmt.Errorf("product loader required")
	case deps.Stock == nil:
		return nil, fmt.Errorf("stock adjuster required")
	case deps.Coupons == nil || deps.CouponApplier == nil:
		return nil, fmt.Errorf("coupon repository and applier required")
	case deps.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case deps.Numbers == nil:
		return nil, fmt.Errorf("order number generator required")
	case deps.Affiliates == nil:
		return nil, fmt.Errorf("affiliate attribution required")
	case deps.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.New(logger.Options{ServiceName: "checkout", Output: io.Discard})
	}
	timeout := deps.BestEffortTimeout
	if timeout <= 0 {
		timeout = defaultBestEffortTimeout
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		tx:                deps.Tx,
		products:          deps.Products,
		stock:             deps.Stock,
		coupons:           deps.Coupons,
		applier:           deps.CouponApplier,
		orders:            deps.Orders,
		numbers:           deps.Numbers,
		fallbackNumbers:   orders.NewRandomNumbers(""),
		affiliates:        deps.Affiliates,
		outbox:            deps.Outbox,
		payment:           paymentVerifier{gateway: deps.Payment, tolerance: deps.AmountTolerance, metrics: deps.Metrics},
		bestEffortTimeout: timeout,
		metrics:           deps.Metrics,
		logg:              logg,
		now:               now,
	}, nil
}

func (s *service) Checkout(ctx context.Context, input Input) (*Result, error) {
	result, err := s.checkout(ctx, input)
	if err != nil {
		outcome := string(pkgerrors.CodeInternal)
		if typed := pkgerrors.As(err); typed != nil {
			outcome = string(typed.Code())
		}
		s.metrics.IncOutcome(outcome)
		return nil, err
	}
	s.metrics.IncOutcome("ok")
	return result, nil
}

func (s *service) checkout(ctx context.Context, input Input) (*Result, error) {
	if err := validateContact(input); err != nil {
		return nil, err
	}

	cart, err := validateCart(ctx, s.products, input.Lines)
	if err != nil {
		return nil, err
	}

	quote := s.applier.Apply(ctx, input.CouponCode, cart.subtotal)
	if quote.Code != nil && !quote.Applied {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"coupon_code": *quote.Code, "reason": quote.Reason}), "coupon not applied")
	}

	verified, err := s.payment.verify(ctx, input.PaymentReference, quote.Total)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "payment verification failed")
		return nil, err
	}

	affiliateID, err := s.affiliates.Resolve(ctx, input.AffiliateID)
	if err != nil {
		s.logg.Error(s.logg.WithStep(ctx, "affiliate_lookup"), "affiliate lookup failed, checkout continues unattributed", err)
		affiliateID = nil
	}

	order, err := s.writeOrder(ctx, orderDraft{
		input:           input,
		cart:            cart,
		quote:           quote,
		affiliateID:     affiliateID,
		paymentVerified: verified,
	}, s.now())
	if err != nil {
		s.logg.Error(ctx, "order persistence failed", err)
		return nil, err
	}

	orderCtx := s.logg.WithField(s.logg.WithOrderID(ctx, order.ID.String()), "order_number", order.OrderNumber)
	s.logg.Info(orderCtx, "order created")
	s.runBestEffort(orderCtx, order, cart, affiliateID)

	return &Result{
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		Subtotal:        order.Subtotal,
		Discount:        order.Discount,
		Total:           order.Total,
		CouponCode:      order.CouponCode,
		PaymentVerified: order.PaymentVerified,
	}, nil
}

// runBestEffort performs the post-commit steps. They run detached from the
// request's cancellation and only ever log.
func (s *service) runBestEffort(ctx context.Context, order *models.Order, cart *pricedCart, affiliateID *uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.bestEffortTimeout)
	defer cancel()

	if err := adjustInventory(ctx, s.stock, cart.lines); err != nil {
		s.logg.Error(s.logg.WithStep(ctx, "inventory"), "inventory adjustment incomplete", err)
		s.metrics.IncBestEffortFailure("inventory")
	}

	if affiliateID == nil {
		return
	}
	sale, err := s.affiliates.Record(ctx, *affiliateID, order.ID, order.Total)
	if err != nil {
		s.logg.Error(s.logg.WithFields(ctx, map[string]any{"step": "commission", "affiliate_id": affiliateID.String()}), "affiliate commission not recorded", err)
		s.metrics.IncBestEffortFailure("commission")
		return
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"affiliate_id": affiliateID.String(), "commission": sale.Commission.String()}), "affiliate commission recorded")
}

func validateContact(input Input) error {
	var missing []string
	email := strings.TrimSpace(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		missing = append(missing, "email")
	}
	for _, field := range input.ShippingAddress.Missing() {
		missing = append(missing, "shipping_address."+field)
	}
	for _, field := range input.BillingAddress.Missing() {
		missing = append(missing, "billing_address."+field)
	}
	if strings.TrimSpace(input.Courier) == "" {
		missing = append(missing, "courier")
	}
	if len(missing) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "missing or invalid checkout fields").
		WithDetails(map[string]any{"fields": missing})
}

var _ affiliateAttribution = (*affiliates.CommissionRecorder)(nil)
