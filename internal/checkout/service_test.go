package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pawpantry/storefront-api/internal/affiliates"
	"github.com/pawpantry/storefront-api/internal/coupons"
	"github.com/pawpantry/storefront-api/internal/orders"
	"github.com/pawpantry/storefront-api/internal/products"
	"github.com/pawpantry/storefront-api/pkg/checkout"
	"github.com/pawpantry/storefront-api/pkg/config"
	"github.com/pawpantry/storefront-api/pkg/db"
	"github.com/pawpantry/storefront-api/pkg/db/dbtest"
	"github.com/pawpantry/storefront-api/pkg/db/models"
	"github.com/pawpantry/storefront-api/pkg/enums"
	pkgerrors "github.com/pawpantry/storefront-api/pkg/errors"
	"github.com/pawpantry/storefront-api/pkg/outbox"
	"github.com/pawpantry/storefront-api/pkg/paypal"
	"github.com/pawpantry/storefront-api/pkg/paypal/paypaltest"
	"github.com/pawpantry/storefront-api/pkg/types"
)

type harness struct {
	svc    Service
	conn   *gorm.DB
	paypal *paypaltest.Server
}

type harnessOption func(h *harness, deps *Dependencies)

func newHarness(t *testing.T, withPayPal bool, opts ...harnessOption) *harness {
	t.Helper()
	conn := dbtest.Open(t)
	client := db.Wrap(conn)
	publisher := outbox.NewService(outbox.NewRepository(conn), nil)

	productRepo := products.NewRepository(conn)
	couponRepo := coupons.NewRepository(conn)
	recorder, err := affiliates.NewCommissionRecorder(
		affiliates.NewRepository(conn), client, publisher, decimal.RequireFromString("0.15"), true,
	)
	require.NoError(t, err)

	h := &harness{conn: conn}
	deps := Dependencies{
		Tx:              client,
		Products:        productRepo,
		Stock:           productRepo,
		Coupons:         couponRepo,
		CouponApplier:   coupons.NewApplier(couponRepo, nil),
		Orders:          orders.NewRepository(conn),
		Numbers:         orders.NewRandomNumbers("ORD"),
		Affiliates:      recorder,
		Outbox:          publisher,
		AmountTolerance: decimal.RequireFromString("0.01"),
	}
	if withPayPal {
		h.paypal = paypaltest.NewServer()
		t.Cleanup(h.paypal.Close)
		gateway, err := paypal.New(config.PayPalConfig{
			ClientID:     "id",
			ClientSecret: "secret",
			APIBase:      h.paypal.URL,
			Timeout:      time.Second,
		}, nil)
		require.NoError(t, err)
		deps.Payment = gateway
	}
	for _, opt := range opts {
		opt(h, &deps)
	}
	h.svc, err = NewService(deps)
	require.NoError(t, err)
	return h
}

func (h *harness) seedProduct(t *testing.T, price string, stock int, variants ...models.ProductVariant) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:     "Salmon Kibble",
		Slug:     "salmon-kibble-" + uuid.NewString()[:8],
		Price:    decimal.RequireFromString(price),
		Category: "food",
		PetType:  "cat",
		Stock:    stock,
		Status:   enums.ProductStatusActive,
		Variants: variants,
	}
	require.NoError(t, h.conn.Create(p).Error)
	return p
}

func (h *harness) seedCoupon(t *testing.T, code string, percent string) *models.Coupon {
	t.Helper()
	c := &models.Coupon{
		Code:          code,
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.RequireFromString(percent),
		ValidFrom:     time.Now().Add(-time.Hour),
		Status:        enums.CouponStatusActive,
	}
	require.NoError(t, h.conn.Create(c).Error)
	return c
}

func (h *harness) seedAffiliate(t *testing.T) *models.Affiliate {
	t.Helper()
	email := "partner@example.com"
	a := &models.Affiliate{
		UserID:        uuid.New(),
		AffiliateCode: "partner-" + uuid.NewString()[:8],
		Status:        enums.AffiliateStatusApproved,
		Country:       "US",
		Address:       "1 Main St",
		Phone:         "555-0100",
		TrafficSource: "blog",
		PaymentMethod: enums.PayoutMethodPayPal,
		PayPalEmail:   &email,
	}
	require.NoError(t, h.conn.Create(a).Error)
	return a
}

func (h *harness) countOrders(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.conn.Model(&models.Order{}).Count(&n).Error)
	return n
}

func strPtr(v string) *string { return &v }

func testAddress() types.Address {
	return types.Address{Name: "Ada Buyer", Street: "1 Main St", City: "Austin", State: "TX", Zip: "78701", Country: "US"}
}

func baseInput(lines ...checkout.CartLine) Input {
	addr := testAddress()
	return Input{
		Lines:           lines,
		Email:           "buyer@example.com",
		ShippingAddress: addr,
		BillingAddress:  addr,
		Courier:         "ups",
	}
}

func TestCheckoutAppliesCouponVerifiesPaymentAndRecordsCommission(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	product := h.seedProduct(t, "10.00", 5)
	coupon := h.seedCoupon(t, "SAVE10", "10")
	affiliate := h.seedAffiliate(t)
	h.paypal.AddOrder("PAY-1", paypaltest.Order{Status: "COMPLETED", Amount: "18.00", Currency: "USD"})

	input := baseInput(checkout.CartLine{ProductID: product.ID, Quantity: 2})
	input.CouponCode = strPtr("save10")
	input.PaymentReference = strPtr("PAY-1")
	input.AffiliateID = strPtr(affiliate.ID.String())

	res, err := h.svc.Checkout(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "20.00", res.Subtotal.StringFixed(2))
	assert.Equal(t, "2.00", res.Discount.StringFixed(2))
	assert.Equal(t, "18.00", res.Total.StringFixed(2))
	assert.True(t, res.PaymentVerified)
	require.NotNil(t, res.CouponCode)
	assert.Equal(t, "SAVE10", *res.CouponCode)

	var order models.Order
	require.NoError(t, h.conn.Preload("Items").First(&order, "id = ?", res.OrderID).Error)
	assert.Equal(t, enums.OrderStatusProcessing, order.Status)
	assert.Equal(t, "paypal", order.PaymentMethod)
	require.NotNil(t, order.AffiliateID)
	assert.Equal(t, affiliate.ID, *order.AffiliateID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "10.00", order.Items[0].UnitPrice.StringFixed(2))

	var stored models.Product
	require.NoError(t, h.conn.First(&stored, "id = ?", product.ID).Error)
	assert.Equal(t, 3, stored.Stock)

	var usedCoupon models.Coupon
	require.NoError(t, h.conn.First(&usedCoupon, "id = ?", coupon.ID).Error)
	assert.Equal(t, 1, usedCoupon.UsedCount)

	var sale models.AffiliateSale
	require.NoError(t, h.conn.First(&sale, "order_id = ?", res.OrderID).Error)
	assert.Equal(t, "2.70", sale.Commission.StringFixed(2))

	var events []models.OutboxEvent
	require.NoError(t, h.conn.Order("created_at").Find(&events).Error)
	eventTypes := make([]enums.OutboxEventType, 0, len(events))
	for _, e := range events {
		eventTypes = append(eventTypes, e.EventType)
	}
	assert.ElementsMatch(t, []enums.OutboxEventType{enums.EventOrderCreated, enums.EventAffiliateSaleRecorded}, eventTypes)
}

func TestCheckoutRejectsInsufficientStock(t *testing.T) {
	h := newHarness(t, false)
	product := h.seedProduct(t, "10.00", 3)

	_, err := h.svc.Checkout(context.Background(), baseInput(checkout.CartLine{ProductID: product.ID, Quantity: 5}))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	assert.Zero(t, h.countOrders(t))
}

func TestCheckoutRejectsUnknownProduct(t *testing.T) {
	h := newHarness(t, false)

	_, err := h.svc.Checkout(context.Background(), baseInput(checkout.CartLine{ProductID: uuid.New(), Quantity: 1}))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProductNotFound))
}

func TestCheckoutRejectsPaymentAmountMismatch(t *testing.T) {
	h := newHarness(t, true)
	product := h.seedProduct(t, "10.00", 5)
	h.seedCoupon(t, "SAVE10", "10")
	h.paypal.AddOrder("PAY-2", paypaltest.Order{Status: "COMPLETED", Amount: "15.00", Currency: "USD"})

	input := baseInput(checkout.CartLine{ProductID: product.ID, Quantity: 2})
	input.CouponCode = strPtr("SAVE10")
	input.PaymentReference = strPtr("PAY-2")

	_, err := h.svc.Checkout(context.Background(), input)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentAmountMismatch))
	assert.Zero(t, h.countOrders(t))

	var stored models.Product
	require.NoError(t, h.conn.First(&stored, "id = ?", product.ID).Error)
	assert.Equal(t, 5, stored.Stock)
}

func TestCheckoutRejectsIncompletePayment(t *testing.T) {
	h := newHarness(t, true)
	product := h.seedProduct(t, "10.00", 5)
	h.paypal.AddOrder("PAY-3", paypaltest.Order{Status: "APPROVED", Amount: "10.00", Currency: "USD"})

	input := baseInput(checkout.CartLine{ProductID: product.ID, Quantity: 1})
	input.PaymentReference = strPtr("PAY-3")

	_, err := h.svc.Checkout(context.Background(), input)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentNotCompleted))
}

func TestCheckoutWithoutProviderRejectsReference(t *testing.T) {
	h := newHarness(t, false)
	product := h.seedProduct(t, "10.00", 5)

	input := baseInput(checkout.CartLine{ProductID: product.ID, Quantity: 1})
	input.PaymentReference = strPtr("PAY-4")

	_, err := h.svc.Checkout(context.Background(), input)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentAuthFailed))
}

func TestCheckoutWithoutReferenceIsUnverified(t *testing.T) {
	h := newHarness(t, false)
	product := h.seedProduct(t, "7.50", 5)

	res, err := h.svc.Checkout(context.Background(), baseInput(checkout.CartLine{ProductID: product.ID, Quantity: 1}))
	require.NoError(t, err)
	assert.False(t, res.PaymentVerified)
	assert.Equal(t, "7.50", res.Total.StringFixed(2))
	assert.Regexp(t, `^ORD-\d{8}-\d{6}$`, res.OrderNumber)
}

func TestCheckoutIgnoresMalformedAffiliate(t *testing.T) {
	h := newHarness(t, false)
	product := h.seedProduct(t, "10.00", 5)

	input := baseInput(checkout.CartLine{ProductID: product.ID, Quantity: 1})
	input.AffiliateID = strPtr("not-a-uuid")

	res, err := h.svc.Checkout(context.Background(), input)
	require.NoError(t, err)

	var order models.Order
	require.NoError(t, h.conn.First(&order, "id = ?", res.OrderID).Error)
	assert.Nil(t, order.AffiliateID)

	var sales int64
	require.NoError(t, h.conn.Model(&models.AffiliateSale{}).Count(&sales).Error)
	assert.Zero(t, sales)
}

func TestCheckoutUnknownCouponChargesFullPrice(t *testing.T) {
	h := newHarness(t, false)
	product := h.seedProduct(t, "10.00", 5)

	input := baseInput(checkout.CartLine{ProductID: product.ID, Quantity: 2})
	input.CouponCode = strPtr("NOPE")

	res, err := h.svc.Checkout(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "20.00", res.Total.StringFixed(2))
	assert.Nil(t, res.CouponCode)
}

func TestCheckoutDecrementsSelectedVariant(t *testing.T) {
	h := newHarness(t, false)
	product := h.seedProduct(t, "10.00", 50,
		models.ProductVariant{Kind: enums.VariantKindSize, Name: "L", Stock: 4, Price: decimal.NewNullDecimal(decimal.RequireFromString("12.00"))},
		models.ProductVariant{Kind: enums.VariantKindColor, Name: "red", Stock: 9},
	)

	input := baseInput(checkout.CartLine{ProductID: product.ID, Quantity: 3, Size: strPtr("L"), Color: strPtr("red")})
	res, err := h.svc.Checkout(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "36.00", res.Subtotal.StringFixed(2))

	var variants []models.ProductVariant
	require.NoError(t, h.conn.Where("product_id = ?", product.ID).Order("kind").Find(&variants).Error)
	stock := map[string]int{}
	for _, v := range variants {
		stock[v.Name] = v.Stock
	}
	assert.Equal(t, 1, stock["L"])
	assert.Equal(t, 9, stock["red"])

	var stored models.Product
	require.NoError(t, h.conn.First(&stored, "id = ?", product.ID).Error)
	assert.Equal(t, 50, stored.Stock)
}

func TestCheckoutValidatesContactFields(t *testing.T) {
	h := newHarness(t, false)
	product := h.seedProduct(t, "10.00", 5)

	input := baseInput(checkout.CartLine{ProductID: product.ID, Quantity: 1})
	input.Email = ""
	input.ShippingAddress.City = " "
	input.Courier = ""

	_, err := h.svc.Checkout(context.Background(), input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"email", "shipping_address.city", "courier"}, details["fields"])
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(Dependencies{})
	assert.Error(t, err)
}

type racingApplier struct {
	inner couponApplier
	conn  *gorm.DB
}

// Apply quotes the coupon, then lets another checkout use up its last slot.
func (a racingApplier) Apply(ctx context.Context, code *string, subtotal decimal.Decimal) coupons.Quote {
	quote := a.inner.Apply(ctx, code, subtotal)
	if quote.Applied {
		a.conn.Model(&models.Coupon{}).Where("id = ?", quote.CouponID).Update("used_count", gorm.Expr("usage_limit"))
	}
	return quote
}

func withRacingCoupon(h *harness, deps *Dependencies) {
	deps.CouponApplier = racingApplier{inner: deps.CouponApplier, conn: h.conn}
}

// brokenUsageApplier quotes normally, then removes the usage counter so the
// increment inside the order transaction errors.
type brokenUsageApplier struct {
	inner couponApplier
	conn  *gorm.DB
}

func (a brokenUsageApplier) Apply(ctx context.Context, code *string, subtotal decimal.Decimal) coupons.Quote {
	quote := a.inner.Apply(ctx, code, subtotal)
	a.conn.Exec("ALTER TABLE coupons RENAME COLUMN used_count TO used_total")
	return quote
}

func withBrokenCouponUsage(h *harness, deps *Dependencies) {
	deps.CouponApplier = brokenUsageApplier{inner: deps.CouponApplier, conn: h.conn}
}

type failingItemsRepo struct {
	orders.Repository
}

func (r failingItemsRepo) WithTx(tx *gorm.DB) orders.Repository {
	return failingItemsRepo{Repository: r.Repository.WithTx(tx)}
}

func (failingItemsRepo) CreateOrderItems(context.Context, []models.OrderItem) error {
	return errors.New("order_items unavailable")
}

type failingStock struct{}

func (failingStock) DecrementStock(context.Context, uuid.UUID, int) error {
	return errors.New("stock update failed")
}

func (failingStock) DecrementVariantStock(context.Context, uuid.UUID, enums.VariantKind, string, int) error {
	return errors.New("stock update failed")
}

type failingCommission struct {
	affiliateAttribution
}

func (failingCommission) Record(context.Context, uuid.UUID, uuid.UUID, decimal.Decimal) (*models.AffiliateSale, error) {
	return nil, errors.New("affiliate_sales unavailable")
}

func (h *harness) seedLimitedCoupon(t *testing.T, code string, limit int) *models.Coupon {
	t.Helper()
	c := &models.Coupon{
		Code:          code,
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.RequireFromString("10"),
		UsageLimit:    &limit,
		ValidFrom:     time.Now().Add(-time.Hour),
		Status:        enums.CouponStatusActive,
	}
	require.NoError(t, h.conn.Create(c).Error)
	return c
}

func (h *harness) usedCount(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var c models.Coupon
	require.NoError(t, h.conn.First(&c, "id = ?", id).Error)
	return c.UsedCount
}

func TestCheckoutChargesFullPriceWhenCouponRunsOut(t *testing.T) {
	h := newHarness(t, false, withRacingCoupon)
	product := h.seedProduct(t, "10.00", 5)
	coupon := h.seedLimitedCoupon(t, "ONCE", 1)

	input := baseInput(checkout.CartLine{ProductID: product.ID, Quantity: 2})
	input.CouponCode = strPtr("ONCE")

	res, err := h.svc.Checkout(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, res.Discount.IsZero())
	assert.Equal(t, "20.00", res.Total.StringFixed(2))
	assert.Nil(t, res.CouponCode)

	var order models.Order
	require.NoError(t, h.conn.First(&order, "id = ?", res.OrderID).Error)
	assert.Nil(t, order.CouponCode)
	assert.Equal(t, "0.00", order.Discount.StringFixed(2))
	assert.Equal(t, "20.00", order.Total.StringFixed(2))
	assert.Equal(t, 1, h.usedCount(t, coupon.ID))
}

func TestCheckoutRejectsPaidDiscountWhenCouponRunsOut(t *testing.T) {
	h := newHarness(t, true, withRacingCoupon)
	product := h.seedProduct(t, "10.00", 5)
	coupon := h.seedLimitedCoupon(t, "ONCE", 1)
	h.paypal.AddOrder("PAY-RACE", paypaltest.Order{Status: "COMPLETED", Amount: "18.00", Currency: "USD"})

	input := baseInput(checkout.CartLine{ProductID: product.ID, Quantity: 2})
	input.CouponCode = strPtr("ONCE")
	input.PaymentReference = strPtr("PAY-RACE")

	_, err := h.svc.Checkout(context.Background(), input)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentAmountMismatch))
	assert.Zero(t, h.countOrders(t))
	assert.Equal(t, 1, h.usedCount(t, coupon.ID))
}

func TestCheckoutRollsBackWhenItemsFail(t *testing.T) {
	h := newHarness(t, false, func(_ *harness, deps *Dependencies) {
		deps.Orders = failingItemsRepo{Repository: deps.Orders}
	})
	product := h.seedProduct(t, "10.00", 5)
	coupon := h.seedCoupon(t, "SAVE10", "10")

	input := baseInput(checkout.CartLine{ProductID: product.ID, Quantity: 1})
	input.CouponCode = strPtr("SAVE10")

	_, err := h.svc.Checkout(context.Background(), input)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeOrderItemsPersistFailed))
	assert.Zero(t, h.countOrders(t))
	assert.Zero(t, h.usedCount(t, coupon.ID))

	var events int64
	require.NoError(t, h.conn.Model(&models.OutboxEvent{}).Count(&events).Error)
	assert.Zero(t, events)
}

func TestCheckoutSucceedsWhenBestEffortStepsFail(t *testing.T) {
	h := newHarness(t, false, func(_ *harness, deps *Dependencies) {
		deps.Stock = failingStock{}
		deps.Affiliates = failingCommission{affiliateAttribution: deps.Affiliates}
	})
	product := h.seedProduct(t, "10.00", 5)
	affiliate := h.seedAffiliate(t)

	input := baseInput(checkout.CartLine{ProductID: product.ID, Quantity: 2})
	input.AffiliateID = strPtr(affiliate.ID.String())

	res, err := h.svc.Checkout(context.Background(), input)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.OrderNumber)

	var order models.Order
	require.NoError(t, h.conn.First(&order, "id = ?", res.OrderID).Error)
	assert.Equal(t, res.OrderNumber, order.OrderNumber)
	require.NotNil(t, order.AffiliateID)

	var stored models.Product
	require.NoError(t, h.conn.First(&stored, "id = ?", product.ID).Error)
	assert.Equal(t, 5, stored.Stock)

	var sales int64
	require.NoError(t, h.conn.Model(&models.AffiliateSale{}).Count(&sales).Error)
	assert.Zero(t, sales)
}

func TestCheckoutRejectsUnknownPayment(t *testing.T) {
	h := newHarness(t, true)
	product := h.seedProduct(t, "10.00", 5)

	input := baseInput(checkout.CartLine{ProductID: product.ID, Quantity: 1})
	input.PaymentReference = strPtr("PAY-MISSING")

	_, err := h.svc.Checkout(context.Background(), input)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentNotFound))
	assert.Zero(t, h.countOrders(t))
}

func TestCheckoutSlowProviderTimesOut(t *testing.T) {
	h := newHarness(t, true, func(h *harness, deps *Dependencies) {
		gateway, err := paypal.New(config.PayPalConfig{
			ClientID:     "id",
			ClientSecret: "secret",
			APIBase:      h.paypal.URL,
			Timeout:      50 * time.Millisecond,
		}, nil)
		require.NoError(t, err)
		deps.Payment = gateway
	})
	h.paypal.Delay(300 * time.Millisecond)
	product := h.seedProduct(t, "10.00", 5)

	input := baseInput(checkout.CartLine{ProductID: product.ID, Quantity: 1})
	input.PaymentReference = strPtr("PAY-SLOW")

	_, err := h.svc.Checkout(context.Background(), input)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePaymentVerificationTimeout))
	assert.Zero(t, h.countOrders(t))
}

func TestCheckoutKeepsDiscountWhenUsageIncrementFails(t *testing.T) {
	h := newHarness(t, false, withBrokenCouponUsage)
	product := h.seedProduct(t, "10.00", 5)
	h.seedLimitedCoupon(t, "ONCE", 1)

	input := baseInput(checkout.CartLine{ProductID: product.ID, Quantity: 2})
	input.CouponCode = strPtr("ONCE")

	res, err := h.svc.Checkout(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "2.00", res.Discount.StringFixed(2))
	assert.Equal(t, "18.00", res.Total.StringFixed(2))

	var order models.Order
	require.NoError(t, h.conn.First(&order, "id = ?", res.OrderID).Error)
	require.NotNil(t, order.CouponCode)
	assert.Equal(t, "ONCE", *order.CouponCode)
	assert.Equal(t, "18.00", order.Total.StringFixed(2))
	assert.EqualValues(t, 1, h.countOrders(t))
}
