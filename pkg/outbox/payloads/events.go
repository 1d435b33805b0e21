package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pawpantry/storefront-api/pkg/enums"
)

// OrderCreatedEvent is emitted when checkout persists an order.
type OrderCreatedEvent struct {
	OrderID         uuid.UUID         `json:"order_id"`
	OrderNumber     string            `json:"order_number"`
	Email           string            `json:"email"`
	Status          enums.OrderStatus `json:"status"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	Discount        decimal.Decimal   `json:"discount"`
	Total           decimal.Decimal   `json:"total"`
	CouponCode      *string           `json:"coupon_code,omitempty"`
	AffiliateID     *uuid.UUID        `json:"affiliate_id,omitempty"`
	PaymentVerified bool              `json:"payment_verified"`
	ItemCount       int               `json:"item_count"`
}

// OrderStatusChangedEvent is emitted when an admin moves an order.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	OrderNumber    string            `json:"order_number"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	Status         enums.OrderStatus `json:"status"`
}

// AffiliateSaleRecordedEvent is emitted when a commission is recorded.
type AffiliateSaleRecordedEvent struct {
	SaleID         uuid.UUID       `json:"sale_id"`
	AffiliateID    uuid.UUID       `json:"affiliate_id"`
	OrderID        uuid.UUID       `json:"order_id"`
	OrderTotal     decimal.Decimal `json:"order_total"`
	CommissionRate decimal.Decimal `json:"commission_rate"`
	Commission     decimal.Decimal `json:"commission"`
}
