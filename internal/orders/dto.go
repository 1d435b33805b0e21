package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pawpantry/storefront-api/pkg/db/models"
	"github.com/pawpantry/storefront-api/pkg/enums"
	"github.com/pawpantry/storefront-api/pkg/types"
)

// OrderDTO is the order detail returned to customers and admins.
type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	OrderNumber     string            `json:"order_number"`
	Email           string            `json:"email"`
	Status          enums.OrderStatus `json:"status"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	Discount        decimal.Decimal   `json:"discount_amount"`
	Total           decimal.Decimal   `json:"total"`
	CouponCode      *string           `json:"coupon_code,omitempty"`
	AffiliateID     *uuid.UUID        `json:"affiliate_id,omitempty"`
	PaymentMethod   string            `json:"payment_method"`
	PaymentVerified bool              `json:"payment_verified"`
	ShippingAddress types.Address     `json:"shipping_address"`
	BillingAddress  types.Address     `json:"billing_address"`
	Courier         string            `json:"courier"`
	Items           []OrderItemDTO    `json:"items"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type OrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Size        *string         `json:"size,omitempty"`
	Color       *string         `json:"color,omitempty"`
}

// OrderList is a cursor-paginated page of orders.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func NewOrderDTO(o *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		Email:           o.Email,
		Status:          o.Status,
		Subtotal:        o.Subtotal,
		Discount:        o.Discount,
		Total:           o.Total,
		CouponCode:      o.CouponCode,
		AffiliateID:     o.AffiliateID,
		PaymentMethod:   o.PaymentMethod,
		PaymentVerified: o.PaymentVerified,
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		Courier:         o.Courier,
		Items:           make([]OrderItemDTO, 0, len(o.Items)),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, item := range o.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
			Size:        item.Size,
			Color:       item.Color,
		})
	}
	return dto
}
