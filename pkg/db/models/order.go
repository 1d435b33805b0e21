package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawpantry/storefront-api/pkg/enums"
	"github.com/pawpantry/storefront-api/pkg/types"
)

// Order is the persisted record of a completed checkout.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber      string            `gorm:"column:order_number;not null;uniqueIndex"`
	UserID           *uuid.UUID        `gorm:"column:user_id;type:uuid"`
	Email            string            `gorm:"column:email;not null"`
	Status           enums.OrderStatus `gorm:"column:status;type:text;not null"`
	Subtotal         decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Discount         decimal.Decimal   `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Total            decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	CouponCode       *string           `gorm:"column:coupon_code"`
	AffiliateID      *uuid.UUID        `gorm:"column:affiliate_id;type:uuid"`
	PaymentMethod    string            `gorm:"column:payment_method;not null;default:paypal"`
	PaymentReference *string           `gorm:"column:payment_reference"`
	PaymentVerified  bool              `gorm:"column:payment_verified;not null;default:false"`
	ShippingAddress  types.Address     `gorm:"column:shipping_address;type:jsonb;not null"`
	BillingAddress   types.Address     `gorm:"column:billing_address;type:jsonb;not null"`
	Courier          string            `gorm:"column:courier;not null"`
	Items            []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem snapshots one purchased line at checkout time.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName string          `gorm:"column:product_name;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Subtotal    decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Size        *string         `gorm:"column:size"`
	Color       *string         `gorm:"column:color"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
