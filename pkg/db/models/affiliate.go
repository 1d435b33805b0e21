package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawpantry/storefront-api/pkg/enums"
)

// Affiliate is a partner that earns commission on referred orders.
// Bank account and routing numbers are stored sealed.
type Affiliate struct {
	ID                 uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	UserID             uuid.UUID             `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	AffiliateCode      string                `gorm:"column:affiliate_code;not null;uniqueIndex"`
	Status             enums.AffiliateStatus `gorm:"column:status;type:text;not null"`
	Country            string                `gorm:"column:country;not null"`
	Address            string                `gorm:"column:address;not null"`
	Phone              string                `gorm:"column:phone;not null"`
	TrafficSource      string                `gorm:"column:traffic_source;not null"`
	TrafficSourceOther *string               `gorm:"column:traffic_source_other"`
	PaymentMethod      enums.PayoutMethod    `gorm:"column:payment_method;type:text;not null"`
	PayPalEmail        *string               `gorm:"column:paypal_email"`
	BankName           *string               `gorm:"column:bank_name"`
	BankAccountSealed  *string               `gorm:"column:bank_account_sealed"`
	BankRoutingSealed  *string               `gorm:"column:bank_routing_sealed"`
	BankAccountLast4   *string               `gorm:"column:bank_account_last4"`
	AccountHolderName  *string               `gorm:"column:account_holder_name"`
	TotalClicks        int                   `gorm:"column:total_clicks;not null;default:0"`
	TotalSales         int                   `gorm:"column:total_sales;not null;default:0"`
	TotalEarnings      decimal.Decimal       `gorm:"column:total_earnings;type:numeric(12,2);not null;default:0"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Affiliate) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// AffiliateSale records the commission owed for one order.
type AffiliateSale struct {
	ID             uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	AffiliateID    uuid.UUID                 `gorm:"column:affiliate_id;type:uuid;not null;index"`
	OrderID        uuid.UUID                 `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	OrderTotal     decimal.Decimal           `gorm:"column:order_total;type:numeric(12,2);not null"`
	CommissionRate decimal.Decimal           `gorm:"column:commission_rate;type:numeric(5,4);not null"`
	Commission     decimal.Decimal           `gorm:"column:commission;type:numeric(12,2);not null"`
	Status         enums.AffiliateSaleStatus `gorm:"column:status;type:text;not null"`
	CreatedAt      time.Time                 `gorm:"column:created_at;autoCreateTime"`
}

func (s *AffiliateSale) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
