package affiliates

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pawpantry/storefront-api/pkg/db/models"
	"github.com/pawpantry/storefront-api/pkg/enums"
)

// AffiliateDTO never carries sealed bank details, only the last four digits.
type AffiliateDTO struct {
	ID                 uuid.UUID             `json:"id"`
	AffiliateCode      string                `json:"affiliate_code"`
	Status             enums.AffiliateStatus `json:"status"`
	Country            string                `json:"country"`
	Address            string                `json:"address"`
	Phone              string                `json:"phone"`
	TrafficSource      string                `json:"traffic_source"`
	TrafficSourceOther *string               `json:"traffic_source_other,omitempty"`
	PaymentMethod      enums.PayoutMethod    `json:"payment_method"`
	PayPalEmail        *string               `json:"paypal_email,omitempty"`
	BankName           *string               `json:"bank_name,omitempty"`
	BankAccountLast4   *string               `json:"bank_account_last4,omitempty"`
	AccountHolderName  *string               `json:"account_holder_name,omitempty"`
	TotalClicks        int                   `json:"total_clicks"`
	TotalSales         int                   `json:"total_sales"`
	TotalEarnings      decimal.Decimal       `json:"total_earnings"`
	CreatedAt          time.Time             `json:"created_at"`
}

type SaleDTO struct {
	ID             uuid.UUID                 `json:"id"`
	OrderID        uuid.UUID                 `json:"order_id"`
	OrderNumber    string                    `json:"order_number"`
	OrderTotal     decimal.Decimal           `json:"order_total"`
	CommissionRate decimal.Decimal           `json:"commission_rate"`
	Commission     decimal.Decimal           `json:"commission"`
	Status         enums.AffiliateSaleStatus `json:"status"`
	CreatedAt      time.Time                 `json:"created_at"`
}

// DashboardDTO is the affiliate's own view of their account.
type DashboardDTO struct {
	Affiliate AffiliateDTO `json:"affiliate"`
	Sales     []SaleDTO    `json:"sales"`
}

func NewAffiliateDTO(a *models.Affiliate) AffiliateDTO {
	return AffiliateDTO{
		ID:                 a.ID,
		AffiliateCode:      a.AffiliateCode,
		Status:             a.Status,
		Country:            a.Country,
		Address:            a.Address,
		Phone:              a.Phone,
		TrafficSource:      a.TrafficSource,
		TrafficSourceOther: a.TrafficSourceOther,
		PaymentMethod:      a.PaymentMethod,
		PayPalEmail:        a.PayPalEmail,
		BankName:           a.BankName,
		BankAccountLast4:   a.BankAccountLast4,
		AccountHolderName:  a.AccountHolderName,
		TotalClicks:        a.TotalClicks,
		TotalSales:         a.TotalSales,
		TotalEarnings:      a.TotalEarnings,
		CreatedAt:          a.CreatedAt,
	}
}
