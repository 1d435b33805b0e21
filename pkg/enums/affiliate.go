package enums

import "fmt"

// AffiliateStatus is the review state of an affiliate application.
type AffiliateStatus string

const (
	AffiliateStatusPending  AffiliateStatus = "pending"
	AffiliateStatusApproved AffiliateStatus = "approved"
	AffiliateStatusRejected AffiliateStatus = "rejected"
)

var validAffiliateStatuses = []AffiliateStatus{
	AffiliateStatusPending,
	AffiliateStatusApproved,
	AffiliateStatusRejected,
}

// String implements fmt.Stringer.
func (a AffiliateStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AffiliateStatus.
func (a AffiliateStatus) IsValid() bool {
	for _, candidate := range validAffiliateStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAffiliateStatus converts raw input into an AffiliateStatus.
func ParseAffiliateStatus(value string) (AffiliateStatus, error) {
	for _, candidate := range validAffiliateStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid affiliate status %q", value)
}

// AffiliateSaleStatus is the payout state of a recorded commission.
type AffiliateSaleStatus string

const (
	AffiliateSaleStatusPending   AffiliateSaleStatus = "pending"
	AffiliateSaleStatusApproved  AffiliateSaleStatus = "approved"
	AffiliateSaleStatusPaid      AffiliateSaleStatus = "paid"
	AffiliateSaleStatusCancelled AffiliateSaleStatus = "cancelled"
)

var validAffiliateSaleStatuses = []AffiliateSaleStatus{
	AffiliateSaleStatusPending,
	AffiliateSaleStatusApproved,
	AffiliateSaleStatusPaid,
	AffiliateSaleStatusCancelled,
}

// String implements fmt.Stringer.
func (a AffiliateSaleStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AffiliateSaleStatus.
func (a AffiliateSaleStatus) IsValid() bool {
	for _, candidate := range validAffiliateSaleStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAffiliateSaleStatus converts raw input into an AffiliateSaleStatus.
func ParseAffiliateSaleStatus(value string) (AffiliateSaleStatus, error) {
	for _, candidate := range validAffiliateSaleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid affiliate sale status %q", value)
}

// PayoutMethod is how an affiliate wants commissions paid.
type PayoutMethod string

const (
	PayoutMethodPayPal       PayoutMethod = "paypal"
	PayoutMethodBankTransfer PayoutMethod = "bank_transfer"
)

var validPayoutMethods = []PayoutMethod{
	PayoutMethodPayPal,
	PayoutMethodBankTransfer,
}

// String implements fmt.Stringer.
func (p PayoutMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PayoutMethod.
func (p PayoutMethod) IsValid() bool {
	for _, candidate := range validPayoutMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePayoutMethod converts raw input into a PayoutMethod.
func ParsePayoutMethod(value string) (PayoutMethod, error) {
	for _, candidate := range validPayoutMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout method %q", value)
}
