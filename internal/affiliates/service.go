package affiliates

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pawpantry/storefront-api/pkg/db"
	"github.com/pawpantry/storefront-api/pkg/db/models"
	"github.com/pawpantry/storefront-api/pkg/enums"
	pkgerrors "github.com/pawpantry/storefront-api/pkg/errors"
	"github.com/pawpantry/storefront-api/pkg/security"
)

const (
	// TrafficSourceOthers requires a free-text description.
	TrafficSourceOthers = "others"
	recentSalesLimit    = 50
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)

// Service covers affiliate signup, the dashboard, click tracking and
// admin review.
type Service interface {
	Signup(ctx context.Context, userID uuid.UUID, input SignupInput) (*AffiliateDTO, error)
	Dashboard(ctx context.Context, userID uuid.UUID) (*DashboardDTO, error)
	TrackClick(ctx context.Context, code string) error
	UpdateStatus(ctx context.Context, affiliateID uuid.UUID, status string) (*AffiliateDTO, error)
}

// SignupInput is the profile and payout payload of a new affiliate.
type SignupInput struct {
	AffiliateCode      string
	Country            string
	Address            string
	Phone              string
	TrafficSource      string
	TrafficSourceOther string
	PaymentMethod      enums.PayoutMethod
	PayPalEmail        string
	BankName           string
	AccountNumber      string
	RoutingNumber      string
	AccountHolderName  string
}

type sealer interface {
	Seal(plaintext string) (string, error)
}

type service struct {
	repo   *Repository
	sealer sealer
}

// NewService builds the affiliate service. A nil sealer disables bank
// transfer payouts.
func NewService(repo *Repository, sealer *security.Sealer) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("affiliate repository required")
	}
	svc := &service{repo: repo}
	if sealer != nil {
		svc.sealer = sealer
	}
	return svc, nil
}

func (s *service) Signup(ctx context.Context, userID uuid.UUID, input SignupInput) (*AffiliateDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	affiliate, err := s.buildAffiliate(userID, input)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByUserID(ctx, userID); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "you already have an affiliate account")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load affiliate")
	}
	taken, err := s.repo.CodeExists(ctx, affiliate.AffiliateCode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check affiliate code")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "affiliate code already taken")
	}

	if err := s.repo.Create(ctx, affiliate); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "affiliate code already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create affiliate")
	}
	dto := NewAffiliateDTO(affiliate)
	return &dto, nil
}

func (s *service) buildAffiliate(userID uuid.UUID, input SignupInput) (*models.Affiliate, error) {
	code := strings.TrimSpace(input.AffiliateCode)
	if !codePattern.MatchString(code) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "affiliate code must be 3-32 letters, digits, dashes or underscores")
	}
	required := map[string]string{
		"country":        input.Country,
		"address":        input.Address,
		"phone":          input.Phone,
		"traffic_source": input.TrafficSource,
	}
	var missing []string
	for _, field := range []string{"country", "address", "phone", "traffic_source"} {
		if strings.TrimSpace(required[field]) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing required fields").WithDetails(map[string]any{"fields": missing})
	}

	affiliate := &models.Affiliate{
		UserID:        userID,
		AffiliateCode: code,
		Status:        enums.AffiliateStatusPending,
		Country:       strings.TrimSpace(input.Country),
		Address:       strings.TrimSpace(input.Address),
		Phone:         strings.TrimSpace(input.Phone),
		TrafficSource: strings.TrimSpace(input.TrafficSource),
		PaymentMethod: input.PaymentMethod,
	}
	if strings.EqualFold(affiliate.TrafficSource, TrafficSourceOthers) {
		other := strings.TrimSpace(input.TrafficSourceOther)
		if other == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "describe your traffic source")
		}
		affiliate.TrafficSourceOther = &other
	}

	switch input.PaymentMethod {
	case enums.PayoutMethodPayPal:
		email := strings.TrimSpace(input.PayPalEmail)
		if email == "" || !strings.Contains(email, "@") {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "paypal_email is required for paypal payouts")
		}
		affiliate.PayPalEmail = &email
	case enums.PayoutMethodBankTransfer:
		if err := s.attachBank(affiliate, input); err != nil {
			return nil, err
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment_method must be paypal or bank_transfer")
	}
	return affiliate, nil
}

func (s *service) attachBank(a *models.Affiliate, input SignupInput) error {
	bankName := strings.TrimSpace(input.BankName)
	account := strings.TrimSpace(input.AccountNumber)
	routing := strings.TrimSpace(input.RoutingNumber)
	holder := strings.TrimSpace(input.AccountHolderName)
	if bankName == "" || account == "" || routing == "" || holder == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "bank_name, account_number, routing_number and account_holder_name are required for bank transfers")
	}
	if s.sealer == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "bank transfer payouts are not available")
	}
	sealedAccount, err := s.sealer.Seal(account)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seal account number")
	}
	sealedRouting, err := s.sealer.Seal(routing)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "seal routing number")
	}
	last4 := security.Last4(account)
	a.BankName = &bankName
	a.BankAccountSealed = &sealedAccount
	a.BankRoutingSealed = &sealedRouting
	a.BankAccountLast4 = &last4
	a.AccountHolderName = &holder
	return nil
}

func (s *service) Dashboard(ctx context.Context, userID uuid.UUID) (*DashboardDTO, error) {
	affiliate, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "affiliate account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load affiliate")
	}
	rows, err := s.repo.RecentSales(ctx, affiliate.ID, recentSalesLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load affiliate sales")
	}
	out := &DashboardDTO{Affiliate: NewAffiliateDTO(affiliate), Sales: make([]SaleDTO, 0, len(rows))}
	for _, row := range rows {
		out.Sales = append(out.Sales, SaleDTO{
			ID:             row.ID,
			OrderID:        row.OrderID,
			OrderNumber:    row.OrderNumber,
			OrderTotal:     row.OrderTotal,
			CommissionRate: row.CommissionRate,
			Commission:     row.Commission,
			Status:         row.Status,
			CreatedAt:      row.CreatedAt,
		})
	}
	return out, nil
}

// TrackClick counts a referral click. Unknown or unapproved codes are
// ignored so the endpoint cannot be used to enumerate codes.
func (s *service) TrackClick(ctx context.Context, code string) error {
	if !codePattern.MatchString(strings.TrimSpace(code)) {
		return nil
	}
	if _, err := s.repo.IncrementClicks(ctx, code); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "track click")
	}
	return nil
}

func (s *service) UpdateStatus(ctx context.Context, affiliateID uuid.UUID, status string) (*AffiliateDTO, error) {
	next, err := enums.ParseAffiliateStatus(strings.ToLower(strings.TrimSpace(status)))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid affiliate status")
	}
	if err := s.repo.UpdateStatus(ctx, affiliateID, next); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "affiliate not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update affiliate status")
	}
	affiliate, err := s.repo.FindByID(ctx, affiliateID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load affiliate")
	}
	dto := NewAffiliateDTO(affiliate)
	return &dto, nil
}
