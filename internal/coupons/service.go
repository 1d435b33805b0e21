package coupons

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawpantry/storefront-api/pkg/db"
	"github.com/pawpantry/storefront-api/pkg/db/models"
	"github.com/pawpantry/storefront-api/pkg/enums"
	pkgerrors "github.com/pawpantry/storefront-api/pkg/errors"
)

// Service covers admin coupon creation and public coupon previews.
type Service interface {
	CreateCoupon(ctx context.Context, input CreateCouponInput) (*CouponDTO, error)
	Quote(ctx context.Context, code string, subtotal decimal.Decimal) (Quote, error)
}

// CreateCouponInput holds the validated admin payload. ValidDays derives
// ValidUntil from ValidFrom when ValidUntil is absent.
type CreateCouponInput struct {
	Code          string
	Description   *string
	DiscountType  enums.DiscountType
	DiscountValue decimal.Decimal
	MinPurchase   *decimal.Decimal
	MaxDiscount   *decimal.Decimal
	UsageLimit    *int
	ValidFrom     *time.Time
	ValidUntil    *time.Time
	ValidDays     *int
}

type service struct {
	repo    *Repository
	applier *Applier
	now     func() time.Time
}

func NewService(repo *Repository, applier *Applier) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if applier == nil {
		return nil, fmt.Errorf("coupon applier required")
	}
	return &service{repo: repo, applier: applier, now: time.Now}, nil
}

func (s *service) CreateCoupon(ctx context.Context, input CreateCouponInput) (*CouponDTO, error) {
	coupon, err := s.buildCoupon(input)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.CodeExists(ctx, coupon.Code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check coupon code")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	return NewCouponDTO(coupon), nil
}

func (s *service) buildCoupon(input CreateCouponInput) (*models.Coupon, error) {
	code := NormalizeCode(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if strings.ContainsAny(code, " \t\n") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code cannot contain whitespace")
	}
	if !input.DiscountType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount_type must be percentage or fixed")
	}
	if !input.DiscountValue.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount_value must be positive")
	}
	if input.DiscountType == enums.DiscountTypePercentage && input.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	if input.MaxDiscount != nil && input.DiscountType != enums.DiscountTypePercentage {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max_discount applies to percentage coupons only")
	}
	if input.MaxDiscount != nil && !input.MaxDiscount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max_discount must be positive")
	}
	if input.MinPurchase != nil && input.MinPurchase.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_purchase cannot be negative")
	}
	if input.UsageLimit != nil && *input.UsageLimit < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage_limit must be at least 1")
	}

	validFrom := s.now().UTC()
	if input.ValidFrom != nil {
		validFrom = input.ValidFrom.UTC()
	}
	validUntil := input.ValidUntil
	if validUntil == nil && input.ValidDays != nil {
		if *input.ValidDays < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid_days must be at least 1")
		}
		until := validFrom.AddDate(0, 0, *input.ValidDays)
		validUntil = &until
	}
	if validUntil != nil {
		until := validUntil.UTC()
		if !until.After(validFrom) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid_until must be after valid_from")
		}
		validUntil = &until
	}

	coupon := &models.Coupon{
		Code:          code,
		Description:   input.Description,
		DiscountType:  input.DiscountType,
		DiscountValue: input.DiscountValue,
		UsageLimit:    input.UsageLimit,
		ValidFrom:     validFrom,
		ValidUntil:    validUntil,
		Status:        enums.CouponStatusActive,
	}
	if input.MinPurchase != nil {
		coupon.MinPurchase = decimal.NewNullDecimal(*input.MinPurchase)
	}
	if input.MaxDiscount != nil {
		coupon.MaxDiscount = decimal.NewNullDecimal(*input.MaxDiscount)
	}
	return coupon, nil
}

// Quote previews a coupon without consuming it.
func (s *service) Quote(ctx context.Context, code string, subtotal decimal.Decimal) (Quote, error) {
	if strings.TrimSpace(code) == "" {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if subtotal.IsNegative() {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "subtotal cannot be negative")
	}
	return s.applier.Apply(ctx, &code, subtotal), nil
}
