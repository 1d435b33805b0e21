package affiliates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawpantry/storefront-api/pkg/checkout"
	"github.com/pawpantry/storefront-api/pkg/db/models"
	"github.com/pawpantry/storefront-api/pkg/enums"
	"github.com/pawpantry/storefront-api/pkg/outbox"
	"github.com/pawpantry/storefront-api/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CommissionRecorder attributes orders to affiliates and books their
// commission.
type CommissionRecorder struct {
	repo            *Repository
	tx              txRunner
	outbox          outboxPublisher
	rate            decimal.Decimal
	requireApproved bool
}

func NewCommissionRecorder(repo *Repository, tx txRunner, publisher outboxPublisher, rate decimal.Decimal, requireApproved bool) (*CommissionRecorder, error) {
	if repo == nil {
		return nil, fmt.Errorf("affiliate repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("commission rate must be within [0,1]")
	}
	return &CommissionRecorder{repo: repo, tx: tx, outbox: publisher, rate: rate, requireApproved: requireApproved}, nil
}

// Rate is the fraction of the order total paid as commission.
func (r *CommissionRecorder) Rate() decimal.Decimal {
	return r.rate
}

// Resolve turns a client-supplied affiliate reference into an affiliate id.
// Malformed, unknown and unapproved references resolve to nil without error
// so checkout proceeds unattributed; only lookup failures are returned.
func (r *CommissionRecorder) Resolve(ctx context.Context, raw *string) (*uuid.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil || id == uuid.Nil {
		return nil, nil
	}
	affiliate, err := r.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if r.requireApproved && affiliate.Status != enums.AffiliateStatusApproved {
		return nil, nil
	}
	return &affiliate.ID, nil
}

// Record books the sale and bumps the affiliate aggregates in one
// transaction together with the affiliate.sale_recorded event.
func (r *CommissionRecorder) Record(ctx context.Context, affiliateID, orderID uuid.UUID, orderTotal decimal.Decimal) (*models.AffiliateSale, error) {
	sale := &models.AffiliateSale{
		AffiliateID:    affiliateID,
		OrderID:        orderID,
		OrderTotal:     orderTotal,
		CommissionRate: r.rate,
		Commission:     checkout.Commission(orderTotal, r.rate),
		Status:         enums.AffiliateSaleStatusPending,
	}
	err := r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := r.repo.WithTx(tx)
		if err := repo.CreateSale(ctx, sale); err != nil {
			return fmt.Errorf("insert affiliate sale: %w", err)
		}
		if err := repo.AddSale(ctx, affiliateID, sale.Commission); err != nil {
			return fmt.Errorf("update affiliate totals: %w", err)
		}
		return r.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventAffiliateSaleRecorded,
			AggregateType: enums.AggregateAffiliate,
			AggregateID:   affiliateID,
			Data: payloads.AffiliateSaleRecordedEvent{
				SaleID:         sale.ID,
				AffiliateID:    affiliateID,
				OrderID:        orderID,
				OrderTotal:     orderTotal,
				CommissionRate: sale.CommissionRate,
				Commission:     sale.Commission,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}
