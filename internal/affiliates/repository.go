package affiliates

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pawpantry/storefront-api/pkg/db/models"
	"github.com/pawpantry/storefront-api/pkg/enums"
)

// SaleRow is an affiliate sale joined with its order.
type SaleRow struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	OrderNumber    string
	OrderTotal     decimal.Decimal
	CommissionRate decimal.Decimal
	Commission     decimal.Decimal
	Status         enums.AffiliateSaleStatus
	CreatedAt      time.Time
}

const recentSalesQuery = `
SELECT s.id, s.order_id, o.order_number, s.order_total, s.commission_rate, s.commission, s.status, s.created_at
FROM affiliate_sales s
JOIN orders o ON o.id = s.order_id
WHERE s.affiliate_id = ?
ORDER BY s.created_at DESC
LIMIT ?
`

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, affiliate *models.Affiliate) error {
	return r.db.WithContext(ctx).Create(affiliate).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	if err := r.db.WithContext(ctx).First(&affiliate, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &affiliate, nil
}

func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	if err := r.db.WithContext(ctx).First(&affiliate, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &affiliate, nil
}

// CodeExists compares codes case-insensitively.
func (r *Repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Affiliate{}).
		Where("LOWER(affiliate_code) = ?", strings.ToLower(strings.TrimSpace(code))).
		Count(&count).
		Error
	return count > 0, err
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.AffiliateStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Affiliate{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementClicks bumps total_clicks for the approved affiliate owning code.
func (r *Repository) IncrementClicks(ctx context.Context, code string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Affiliate{}).
		Where("LOWER(affiliate_code) = ? AND status = ?", strings.ToLower(strings.TrimSpace(code)), enums.AffiliateStatusApproved).
		Update("total_clicks", gorm.Expr("total_clicks + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) CreateSale(ctx context.Context, sale *models.AffiliateSale) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

// AddSale increments the aggregate counters in a single statement.
func (r *Repository) AddSale(ctx context.Context, affiliateID uuid.UUID, commission decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&models.Affiliate{}).
		Where("id = ?", affiliateID).
		Updates(map[string]any{
			"total_sales":    gorm.Expr("total_sales + 1"),
			"total_earnings": gorm.Expr("total_earnings + ?", commission),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) RecentSales(ctx context.Context, affiliateID uuid.UUID, limit int) ([]SaleRow, error) {
	var rows []SaleRow
	err := r.db.WithContext(ctx).Raw(recentSalesQuery, affiliateID, limit).Scan(&rows).Error
	return rows, err
}
