package affiliates

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pawpantry/storefront-api/pkg/db"
	"github.com/pawpantry/storefront-api/pkg/db/dbtest"
	"github.com/pawpantry/storefront-api/pkg/db/models"
	"github.com/pawpantry/storefront-api/pkg/enums"
	"github.com/pawpantry/storefront-api/pkg/outbox"
)

func newRecorder(t *testing.T) (*CommissionRecorder, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	rec, err := NewCommissionRecorder(
		NewRepository(conn),
		db.Wrap(conn),
		outbox.NewService(outbox.NewRepository(conn), nil),
		decimal.RequireFromString("0.15"),
		true,
	)
	require.NoError(t, err)
	return rec, conn
}

func seedAffiliate(t *testing.T, conn *gorm.DB, status enums.AffiliateStatus) *models.Affiliate {
	t.Helper()
	email := "p@example.com"
	a := &models.Affiliate{
		UserID:        uuid.New(),
		AffiliateCode: "code-" + uuid.NewString()[:8],
		Status:        status,
		Country:       "US",
		Address:       "addr",
		Phone:         "1",
		TrafficSource: "blog",
		PaymentMethod: enums.PayoutMethodPayPal,
		PayPalEmail:   &email,
	}
	require.NoError(t, conn.Create(a).Error)
	return a
}

func strPtr(v string) *string { return &v }

func TestResolveDropsUnusableReferences(t *testing.T) {
	rec, conn := newRecorder(t)
	ctx := context.Background()
	approved := seedAffiliate(t, conn, enums.AffiliateStatusApproved)
	pending := seedAffiliate(t, conn, enums.AffiliateStatusPending)

	for name, raw := range map[string]*string{
		"absent":    nil,
		"malformed": strPtr("not-a-uuid"),
		"unknown":   strPtr(uuid.NewString()),
		"pending":   strPtr(pending.ID.String()),
	} {
		id, err := rec.Resolve(ctx, raw)
		require.NoError(t, err, name)
		assert.Nil(t, id, name)
	}

	id, err := rec.Resolve(ctx, strPtr(" "+approved.ID.String()+" "))
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, approved.ID, *id)
}

func TestRecordBooksCommissionAndTotals(t *testing.T) {
	rec, conn := newRecorder(t)
	ctx := context.Background()
	affiliate := seedAffiliate(t, conn, enums.AffiliateStatusApproved)
	orderID := uuid.New()

	sale, err := rec.Record(ctx, affiliate.ID, orderID, decimal.RequireFromString("18.00"))
	require.NoError(t, err)
	assert.True(t, sale.Commission.Equal(decimal.RequireFromString("2.70")))
	assert.True(t, sale.CommissionRate.Equal(decimal.RequireFromString("0.15")))
	assert.Equal(t, enums.AffiliateSaleStatusPending, sale.Status)

	var stored models.Affiliate
	require.NoError(t, conn.First(&stored, "id = ?", affiliate.ID).Error)
	assert.Equal(t, 1, stored.TotalSales)
	assert.True(t, stored.TotalEarnings.Equal(decimal.RequireFromString("2.70")), stored.TotalEarnings.String())

	var events []models.OutboxEvent
	require.NoError(t, conn.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventAffiliateSaleRecorded, events[0].EventType)

	var storedSale models.AffiliateSale
	require.NoError(t, conn.First(&storedSale, "order_id = ?", orderID).Error)
	assert.Equal(t, "0.1500", storedSale.CommissionRate.StringFixed(4))
	assert.Contains(t, events[0].Payload, `"commission_rate":"0.15"`)

	_, err = rec.Record(ctx, affiliate.ID, orderID, decimal.RequireFromString("18.00"))
	require.Error(t, err, "one sale per order")
	require.NoError(t, conn.First(&stored, "id = ?", affiliate.ID).Error)
	assert.Equal(t, 1, stored.TotalSales)
}
