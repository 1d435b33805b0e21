// Package dbtest opens throwaway in-memory SQLite databases carrying the
// storefront schema for repository and service tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/pawpantry/storefront-api/pkg/db/models"
)

// Models lists every table the storefront owns.
var Models = []any{
	&models.Product{},
	&models.ProductVariant{},
	&models.Coupon{},
	&models.Affiliate{},
	&models.AffiliateSale{},
	&models.Order{},
	&models.OrderItem{},
	&models.OutboxEvent{},
}

// Open returns a migrated database private to the test. A single pooled
// connection keeps concurrent writers from tripping SQLite table locks.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:store_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(Models...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}
