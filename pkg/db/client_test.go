package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pawpantry/storefront-api/pkg/config"
	"github.com/pawpantry/storefront-api/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testModel struct {
	ID   int
	Name string `gorm:"uniqueIndex"`
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:db_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := Wrap(db)

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestPing(t *testing.T) {
	client := Wrap(newTestDB(t))
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db := newTestDB(t)
	if err := db.Create(&testModel{Name: "dup"}).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	err := db.Create(&testModel{Name: "dup"}).Error
	if !IsUniqueViolation(err, "") {
		t.Fatalf("expected sqlite duplicate to be detected, got %v", err)
	}

	pgErr := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"})
	if !IsUniqueViolation(pgErr, "orders_order_number_key") {
		t.Fatal("expected pg unique violation to match constraint")
	}
	if IsUniqueViolation(pgErr, "coupons_code_key") {
		t.Fatal("constraint mismatch should not match")
	}
	if IsUniqueViolation(errors.New("boom"), "") {
		t.Fatal("plain errors are not unique violations")
	}
}

func TestPoolSettingsDefaultsAndClamp(t *testing.T) {
	pool := poolSettings(config.DBConfig{})
	if pool.MaxOpenConns != defaultMaxOpenConns || pool.MaxIdleConns != defaultMaxIdleConns {
		t.Fatalf("expected default pool sizes, got open=%d idle=%d", pool.MaxOpenConns, pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime != defaultConnMaxLifetime || pool.ConnMaxIdleTime != defaultConnMaxIdleTime {
		t.Fatalf("expected default lifetimes, got %s/%s", pool.ConnMaxLifetime, pool.ConnMaxIdleTime)
	}

	pool = poolSettings(config.DBConfig{MaxOpenConns: 4, MaxIdleConns: 8, ConnMaxLifetime: time.Minute})
	if pool.MaxIdleConns != 4 {
		t.Fatalf("expected idle clamped to 4, got %d", pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime != time.Minute {
		t.Fatalf("expected configured lifetime kept, got %s", pool.ConnMaxLifetime)
	}
}

func TestApplyPoolSettings(t *testing.T) {
	sqlDB, err := newTestDB(t).DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	applyPoolSettings(sqlDB, config.DBConfig{MaxOpenConns: 3})
	if got := sqlDB.Stats().MaxOpenConnections; got != 3 {
		t.Fatalf("expected max open 3, got %d", got)
	}
}

func TestQueryLoggerReportsSlowQueries(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: buf})
	ql := newQueryLogger(logg, 100*time.Millisecond)
	rows := func() (string, int64) { return "SELECT * FROM orders", 3 }

	ql.Trace(context.Background(), time.Now(), rows, nil)
	if buf.Len() != 0 {
		t.Fatalf("fast query should not be logged, got %s", buf.String())
	}

	ql.Trace(context.Background(), time.Now().Add(-time.Second), rows, nil)
	for _, field := range []string{"slow database query", "SELECT * FROM orders", "\"elapsed_ms\"", "\"rows\":3"} {
		if !bytes.Contains(buf.Bytes(), []byte(field)) {
			t.Fatalf("expected %s in entry=%s", field, buf.String())
		}
	}

	if _, ok := newQueryLogger(logg, 0).(*queryLogger); ok {
		t.Fatal("zero threshold should disable slow query logging")
	}
}
