package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/pawpantry/storefront-api/api/controllers"
	"github.com/pawpantry/storefront-api/api/routes"
	"github.com/pawpantry/storefront-api/internal/affiliates"
	checkoutsvc "github.com/pawpantry/storefront-api/internal/checkout"
	"github.com/pawpantry/storefront-api/internal/coupons"
	"github.com/pawpantry/storefront-api/internal/orders"
	"github.com/pawpantry/storefront-api/internal/products"
	"github.com/pawpantry/storefront-api/pkg/config"
	"github.com/pawpantry/storefront-api/pkg/db"
	"github.com/pawpantry/storefront-api/pkg/env"
	"github.com/pawpantry/storefront-api/pkg/instance"
	"github.com/pawpantry/storefront-api/pkg/logger"
	"github.com/pawpantry/storefront-api/pkg/metrics"
	"github.com/pawpantry/storefront-api/pkg/migrate"
	"github.com/pawpantry/storefront-api/pkg/outbox"
	"github.com/pawpantry/storefront-api/pkg/paypal"
	"github.com/pawpantry/storefront-api/pkg/redis"
	"github.com/pawpantry/storefront-api/pkg/security"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(ctx, "redis not configured; idempotency, rate limits and daily order sequences are disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	conn := dbClient.DB()
	publisher := outbox.NewService(outbox.NewRepository(conn), logg)

	var sealer *security.Sealer
	if cfg.Security.PayoutSealKey != "" {
		if sealer, err = security.NewSealer(cfg.Security.PayoutSealKey); err != nil {
			return err
		}
	} else {
		logg.Warn(ctx, "payout seal key not configured; bank transfer payouts are disabled")
	}

	var (
		gateway checkoutsvc.PaymentGateway
		buttons controllers.PayPalOrders
	)
	if cfg.PayPal.Configured() {
		client, err := paypal.New(cfg.PayPal, logg)
		if err != nil {
			return err
		}
		gateway, buttons = client, client
	} else if cfg.App.IsProd() {
		logg.Error(ctx, "paypal credentials not configured in production; payment references will be rejected", nil)
	} else {
		logg.Warn(ctx, "paypal credentials not configured; payment references will be rejected")
	}

	var numbers orders.NumberGenerator = orders.NewRandomNumbers(cfg.Checkout.OrderNumberPrefix)
	if redisClient != nil {
		numbers = orders.NewSequenceNumbers(cfg.Checkout.OrderNumberPrefix, redisClient, cfg.RateLimit.OrderSequenceTTL)
	}

	productRepo := products.NewRepository(conn)
	productService, err := products.NewService(productRepo, dbClient)
	if err != nil {
		return err
	}

	couponRepo := coupons.NewRepository(conn)
	applier := coupons.NewApplier(couponRepo, logg)
	couponService, err := coupons.NewService(couponRepo, applier)
	if err != nil {
		return err
	}

	orderRepo := orders.NewRepository(conn)
	orderService, err := orders.NewService(orderRepo, dbClient, publisher)
	if err != nil {
		return err
	}

	affiliateRepo := affiliates.NewRepository(conn)
	affiliateService, err := affiliates.NewService(affiliateRepo, sealer)
	if err != nil {
		return err
	}
	recorder, err := affiliates.NewCommissionRecorder(affiliateRepo, dbClient, publisher, cfg.Checkout.Rate(), cfg.Checkout.RequireApprovedAffil)
	if err != nil {
		return err
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.Dependencies{
		Tx:                dbClient,
		Products:          productRepo,
		Stock:             productRepo,
		Coupons:           couponRepo,
		CouponApplier:     applier,
		Orders:            orderRepo,
		Numbers:           numbers,
		Affiliates:        recorder,
		Outbox:            publisher,
		Payment:           gateway,
		AmountTolerance:   cfg.Checkout.Tolerance(),
		BestEffortTimeout: cfg.Checkout.BestEffortTimeout,
		Metrics:           checkoutMetrics,
		Logger:            logg,
	})
	if err != nil {
		return err
	}

	router := routes.NewRouter(cfg, logg, routes.Dependencies{
		DB:         dbClient,
		Redis:      redisClient,
		Metrics:    registry,
		Checkout:   checkoutService,
		Orders:     orderService,
		Products:   productService,
		Coupons:    couponService,
		Affiliates: affiliateService,
		PayPal:     buttons,
	})

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
