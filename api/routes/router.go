package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pawpantry/storefront-api/api/controllers"
	"github.com/pawpantry/storefront-api/api/middleware"
	"github.com/pawpantry/storefront-api/internal/affiliates"
	checkoutsvc "github.com/pawpantry/storefront-api/internal/checkout"
	"github.com/pawpantry/storefront-api/internal/coupons"
	"github.com/pawpantry/storefront-api/internal/orders"
	"github.com/pawpantry/storefront-api/internal/products"
	pkgauth "github.com/pawpantry/storefront-api/pkg/auth"
	"github.com/pawpantry/storefront-api/pkg/config"
	"github.com/pawpantry/storefront-api/pkg/logger"
	pkgredis "github.com/pawpantry/storefront-api/pkg/redis"
)

// Dependencies are the services mounted on the router. Nil services answer
// with an unavailable error; a nil Redis disables idempotency and rate limits.
type Dependencies struct {
	DB         controllers.Pinger
	Redis      *pkgredis.Client
	Metrics    prometheus.Gatherer
	Checkout   checkoutsvc.Service
	Orders     orders.Service
	Products   products.Service
	Coupons    coupons.Service
	Affiliates affiliates.Service
	PayPal     controllers.PayPalOrders
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	var (
		cache   controllers.Pinger
		store   pkgredis.IdempotencyStore
		limiter pkgredis.RateLimiter
	)
	if deps.Redis != nil {
		cache, store, limiter = deps.Redis, deps.Redis, deps.Redis
	}
	idempotent := middleware.Idempotency(store, cfg.RateLimit.IdempotencyTTL, logg)
	trackLimit := middleware.RateLimit(middleware.NewRateLimitPolicy("track", cfg.RateLimit.TrackWindow, cfg.RateLimit.TrackIPLimit), limiter, logg)
	clickLimit := middleware.RateLimit(middleware.NewRateLimitPolicy("click", cfg.RateLimit.ClickWindow, cfg.RateLimit.ClickIPLimit), limiter, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, deps.DB, cache, logg))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Get("/products", controllers.ProductCatalog(deps.Products, logg))
			r.Get("/products/{slug}", controllers.ProductBySlug(deps.Products, logg))
			r.Get("/coupons/{code}/quote", controllers.CouponQuote(deps.Coupons, logg))
			r.With(trackLimit).Get("/orders/track", controllers.TrackOrder(deps.Orders, logg))
			r.With(clickLimit).Post("/affiliates/{code}/clicks", controllers.AffiliateClick(deps.Affiliates, logg))

			r.With(idempotent).Post("/checkout", controllers.Checkout(deps.Checkout, logg))
			r.With(idempotent).Post("/paypal/orders", controllers.PayPalCreateOrder(deps.PayPal, logg))
			r.With(idempotent).Post("/paypal/orders/{paypalOrderId}/capture", controllers.PayPalCaptureOrder(deps.PayPal, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Get("/orders", controllers.ListMyOrders(deps.Orders, logg))
			r.Post("/affiliates", controllers.AffiliateSignup(deps.Affiliates, logg))
			r.Get("/affiliates/me", controllers.AffiliateStats(deps.Affiliates, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(pkgauth.RoleAdmin, logg))
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(deps.Orders, logg))
			r.Get("/{orderId}", controllers.AdminOrderDetail(deps.Orders, logg))
			r.Patch("/{orderId}/status", controllers.AdminUpdateOrderStatus(deps.Orders, logg))
		})
		r.Post("/products", controllers.AdminCreateProduct(deps.Products, logg))
		r.Patch("/products/{productId}", controllers.AdminUpdateProduct(deps.Products, logg))
		r.With(idempotent).Post("/coupons", controllers.AdminCreateCoupon(deps.Coupons, logg))
		r.Patch("/affiliates/{affiliateId}/status", controllers.AdminUpdateAffiliateStatus(deps.Affiliates, logg))
	})

	return r
}
