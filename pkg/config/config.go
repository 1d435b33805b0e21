package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	PayPal    PayPalConfig
	Checkout  CheckoutConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
	Feature   FeatureFlagsConfig
	GCP       GCPConfig
	PubSub    PubSubConfig
	Outbox    OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PAWPANTRY_APP_ENV" required:"true"`
	Port         string `envconfig:"PAWPANTRY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PAWPANTRY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PAWPANTRY_LOG_WARN_STACK" default:"false"`
	// CORSOrigins is a comma separated allow list for the storefront frontend.
	CORSOrigins []string `envconfig:"PAWPANTRY_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"PAWPANTRY_DB_DSN"`

	LegacyHost     string `envconfig:"PAWPANTRY_DB_HOST"`
	LegacyPort     int    `envconfig:"PAWPANTRY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PAWPANTRY_DB_USER"`
	LegacyPassword string `envconfig:"PAWPANTRY_DB_PASSWORD"`
	LegacyName     string `envconfig:"PAWPANTRY_DB_NAME"`
	LegacySSLMode  string `envconfig:"PAWPANTRY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PAWPANTRY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PAWPANTRY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PAWPANTRY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PAWPANTRY_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"PAWPANTRY_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PAWPANTRY_REDIS_URL"`
	Address      string        `envconfig:"PAWPANTRY_REDIS_ADDR"`
	Password     string        `envconfig:"PAWPANTRY_REDIS_PASSWORD"`
	DB           int           `envconfig:"PAWPANTRY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PAWPANTRY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PAWPANTRY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PAWPANTRY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PAWPANTRY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PAWPANTRY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// JWTConfig describes the identity provider tokens accepted by the API.
// Tokens are issued elsewhere; this service only verifies them.
type JWTConfig struct {
	Secret    string `envconfig:"PAWPANTRY_JWT_SECRET" required:"true"`
	Issuer    string `envconfig:"PAWPANTRY_JWT_ISSUER"`
	Audience  string `envconfig:"PAWPANTRY_JWT_AUDIENCE" default:"authenticated"`
	AdminRole string `envconfig:"PAWPANTRY_JWT_ADMIN_ROLE" default:"admin"`
}

type PayPalConfig struct {
	ClientID     string        `envconfig:"PAWPANTRY_PAYPAL_CLIENT_ID"`
	ClientSecret string        `envconfig:"PAWPANTRY_PAYPAL_CLIENT_SECRET"`
	Env          string        `envconfig:"PAWPANTRY_PAYPAL_ENV" default:"sandbox"`
	APIBase      string        `envconfig:"PAWPANTRY_PAYPAL_API_BASE"`
	Currency     string        `envconfig:"PAWPANTRY_PAYPAL_CURRENCY" default:"USD"`
	Timeout      time.Duration `envconfig:"PAWPANTRY_PAYPAL_TIMEOUT" default:"10s"`
}

// Configured reports whether credentials are present.
func (p PayPalConfig) Configured() bool {
	return strings.TrimSpace(p.ClientID) != "" && strings.TrimSpace(p.ClientSecret) != ""
}

// BaseURL resolves the REST endpoint, preferring an explicit override.
func (p PayPalConfig) BaseURL() string {
	if base := strings.TrimSpace(p.APIBase); base != "" {
		return strings.TrimRight(base, "/")
	}
	if strings.EqualFold(strings.TrimSpace(p.Env), PayPalEnvLive) {
		return PayPalLiveBase
	}
	return PayPalSandboxBase
}

type CheckoutConfig struct {
	OrderNumberPrefix    string        `envconfig:"PAWPANTRY_ORDER_NUMBER_PREFIX" default:"ORD"`
	CommissionRate       string        `envconfig:"PAWPANTRY_AFFILIATE_COMMISSION_RATE" default:"0.15"`
	BestEffortTimeout    time.Duration `envconfig:"PAWPANTRY_CHECKOUT_BEST_EFFORT_TIMEOUT" default:"10s"`
	AmountTolerance      string        `envconfig:"PAWPANTRY_PAYMENT_AMOUNT_TOLERANCE" default:"0.01"`
	RequireApprovedAffil bool          `envconfig:"PAWPANTRY_AFFILIATE_REQUIRE_APPROVED" default:"true"`
}

// Rate parses the commission rate.
func (c CheckoutConfig) Rate() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.CommissionRate))
	if err != nil {
		return decimal.RequireFromString(DefaultCommissionRate)
	}
	return rate
}

// Tolerance parses the accepted payment amount drift.
func (c CheckoutConfig) Tolerance() decimal.Decimal {
	tol, err := decimal.NewFromString(strings.TrimSpace(c.AmountTolerance))
	if err != nil {
		return decimal.RequireFromString(DefaultAmountTolerance)
	}
	return tol
}

func (c CheckoutConfig) validate() error {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.CommissionRate))
	if err != nil {
		return fmt.Errorf("%s must be a decimal: %w", EnvCommissionRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be between 0 and 1", EnvCommissionRate)
	}
	if _, err := decimal.NewFromString(strings.TrimSpace(c.AmountTolerance)); err != nil {
		return fmt.Errorf("%s must be a decimal: %w", EnvAmountTolerance, err)
	}
	if strings.TrimSpace(c.OrderNumberPrefix) == "" {
		return fmt.Errorf("%s must not be empty", EnvOrderNumberPrefix)
	}
	return nil
}

// SecurityConfig holds the key used to seal affiliate payout details at rest.
type SecurityConfig struct {
	PayoutSealKey string `envconfig:"PAWPANTRY_PAYOUT_SEAL_KEY"`
}

type RateLimitConfig struct {
	TrackWindow      time.Duration `envconfig:"PAWPANTRY_RATE_LIMIT_TRACK_WINDOW" default:"1m"`
	TrackIPLimit     int           `envconfig:"PAWPANTRY_RATE_LIMIT_TRACK_IP_LIMIT" default:"30"`
	ClickWindow      time.Duration `envconfig:"PAWPANTRY_RATE_LIMIT_CLICK_WINDOW" default:"1h"`
	ClickIPLimit     int           `envconfig:"PAWPANTRY_RATE_LIMIT_CLICK_IP_LIMIT" default:"10"`
	IdempotencyTTL   time.Duration `envconfig:"PAWPANTRY_IDEMPOTENCY_TTL" default:"24h"`
	OrderSequenceTTL time.Duration `envconfig:"PAWPANTRY_ORDER_SEQUENCE_TTL" default:"48h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PAWPANTRY_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"PAWPANTRY_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"PAWPANTRY_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"PAWPANTRY_PUBSUB_ORDERS_TOPIC" default:"pawpantry-order-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PAWPANTRY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PAWPANTRY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PAWPANTRY_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
