package config

const (
	EnvPrefix = "PAWPANTRY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "PAWPANTRY_APP_ENV"
	EnvPort     = "PAWPANTRY_APP_PORT"
	EnvLogLevel = "PAWPANTRY_LOG_LEVEL"

	EnvDBDSN  = "PAWPANTRY_DB_DSN"
	EnvDBHost = "PAWPANTRY_DB_HOST"
	EnvDBUser = "PAWPANTRY_DB_USER"
	EnvDBName = "PAWPANTRY_DB_NAME"

	EnvRedisURL = "PAWPANTRY_REDIS_URL"

	EnvJWTSecret = "PAWPANTRY_JWT_SECRET"
	EnvJWTIssuer = "PAWPANTRY_JWT_ISSUER"

	EnvPayPalClientID = "PAWPANTRY_PAYPAL_CLIENT_ID"
	EnvPayPalSecret   = "PAWPANTRY_PAYPAL_CLIENT_SECRET"
	EnvPayPalEnv      = "PAWPANTRY_PAYPAL_ENV"
	EnvPayPalAPIBase  = "PAWPANTRY_PAYPAL_API_BASE"
	EnvPayPalTimeout  = "PAWPANTRY_PAYPAL_TIMEOUT"

	EnvOrderNumberPrefix = "PAWPANTRY_ORDER_NUMBER_PREFIX"
	EnvCommissionRate    = "PAWPANTRY_AFFILIATE_COMMISSION_RATE"
	EnvAmountTolerance   = "PAWPANTRY_PAYMENT_AMOUNT_TOLERANCE"

	EnvPubSubOrdersTopic = "PAWPANTRY_PUBSUB_ORDERS_TOPIC"

	PayPalEnvLive     = "live"
	PayPalLiveBase    = "https://api-m.paypal.com"
	PayPalSandboxBase = "https://api-m.sandbox.paypal.com"

	DefaultCommissionRate  = "0.15"
	DefaultAmountTolerance = "0.01"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
