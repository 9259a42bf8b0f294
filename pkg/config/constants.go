package config

const (
	EnvPrefix = "BOOKSTORE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "BOOKSTORE_APP_ENV"
	EnvPort         = "BOOKSTORE_APP_PORT"
	EnvLogLevel     = "BOOKSTORE_LOG_LEVEL"
	EnvLogWarnStack = "BOOKSTORE_LOG_WARN_STACK"

	EnvDBDSN  = "BOOKSTORE_DB_DSN"
	EnvDBHost = "BOOKSTORE_DB_HOST"
	EnvDBUser = "BOOKSTORE_DB_USER"
	EnvDBName = "BOOKSTORE_DB_NAME"

	EnvRedisURL = "BOOKSTORE_REDIS_URL"

	EnvJWTSecret  = "BOOKSTORE_JWT_SECRET"
	EnvJWTIssuer  = "BOOKSTORE_JWT_ISSUER"
	EnvJWTExpMins = "BOOKSTORE_JWT_EXPIRATION_MINUTES"

	EnvPricingBaseCurrency    = "BOOKSTORE_PRICING_BASE_CURRENCY"
	EnvPricingTaxRate         = "BOOKSTORE_PRICING_TAX_RATE"
	EnvPricingDefaultShipping = "BOOKSTORE_PRICING_DEFAULT_SHIPPING"

	EnvStorefrontAPIBaseURL = "BOOKSTORE_STOREFRONT_API_BASE_URL"
	EnvExchangeCacheTTL     = "BOOKSTORE_EXCHANGE_CACHE_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
