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
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Cart         CartConfig
	Pricing      PricingConfig
	Shipping     ShippingConfig
	Storefront   StorefrontConfig
	Exchange     ExchangeConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BOOKSTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"BOOKSTORE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BOOKSTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BOOKSTORE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BOOKSTORE_DB_DSN"`
	Driver string `envconfig:"BOOKSTORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BOOKSTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"BOOKSTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BOOKSTORE_DB_USER"`
	LegacyPassword string `envconfig:"BOOKSTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"BOOKSTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"BOOKSTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BOOKSTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BOOKSTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BOOKSTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BOOKSTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BOOKSTORE_REDIS_URL"`
	Address      string        `envconfig:"BOOKSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"BOOKSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BOOKSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BOOKSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BOOKSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BOOKSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BOOKSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BOOKSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BOOKSTORE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BOOKSTORE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BOOKSTORE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BOOKSTORE_AUTO_MIGRATE" default:"false"`
}

// CartConfig tunes the storefront cart stores and the login reconciler.
type CartConfig struct {
	AnonymousTTL       time.Duration `envconfig:"BOOKSTORE_CART_ANONYMOUS_TTL" default:"720h"`
	SessionViewTTL     time.Duration `envconfig:"BOOKSTORE_CART_SESSION_VIEW_TTL" default:"30s"`
	ReconcileGuardTTL  time.Duration `envconfig:"BOOKSTORE_CART_RECONCILE_GUARD_TTL" default:"24h"`
	RefreshConcurrency int           `envconfig:"BOOKSTORE_CART_REFRESH_CONCURRENCY" default:"8"`
}

// PricingConfig holds the checkout pricing constants. DefaultShippingCost is
// charged only when the shipping-rate lookup fails; a default rate reported
// by the backend (see ShippingConfig) is charged as reported.
type PricingConfig struct {
	BaseCurrency        string          `envconfig:"BOOKSTORE_PRICING_BASE_CURRENCY" default:"USD"`
	TaxRate             decimal.Decimal `envconfig:"BOOKSTORE_PRICING_TAX_RATE" default:"0.08"`
	DefaultShippingCost decimal.Decimal `envconfig:"BOOKSTORE_PRICING_DEFAULT_SHIPPING" default:"9.99"`
}

func (p PricingConfig) validate() error {
	if strings.TrimSpace(p.BaseCurrency) == "" {
		return fmt.Errorf("%s is required", EnvPricingBaseCurrency)
	}
	if p.TaxRate.IsNegative() {
		return fmt.Errorf("%s must be non-negative", EnvPricingTaxRate)
	}
	if p.DefaultShippingCost.IsNegative() {
		return fmt.Errorf("%s must be non-negative", EnvPricingDefaultShipping)
	}
	return nil
}

// ShippingConfig is the fallback applied by the backend when a country has no configured rate.
type ShippingConfig struct {
	DefaultCost    decimal.Decimal `envconfig:"BOOKSTORE_SHIPPING_DEFAULT_COST" default:"9.99"`
	DefaultMinDays int             `envconfig:"BOOKSTORE_SHIPPING_DEFAULT_MIN_DAYS" default:"7"`
	DefaultMaxDays int             `envconfig:"BOOKSTORE_SHIPPING_DEFAULT_MAX_DAYS" default:"21"`
}

// StorefrontConfig points the storefront edge service at the backend API.
type StorefrontConfig struct {
	APIBaseURL     string        `envconfig:"BOOKSTORE_STOREFRONT_API_BASE_URL" default:"http://localhost:8080"`
	RequestTimeout time.Duration `envconfig:"BOOKSTORE_STOREFRONT_REQUEST_TIMEOUT" default:"10s"`
	GuestCookieTTL time.Duration `envconfig:"BOOKSTORE_STOREFRONT_GUEST_COOKIE_TTL" default:"720h"`
}

type ExchangeConfig struct {
	ProviderURL      string        `envconfig:"BOOKSTORE_EXCHANGE_PROVIDER_URL" default:"https://api.frankfurter.app"`
	APIKey           string        `envconfig:"BOOKSTORE_EXCHANGE_API_KEY"`
	CacheTTL         time.Duration `envconfig:"BOOKSTORE_EXCHANGE_CACHE_TTL" default:"1h"`
	RequestTimeout   time.Duration `envconfig:"BOOKSTORE_EXCHANGE_REQUEST_TIMEOUT" default:"5s"`
	BreakerFailures  uint32        `envconfig:"BOOKSTORE_EXCHANGE_BREAKER_FAILURES" default:"5"`
	BreakerCooldown  time.Duration `envconfig:"BOOKSTORE_EXCHANGE_BREAKER_COOLDOWN" default:"30s"`
	BreakerHalfOpenN uint32        `envconfig:"BOOKSTORE_EXCHANGE_BREAKER_HALF_OPEN_REQUESTS" default:"1"`
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
