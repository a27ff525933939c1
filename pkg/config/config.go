package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvDBDSN  = "CLUBSWAP_DB_DSN"
	EnvDBHost = "CLUBSWAP_DB_HOST"
	EnvDBUser = "CLUBSWAP_DB_USER"
	EnvDBName = "CLUBSWAP_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Stripe       StripeConfig
	PayPal       PayPalConfig
	Shipping     ShippingConfig
	Checkout     CheckoutConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CLUBSWAP_APP_ENV" required:"true"`
	Port         string `envconfig:"CLUBSWAP_APP_PORT" required:"true"`
	BaseURL      string `envconfig:"CLUBSWAP_APP_BASE_URL" default:"http://localhost:3000"`
	LogLevel     string `envconfig:"CLUBSWAP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CLUBSWAP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CLUBSWAP_DB_DSN"`
	Driver string `envconfig:"CLUBSWAP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CLUBSWAP_DB_HOST"`
	LegacyPort     int    `envconfig:"CLUBSWAP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CLUBSWAP_DB_USER"`
	LegacyPassword string `envconfig:"CLUBSWAP_DB_PASSWORD"`
	LegacyName     string `envconfig:"CLUBSWAP_DB_NAME"`
	LegacySSLMode  string `envconfig:"CLUBSWAP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CLUBSWAP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CLUBSWAP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CLUBSWAP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CLUBSWAP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CLUBSWAP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CLUBSWAP_REDIS_ADDR"`
	Password     string        `envconfig:"CLUBSWAP_REDIS_PASSWORD"`
	DB           int           `envconfig:"CLUBSWAP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CLUBSWAP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CLUBSWAP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CLUBSWAP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CLUBSWAP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CLUBSWAP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"CLUBSWAP_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"CLUBSWAP_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"CLUBSWAP_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"CLUBSWAP_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CLUBSWAP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CLUBSWAP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CLUBSWAP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CLUBSWAP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CLUBSWAP_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CLUBSWAP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CLUBSWAP_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey        string `envconfig:"CLUBSWAP_STRIPE_API_KEY"`
	WebhookSecret string `envconfig:"CLUBSWAP_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"CLUBSWAP_STRIPE_ENV" default:"test"`
	SuccessPath   string `envconfig:"CLUBSWAP_STRIPE_SUCCESS_PATH" default:"/checkout/success"`
	CancelPath    string `envconfig:"CLUBSWAP_STRIPE_CANCEL_PATH" default:"/checkout/cancel"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type PayPalConfig struct {
	ClientID  string `envconfig:"CLUBSWAP_PAYPAL_CLIENT_ID"`
	Secret    string `envconfig:"CLUBSWAP_PAYPAL_SECRET"`
	Env       string `envconfig:"CLUBSWAP_PAYPAL_ENV" default:"sandbox"`
	BrandName string `envconfig:"CLUBSWAP_PAYPAL_BRAND_NAME" default:"ClubSwap"`
}

// IsLive reports whether the live PayPal API base should be used.
func (p PayPalConfig) IsLive() bool {
	return strings.EqualFold(strings.TrimSpace(p.Env), "live")
}

type ShippingConfig struct {
	BaseURL string        `envconfig:"CLUBSWAP_SHIPPING_BASE_URL"`
	APIKey  string        `envconfig:"CLUBSWAP_SHIPPING_API_KEY"`
	Timeout time.Duration `envconfig:"CLUBSWAP_SHIPPING_TIMEOUT" default:"5s"`
}

type CheckoutConfig struct {
	Currency              string `envconfig:"CLUBSWAP_CHECKOUT_CURRENCY" default:"GBP"`
	FreeShippingThreshold string `envconfig:"CLUBSWAP_CHECKOUT_FREE_SHIPPING_THRESHOLD" default:"50.00"`
	FlatShippingFee       string `envconfig:"CLUBSWAP_CHECKOUT_FLAT_SHIPPING_FEE" default:"5.99"`
}

// FreeShippingThresholdAmount parses the configured cart threshold.
func (c CheckoutConfig) FreeShippingThresholdAmount() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(c.FreeShippingThreshold))
}

// FlatShippingFeeAmount parses the configured flat cart shipping fee.
func (c CheckoutConfig) FlatShippingFeeAmount() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(c.FlatShippingFee))
}

type CronConfig struct {
	Token    string        `envconfig:"CLUBSWAP_CRON_TOKEN"`
	Interval time.Duration `envconfig:"CLUBSWAP_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"CLUBSWAP_CRON_LOCK_TTL" default:"25h"`
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
