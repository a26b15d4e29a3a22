package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Cart         CartConfig
	OrdersAPI    OrdersAPIConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"NEUSHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"NEUSHOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"NEUSHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NEUSHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"NEUSHOP_DB_DSN"`
	Driver string `envconfig:"NEUSHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"NEUSHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"NEUSHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"NEUSHOP_DB_USER"`
	LegacyPassword string `envconfig:"NEUSHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"NEUSHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"NEUSHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NEUSHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NEUSHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NEUSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NEUSHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NEUSHOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"NEUSHOP_REDIS_ADDR"`
	Password     string        `envconfig:"NEUSHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"NEUSHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NEUSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NEUSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NEUSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NEUSHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NEUSHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CartConfig carries the cart policy knobs. TaxRateBPS is expressed in basis
// points so the rate survives env round-trips without a float (1000 = 10%).
type CartConfig struct {
	TaxRateBPS     int           `envconfig:"NEUSHOP_CART_TAX_RATE_BPS" default:"1000"`
	TTL            time.Duration `envconfig:"NEUSHOP_CART_TTL" default:"720h"`
	IdempotencyTTL time.Duration `envconfig:"NEUSHOP_CHECKOUT_IDEMPOTENCY_TTL" default:"168h"`
}

type OrdersAPIConfig struct {
	BaseURL string        `envconfig:"NEUSHOP_ORDERS_API_BASE_URL" required:"true"`
	APIKey  string        `envconfig:"NEUSHOP_ORDERS_API_KEY"`
	Timeout time.Duration `envconfig:"NEUSHOP_ORDERS_API_TIMEOUT" default:"15s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"NEUSHOP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"NEUSHOP_AUTO_MIGRATE" default:"false"`
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
