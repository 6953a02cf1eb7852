package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	SMTP     SMTPConfig
	Delivery DeliveryConfig
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
	Env          string `envconfig:"SHOPSPHERE_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPSPHERE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SHOPSPHERE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPSPHERE_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"SHOPSPHERE_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"SHOPSPHERE_DB_DSN"`

	Host     string `envconfig:"SHOPSPHERE_DB_HOST"`
	Port     int    `envconfig:"SHOPSPHERE_DB_PORT" default:"5432"`
	User     string `envconfig:"SHOPSPHERE_DB_USER"`
	Password string `envconfig:"SHOPSPHERE_DB_PASSWORD"`
	Name     string `envconfig:"SHOPSPHERE_DB_NAME"`
	SSLMode  string `envconfig:"SHOPSPHERE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPSPHERE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPSPHERE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPSPHERE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPSPHERE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if strings.TrimSpace(d.DSN) != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either SHOPSPHERE_DB_DSN or host/user/name settings are required")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPSPHERE_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"SHOPSPHERE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPSPHERE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPSPHERE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPSPHERE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPSPHERE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SHOPSPHERE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SHOPSPHERE_JWT_ISSUER" default:"shopsphere"`
	ExpirationMinutes int    `envconfig:"SHOPSPHERE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type SMTPConfig struct {
	Host     string `envconfig:"SHOPSPHERE_SMTP_HOST"`
	Port     int    `envconfig:"SHOPSPHERE_SMTP_PORT" default:"587"`
	Username string `envconfig:"SHOPSPHERE_SMTP_USERNAME"`
	Password string `envconfig:"SHOPSPHERE_SMTP_PASSWORD"`
	From     string `envconfig:"SHOPSPHERE_SMTP_FROM"`
	Enabled  bool   `envconfig:"SHOPSPHERE_SMTP_ENABLED" default:"false"`
}

// DeliveryConfig centralizes the tunables of the assignment and
// delivery-confirmation flows.
type DeliveryConfig struct {
	NearbyRadiusMeters    float64 `envconfig:"SHOPSPHERE_DELIVERY_NEARBY_RADIUS_M" default:"500"`
	EstimatedDeliveryDays int     `envconfig:"SHOPSPHERE_DELIVERY_ESTIMATED_DAYS" default:"2"`
	BaseFee               string  `envconfig:"SHOPSPHERE_DELIVERY_BASE_FEE" default:"50.00"`
	OutOfCityFee          string  `envconfig:"SHOPSPHERE_DELIVERY_OUT_OF_CITY_FEE" default:"80.00"`
}
