package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App      AppConfig
	Backend  BackendConfig
	Geocoder GeocoderConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Checkout CheckoutConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	var err error
	if _, parseErr := url.ParseRequestURI(c.Backend.BaseURL); parseErr != nil {
		err = multierr.Append(err, fmt.Errorf("%s: %w", EnvBackendBaseURL, parseErr))
	}
	switch c.Storage.Driver {
	case StorageDriverMemory, StorageDriverFile:
	case StorageDriverRedis:
		if c.Redis.URL == "" && c.Redis.Address == "" {
			err = multierr.Append(err, fmt.Errorf("either %s or %s is required for the redis storage driver", EnvRedisURL, EnvRedisAddr))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("%s: unknown storage driver %q", EnvStorageDriver, c.Storage.Driver))
	}
	if c.Storage.Driver == StorageDriverFile && strings.TrimSpace(c.Storage.Dir) == "" {
		err = multierr.Append(err, errors.New("storage dir is required for the file storage driver"))
	}
	if c.Checkout.PollInterval <= 0 || c.Checkout.SyncTimeout <= 0 {
		err = multierr.Append(err, errors.New("checkout poll interval and sync timeout must be positive"))
	}
	return err
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" default:"dev"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	// CORSOrigins lists the UI origins allowed to call the local API.
	CORSOrigins []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type BackendConfig struct {
	BaseURL       string        `envconfig:"STOREFRONT_BACKEND_BASE_URL" required:"true"`
	Timeout       time.Duration `envconfig:"STOREFRONT_BACKEND_TIMEOUT" default:"15s"`
	PaymentMethod string        `envconfig:"STOREFRONT_PAYMENT_METHOD" default:"cash_on_delivery"`
}

type GeocoderConfig struct {
	BaseURL        string        `envconfig:"STOREFRONT_GEOCODER_BASE_URL" default:"https://nominatim.openstreetmap.org"`
	UserAgent      string        `envconfig:"STOREFRONT_GEOCODER_USER_AGENT" default:"storefront-client/1.0"`
	Language       string        `envconfig:"STOREFRONT_GEOCODER_LANGUAGE" default:"fr"`
	Timeout        time.Duration `envconfig:"STOREFRONT_GEOCODER_TIMEOUT" default:"8s"`
	MinQueryLength int           `envconfig:"STOREFRONT_GEOCODER_MIN_QUERY_LENGTH" default:"5"`
	Debounce       time.Duration `envconfig:"STOREFRONT_GEOCODER_DEBOUNCE" default:"1s"`
	DefaultLat     float64       `envconfig:"STOREFRONT_DEFAULT_LAT" default:"14.6928"`
	DefaultLng     float64       `envconfig:"STOREFRONT_DEFAULT_LNG" default:"-17.4467"`
}

type StorageConfig struct {
	Driver     string `envconfig:"STOREFRONT_STORAGE_DRIVER" default:"file"`
	Dir        string `envconfig:"STOREFRONT_STORAGE_DIR" default:".storefront"`
	CartKey    string `envconfig:"STOREFRONT_STORAGE_CART_KEY" default:"cart"`
	SessionKey string `envconfig:"STOREFRONT_STORAGE_SESSION_KEY" default:"user"`
	AddressKey string `envconfig:"STOREFRONT_STORAGE_ADDRESS_KEY" default:"delivery_address"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"3s"`
	// Namespace prefixes every key so several client sessions can share one instance.
	Namespace string `envconfig:"STOREFRONT_REDIS_NAMESPACE" default:"sf"`
}

type CheckoutConfig struct {
	PollInterval time.Duration `envconfig:"STOREFRONT_DELIVERY_POLL_INTERVAL" default:"10s"`
	SyncTimeout  time.Duration `envconfig:"STOREFRONT_DELIVERY_SYNC_TIMEOUT" default:"5m"`
	Country      string        `envconfig:"STOREFRONT_DEFAULT_COUNTRY" default:"Sénégal"`
}
