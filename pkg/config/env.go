package config

// EnvPrefix is handed to envconfig; every field carries an explicit envconfig tag.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageDriverMemory = "memory"
	StorageDriverFile   = "file"
	StorageDriverRedis  = "redis"
)

const (
	EnvAppEnv           = "STOREFRONT_APP_ENV"
	EnvPort             = "STOREFRONT_APP_PORT"
	EnvBackendBaseURL   = "STOREFRONT_BACKEND_BASE_URL"
	EnvStorageDriver    = "STOREFRONT_STORAGE_DRIVER"
	EnvStorageDir       = "STOREFRONT_STORAGE_DIR"
	EnvRedisURL         = "STOREFRONT_REDIS_URL"
	EnvRedisAddr        = "STOREFRONT_REDIS_ADDR"
	EnvPollInterval     = "STOREFRONT_DELIVERY_POLL_INTERVAL"
	EnvSyncTimeout      = "STOREFRONT_DELIVERY_SYNC_TIMEOUT"
	EnvGeocoderDebounce = "STOREFRONT_GEOCODER_DEBOUNCE"
)
