package config

// EnvPrefix namespaces envconfig lookups; explicit field keys are resolved as a fallback.
const EnvPrefix = "QUOTES"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	RateLimitBackendRedis  = "redis"
	RateLimitBackendMemory = "memory"

	DefaultSQLiteDSN = "file:quotes.db?cache=shared&_fk=1"
)

const (
	EnvAppEnv   = "QUOTES_APP_ENV"
	EnvPort     = "QUOTES_APP_PORT"
	EnvLogLevel = "QUOTES_LOG_LEVEL"

	EnvTrustedProxyHops = "QUOTES_TRUSTED_PROXY_HOPS"

	EnvDBDSN  = "QUOTES_DB_DSN"
	EnvDBHost = "QUOTES_DB_HOST"
	EnvDBUser = "QUOTES_DB_USER"
	EnvDBName = "QUOTES_DB_NAME"

	EnvUseSQLite = "QUOTES_USE_SQLITE"

	EnvRedisURL = "QUOTES_REDIS_URL"

	EnvRateLimitBackend     = "QUOTES_RATE_LIMIT_BACKEND"
	EnvRateLimitWindow      = "QUOTES_RATE_LIMIT_WINDOW"
	EnvRateLimitQuoteLimit  = "QUOTES_RATE_LIMIT_QUOTE_LIMIT"
	EnvRateLimitSubmitLimit = "QUOTES_RATE_LIMIT_SUBMIT_LIMIT"

	EnvQuoteValidity = "QUOTES_QUOTE_VALIDITY"
	EnvCORSOrigins   = "QUOTES_CORS_ALLOWED_ORIGINS"
	EnvGCPProjectID  = "QUOTES_GCP_PROJECT_ID"
	EnvPubSubTopic   = "QUOTES_PUBSUB_QUOTE_TOPIC"
	EnvAdminAPIKey   = "QUOTES_ADMIN_API_KEY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
