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
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Quotes       QuotesConfig
	CORS         CORSConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	Admin        AdminConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.RateLimit.validate(); err != nil {
		return nil, err
	}
	if cfg.App.TrustedProxyHops < 0 {
		return nil, fmt.Errorf("%s must not be negative", EnvTrustedProxyHops)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"QUOTES_APP_ENV" required:"true"`
	Port         string `envconfig:"QUOTES_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"QUOTES_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"QUOTES_LOG_WARN_STACK" default:"false"`

	// TrustedProxyHops counts the load balancers that append to
	// X-Forwarded-For. Zero keys clients by the socket address.
	TrustedProxyHops int `envconfig:"QUOTES_TRUSTED_PROXY_HOPS" default:"0"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"QUOTES_DB_DSN"`
	Driver string `envconfig:"QUOTES_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"QUOTES_DB_HOST"`
	LegacyPort     int    `envconfig:"QUOTES_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"QUOTES_DB_USER"`
	LegacyPassword string `envconfig:"QUOTES_DB_PASSWORD"`
	LegacyName     string `envconfig:"QUOTES_DB_NAME"`
	LegacySSLMode  string `envconfig:"QUOTES_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"QUOTES_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"QUOTES_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"QUOTES_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"QUOTES_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"QUOTES_REDIS_URL"`
	Address      string        `envconfig:"QUOTES_REDIS_ADDR"`
	Password     string        `envconfig:"QUOTES_REDIS_PASSWORD"`
	DB           int           `envconfig:"QUOTES_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"QUOTES_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"QUOTES_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"QUOTES_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"QUOTES_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"QUOTES_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// RateLimitConfig holds the per-IP sliding window policies for the quote endpoints.
type RateLimitConfig struct {
	Backend     string        `envconfig:"QUOTES_RATE_LIMIT_BACKEND" default:"redis"`
	Window      time.Duration `envconfig:"QUOTES_RATE_LIMIT_WINDOW" default:"1m"`
	QuoteLimit  int           `envconfig:"QUOTES_RATE_LIMIT_QUOTE_LIMIT" default:"20"`
	SubmitLimit int           `envconfig:"QUOTES_RATE_LIMIT_SUBMIT_LIMIT" default:"5"`
}

// UsesRedis reports whether limiter state should live in Redis.
func (r RateLimitConfig) UsesRedis() bool {
	return strings.EqualFold(strings.TrimSpace(r.Backend), RateLimitBackendRedis)
}

func (r RateLimitConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(r.Backend)) {
	case RateLimitBackendRedis, RateLimitBackendMemory:
		return nil
	}
	return fmt.Errorf("%s must be %q or %q", EnvRateLimitBackend, RateLimitBackendRedis, RateLimitBackendMemory)
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"QUOTES_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"QUOTES_AUTO_MIGRATE" default:"false"`
}

type QuotesConfig struct {
	Validity        time.Duration `envconfig:"QUOTES_QUOTE_VALIDITY" default:"720h"`
	ReferencePrefix string        `envconfig:"QUOTES_QUOTE_REFERENCE_PREFIX" default:"Q"`
}

// AdminConfig guards the catalog maintenance endpoints. They are not mounted
// when APIKey is empty.
type AdminConfig struct {
	APIKey string `envconfig:"QUOTES_ADMIN_API_KEY"`
}

func (a AdminConfig) Enabled() bool {
	return strings.TrimSpace(a.APIKey) != ""
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"QUOTES_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"QUOTES_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	QuoteTopic string `envconfig:"QUOTES_PUBSUB_QUOTE_TOPIC" default:"quote-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"QUOTES_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"QUOTES_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"QUOTES_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// CronConfig drives the maintenance worker. A zero LockTTL derives the
// sweep lease from Interval.
type CronConfig struct {
	Interval        time.Duration `envconfig:"QUOTES_CRON_INTERVAL" default:"1h"`
	LockTTL         time.Duration `envconfig:"QUOTES_CRON_LOCK_TTL" default:"0"`
	OutboxRetention time.Duration `envconfig:"QUOTES_CRON_OUTBOX_RETENTION" default:"168h"`
	BatchSize       int           `envconfig:"QUOTES_CRON_BATCH_SIZE" default:"500"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.DSN = DefaultSQLiteDSN
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
