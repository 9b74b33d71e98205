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
	Remote       RemoteConfig
	Cache        CacheConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Sync         SyncConfig
	GoogleMaps   GoogleMapsConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Remote.validate(); err != nil {
		return nil, err
	}
	if cfg.Remote.UsesPostgres() {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"NEARBUY_APP_ENV" required:"true"`
	Port         string `envconfig:"NEARBUY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"NEARBUY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NEARBUY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"NEARBUY_DB_DSN"`

	LegacyHost     string `envconfig:"NEARBUY_DB_HOST"`
	LegacyPort     int    `envconfig:"NEARBUY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"NEARBUY_DB_USER"`
	LegacyPassword string `envconfig:"NEARBUY_DB_PASSWORD"`
	LegacyName     string `envconfig:"NEARBUY_DB_NAME"`
	LegacySSLMode  string `envconfig:"NEARBUY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NEARBUY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NEARBUY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NEARBUY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NEARBUY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// RemoteConfig selects how the remote source of truth is reached.
type RemoteConfig struct {
	Driver  string `envconfig:"NEARBUY_REMOTE_DRIVER" default:"postgres"`
	BaseURL string `envconfig:"NEARBUY_REMOTE_BASE_URL"`
	APIKey  string `envconfig:"NEARBUY_REMOTE_API_KEY"`
}

func (r RemoteConfig) UsesPostgres() bool {
	return strings.EqualFold(strings.TrimSpace(r.Driver), RemoteDriverPostgres)
}

func (r RemoteConfig) UsesREST() bool {
	return strings.EqualFold(strings.TrimSpace(r.Driver), RemoteDriverREST)
}

func (r RemoteConfig) validate() error {
	switch {
	case r.UsesPostgres():
		return nil
	case r.UsesREST():
		if strings.TrimSpace(r.BaseURL) == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvRemoteBaseURL, EnvRemoteDriver, RemoteDriverREST)
		}
		if strings.TrimSpace(r.APIKey) == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvRemoteAPIKey, EnvRemoteDriver, RemoteDriverREST)
		}
		return nil
	default:
		return fmt.Errorf("unsupported %s %q", EnvRemoteDriver, r.Driver)
	}
}

// CacheConfig points at the embedded sqlite file that holds the local copy.
type CacheConfig struct {
	Path string `envconfig:"NEARBUY_CACHE_PATH" default:"nearbuy-cache.db"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NEARBUY_REDIS_URL"`
	Address      string        `envconfig:"NEARBUY_REDIS_ADDR"`
	Password     string        `envconfig:"NEARBUY_REDIS_PASSWORD"`
	DB           int           `envconfig:"NEARBUY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NEARBUY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NEARBUY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NEARBUY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NEARBUY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NEARBUY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"NEARBUY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"NEARBUY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"NEARBUY_JWT_EXPIRATION_MINUTES" default:"60"`
}

// SyncConfig tunes the remote-first read path.
type SyncConfig struct {
	RemoteTimeout time.Duration `envconfig:"NEARBUY_SYNC_REMOTE_TIMEOUT" default:"5s"`
	WarmInterval  time.Duration `envconfig:"NEARBUY_SYNC_WARM_INTERVAL" default:"15m"`
}

type GoogleMapsConfig struct {
	APIKey string `envconfig:"NEARBUY_GOOGLE_MAPS_API_KEY"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"NEARBUY_CORS_ORIGINS" default:"http://localhost:3000"`
}

// RateLimitConfig bounds mutating API calls per customer and per client IP.
type RateLimitConfig struct {
	Window        time.Duration `envconfig:"NEARBUY_RATE_LIMIT_WINDOW" default:"1m"`
	CustomerLimit int           `envconfig:"NEARBUY_RATE_LIMIT_CUSTOMER" default:"60"`
	IPLimit       int           `envconfig:"NEARBUY_RATE_LIMIT_IP" default:"120"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"NEARBUY_AUTO_MIGRATE" default:"false"`
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
