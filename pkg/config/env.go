package config

// EnvPrefix is handed to envconfig; every field carries its full name, so
// the prefix only applies to untagged fields.
const EnvPrefix = "NEARBUY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	RemoteDriverPostgres = "postgres"
	RemoteDriverREST     = "rest"
)

const (
	EnvAppEnv        = "NEARBUY_APP_ENV"
	EnvPort          = "NEARBUY_APP_PORT"
	EnvLogLevel      = "NEARBUY_LOG_LEVEL"
	EnvDBDSN         = "NEARBUY_DB_DSN"
	EnvDBHost        = "NEARBUY_DB_HOST"
	EnvDBUser        = "NEARBUY_DB_USER"
	EnvDBName        = "NEARBUY_DB_NAME"
	EnvRemoteDriver  = "NEARBUY_REMOTE_DRIVER"
	EnvRemoteBaseURL = "NEARBUY_REMOTE_BASE_URL"
	EnvRemoteAPIKey  = "NEARBUY_REMOTE_API_KEY"
	EnvCachePath     = "NEARBUY_CACHE_PATH"
	EnvRedisURL      = "NEARBUY_REDIS_URL"
	EnvJWTSecret     = "NEARBUY_JWT_SECRET"
	EnvJWTIssuer     = "NEARBUY_JWT_ISSUER"
	EnvJWTExpMins    = "NEARBUY_JWT_EXPIRATION_MINUTES"
	EnvSyncTimeout   = "NEARBUY_SYNC_REMOTE_TIMEOUT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
