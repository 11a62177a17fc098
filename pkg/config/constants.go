package config

// EnvPrefix is the envconfig prefix shared by all services.
const EnvPrefix = "curbside"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced outside envconfig tags.
const (
	EnvAppEnv     = "CURBSIDE_APP_ENV"
	EnvPort       = "CURBSIDE_APP_PORT"
	EnvDBDSN      = "CURBSIDE_DB_DSN"
	EnvDBHost     = "CURBSIDE_DB_HOST"
	EnvDBUser     = "CURBSIDE_DB_USER"
	EnvDBName     = "CURBSIDE_DB_NAME"
	EnvRedisURL   = "CURBSIDE_REDIS_URL"
	EnvJWTSecret  = "CURBSIDE_JWT_SECRET"
	EnvJWTIssuer  = "CURBSIDE_JWT_ISSUER"
	EnvJWTExpMins = "CURBSIDE_JWT_EXPIRATION_MINUTES"
	EnvTimezone   = "CURBSIDE_APP_TIMEZONE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
