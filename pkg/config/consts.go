package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names so
// the prefix only matters for fields without one.
const EnvPrefix = "NEUSHOP"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "NEUSHOP_APP_ENV"
	EnvPort     = "NEUSHOP_APP_PORT"
	EnvDBDSN    = "NEUSHOP_DB_DSN"
	EnvDBHost   = "NEUSHOP_DB_HOST"
	EnvDBUser   = "NEUSHOP_DB_USER"
	EnvDBName   = "NEUSHOP_DB_NAME"
	EnvRedisURL = "NEUSHOP_REDIS_URL"

	EnvOrdersAPIBaseURL = "NEUSHOP_ORDERS_API_BASE_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
