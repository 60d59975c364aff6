package config

// EnvPrefix is handed to envconfig; every field sets an explicit key so it is informational.
const EnvPrefix = "SWEETDELIGHTS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StateBackendRedis    = "redis"
	StateBackendPostgres = "postgres"
	StateBackendMemory   = "memory"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv       = "SWEETDELIGHTS_APP_ENV"
	EnvPort         = "SWEETDELIGHTS_APP_PORT"
	EnvStateBackend = "SWEETDELIGHTS_STATE_BACKEND"
	EnvDBDSN        = "SWEETDELIGHTS_DB_DSN"
	EnvDBDriver     = "SWEETDELIGHTS_DB_DRIVER"
	EnvDBHost       = "SWEETDELIGHTS_DB_HOST"
	EnvDBUser       = "SWEETDELIGHTS_DB_USER"
	EnvDBPassword   = "SWEETDELIGHTS_DB_PASSWORD"
	EnvDBName       = "SWEETDELIGHTS_DB_NAME"
	EnvRedisURL     = "SWEETDELIGHTS_REDIS_URL"
	EnvJWTSecret    = "SWEETDELIGHTS_JWT_SECRET"
	EnvAdminEmails  = "SWEETDELIGHTS_ADMIN_EMAILS"
	EnvPaymentDelay = "SWEETDELIGHTS_SIMULATED_PAYMENT_DELAY"
)

var dbPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
