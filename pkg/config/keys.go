package config

const (
	EnvPrefix = "MARKETPLACE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
	DefaultSQLiteDSN = "file:marketplace.db?cache=shared&_foreign_keys=on"
)

const (
	EnvAppEnv           = "MARKETPLACE_APP_ENV"
	EnvPort             = "MARKETPLACE_APP_PORT"
	EnvLogLevel         = "MARKETPLACE_LOG_LEVEL"
	EnvDBDSN            = "MARKETPLACE_DB_DSN"
	EnvDBDriver         = "MARKETPLACE_DB_DRIVER"
	EnvDBHost           = "MARKETPLACE_DB_HOST"
	EnvDBUser           = "MARKETPLACE_DB_USER"
	EnvDBPassword       = "MARKETPLACE_DB_PASSWORD"
	EnvDBName           = "MARKETPLACE_DB_NAME"
	EnvRedisURL         = "MARKETPLACE_REDIS_URL"
	EnvJWTSecret        = "MARKETPLACE_JWT_SECRET"
	EnvJWTIssuer        = "MARKETPLACE_JWT_ISSUER"
	EnvJWTExpMins       = "MARKETPLACE_JWT_EXPIRATION_MINUTES"
	EnvUseSQLite        = "MARKETPLACE_USE_SQLITE"
	EnvUseMemoryStore   = "MARKETPLACE_USE_MEMORY_STORE"
	EnvCurrencyCode     = "MARKETPLACE_CURRENCY_CODE"
	EnvCurrencyExponent = "MARKETPLACE_CURRENCY_EXPONENT"
	EnvGCPProjectID     = "MARKETPLACE_GCP_PROJECT_ID"
	EnvPubSubLedger     = "MARKETPLACE_PUBSUB_LEDGER_TOPIC"
	EnvOutboxRetention  = "MARKETPLACE_OUTBOX_RETENTION_DAYS"
)

var dsnPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
