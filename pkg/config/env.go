package config

const EnvPrefix = "FIELDFORCE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "FIELDFORCE_APP_ENV"
	EnvPort     = "FIELDFORCE_APP_PORT"
	EnvLogLevel = "FIELDFORCE_LOG_LEVEL"

	EnvDBDSN    = "FIELDFORCE_DB_DSN"
	EnvDBDriver = "FIELDFORCE_DB_DRIVER"
	EnvDBHost   = "FIELDFORCE_DB_HOST"
	EnvDBPort   = "FIELDFORCE_DB_PORT"
	EnvDBUser   = "FIELDFORCE_DB_USER"
	EnvDBPass   = "FIELDFORCE_DB_PASSWORD"
	EnvDBName   = "FIELDFORCE_DB_NAME"

	EnvRedisURL = "FIELDFORCE_REDIS_URL"

	EnvJWTSecret              = "FIELDFORCE_JWT_SECRET"
	EnvJWTIssuer              = "FIELDFORCE_JWT_ISSUER"
	EnvJWTExpMins             = "FIELDFORCE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "FIELDFORCE_REFRESH_TOKEN_TTL_MINUTES"

	EnvKPIWorkingDays     = "FIELDFORCE_KPI_WORKING_DAYS"
	EnvKPIVisitsPerDay    = "FIELDFORCE_KPI_VISITS_PER_DAY"
	EnvHolidayYearlyCap   = "FIELDFORCE_HOLIDAY_YEARLY_CAP"
	EnvHolidayMinNoticeHr = "FIELDFORCE_HOLIDAY_MIN_NOTICE_HOURS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
