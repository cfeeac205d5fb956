package config

const (
	EnvPrefix = "THREADLINE"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	DefaultSQLitePath = "threadline.db"

	EnvDBDSN  = "THREADLINE_DB_DSN"
	EnvDBHost = "THREADLINE_DB_HOST"
	EnvDBUser = "THREADLINE_DB_USER"
	EnvDBName = "THREADLINE_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
