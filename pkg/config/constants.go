package config

const (
	// EnvPrefix is passed to envconfig; individual fields carry explicit
	// AUTHENTIX_-prefixed names so the prefix itself stays empty.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "AUTHENTIX_DB_DSN"
	EnvDBHost = "AUTHENTIX_DB_HOST"
	EnvDBUser = "AUTHENTIX_DB_USER"
	EnvDBName = "AUTHENTIX_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
