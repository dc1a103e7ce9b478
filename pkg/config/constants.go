package config

// EnvPrefix is applied by envconfig on top of the explicit tags below.
const EnvPrefix = "PUNTOSCLUB"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "PUNTOSCLUB_DB_DSN"
	EnvDBHost = "PUNTOSCLUB_DB_HOST"
	EnvDBUser = "PUNTOSCLUB_DB_USER"
	EnvDBName = "PUNTOSCLUB_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
