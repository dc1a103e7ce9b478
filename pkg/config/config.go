package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Remote        RemoteConfig
	Loyalty       LoyaltyConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PUNTOSCLUB_APP_ENV" required:"true"`
	Port         string `envconfig:"PUNTOSCLUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PUNTOSCLUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PUNTOSCLUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PUNTOSCLUB_DB_DSN"`
	Driver string `envconfig:"PUNTOSCLUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PUNTOSCLUB_DB_HOST"`
	LegacyPort     int    `envconfig:"PUNTOSCLUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PUNTOSCLUB_DB_USER"`
	LegacyPassword string `envconfig:"PUNTOSCLUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"PUNTOSCLUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"PUNTOSCLUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PUNTOSCLUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PUNTOSCLUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PUNTOSCLUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PUNTOSCLUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PUNTOSCLUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PUNTOSCLUB_REDIS_ADDR"`
	Password     string        `envconfig:"PUNTOSCLUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"PUNTOSCLUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PUNTOSCLUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PUNTOSCLUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PUNTOSCLUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PUNTOSCLUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PUNTOSCLUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PUNTOSCLUB_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PUNTOSCLUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"PUNTOSCLUB_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"PUNTOSCLUB_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PUNTOSCLUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PUNTOSCLUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PUNTOSCLUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PUNTOSCLUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PUNTOSCLUB_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PUNTOSCLUB_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginPhoneLimit    int           `envconfig:"PUNTOSCLUB_AUTH_RATE_LIMIT_LOGIN_PHONE_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PUNTOSCLUB_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PUNTOSCLUB_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterPhoneLimit int           `envconfig:"PUNTOSCLUB_AUTH_RATE_LIMIT_REGISTER_PHONE_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PUNTOSCLUB_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PUNTOSCLUB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PUNTOSCLUB_AUTO_MIGRATE" default:"false"`
}

// RemoteConfig tunes the executor that guards every gateway call.
type RemoteConfig struct {
	MaxAttempts    int           `envconfig:"PUNTOSCLUB_REMOTE_MAX_ATTEMPTS" default:"3"`
	BaseDelay      time.Duration `envconfig:"PUNTOSCLUB_REMOTE_BASE_DELAY" default:"1s"`
	AttemptTimeout time.Duration `envconfig:"PUNTOSCLUB_REMOTE_ATTEMPT_TIMEOUT" default:"10s"`
}

type LoyaltyConfig struct {
	// TaxRate is applied to the cart subtotal when recording a sale.
	TaxRate float64 `envconfig:"PUNTOSCLUB_LOYALTY_TAX_RATE" default:"0.21"`
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
