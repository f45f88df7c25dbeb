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
	Stripe        StripeConfig
	Payments      PaymentsConfig
	Sweeper       SweeperConfig
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
	Env          string `envconfig:"AUTHENTIX_APP_ENV" required:"true"`
	Port         string `envconfig:"AUTHENTIX_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AUTHENTIX_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AUTHENTIX_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"AUTHENTIX_DB_DSN"`
	Driver string `envconfig:"AUTHENTIX_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AUTHENTIX_DB_HOST"`
	LegacyPort     int    `envconfig:"AUTHENTIX_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AUTHENTIX_DB_USER"`
	LegacyPassword string `envconfig:"AUTHENTIX_DB_PASSWORD"`
	LegacyName     string `envconfig:"AUTHENTIX_DB_NAME"`
	LegacySSLMode  string `envconfig:"AUTHENTIX_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AUTHENTIX_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AUTHENTIX_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AUTHENTIX_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AUTHENTIX_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AUTHENTIX_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AUTHENTIX_REDIS_ADDR"`
	Password     string        `envconfig:"AUTHENTIX_REDIS_PASSWORD"`
	DB           int           `envconfig:"AUTHENTIX_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AUTHENTIX_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AUTHENTIX_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AUTHENTIX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AUTHENTIX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AUTHENTIX_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"AUTHENTIX_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"AUTHENTIX_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"AUTHENTIX_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"AUTHENTIX_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AUTHENTIX_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AUTHENTIX_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AUTHENTIX_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AUTHENTIX_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AUTHENTIX_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"AUTHENTIX_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"AUTHENTIX_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"AUTHENTIX_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"AUTHENTIX_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"AUTHENTIX_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"AUTHENTIX_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"AUTHENTIX_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey            string `envconfig:"AUTHENTIX_STRIPE_API_KEY"`
	WebhookSecret     string `envconfig:"AUTHENTIX_STRIPE_WEBHOOK_SECRET"`
	Env               string `envconfig:"AUTHENTIX_STRIPE_ENV" default:"test"`
	ConnectReturnURL  string `envconfig:"AUTHENTIX_STRIPE_CONNECT_RETURN_URL" default:"http://localhost:5173/account?stripe=success"`
	ConnectRefreshURL string `envconfig:"AUTHENTIX_STRIPE_CONNECT_REFRESH_URL" default:"http://localhost:5173/account?stripe=refresh"`
}

// Configured reports whether Stripe credentials are present at all.
func (s StripeConfig) Configured() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type PaymentsConfig struct {
	PlatformFeePercent int    `envconfig:"AUTHENTIX_PLATFORM_FEE_PERCENT" default:"6"`
	Currency           string `envconfig:"AUTHENTIX_PAYMENTS_CURRENCY" default:"usd"`
}

type SweeperConfig struct {
	Interval   time.Duration `envconfig:"AUTHENTIX_SWEEP_INTERVAL" default:"1h"`
	PendingTTL time.Duration `envconfig:"AUTHENTIX_SWEEP_PENDING_TTL" default:"72h"`
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
