package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is applied by envconfig when resolving variables.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"HERBHAVEN_APP_ENV" required:"true"`
	Port         string `envconfig:"HERBHAVEN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HERBHAVEN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HERBHAVEN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"HERBHAVEN_DB_DSN"`
	Driver string `envconfig:"HERBHAVEN_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"HERBHAVEN_DB_HOST"`
	Port     int    `envconfig:"HERBHAVEN_DB_PORT" default:"5432"`
	User     string `envconfig:"HERBHAVEN_DB_USER"`
	Password string `envconfig:"HERBHAVEN_DB_PASSWORD"`
	Name     string `envconfig:"HERBHAVEN_DB_NAME"`
	SSLMode  string `envconfig:"HERBHAVEN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HERBHAVEN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HERBHAVEN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HERBHAVEN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HERBHAVEN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN assembles a postgres DSN from discrete parts when one was not
// provided directly.
func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either HERBHAVEN_DB_DSN or host/user/name parts are required")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"HERBHAVEN_REDIS_URL" required:"true"`
	Password     string        `envconfig:"HERBHAVEN_REDIS_PASSWORD"`
	DB           int           `envconfig:"HERBHAVEN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HERBHAVEN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HERBHAVEN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HERBHAVEN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HERBHAVEN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HERBHAVEN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"HERBHAVEN_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"HERBHAVEN_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"HERBHAVEN_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"HERBHAVEN_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"HERBHAVEN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"HERBHAVEN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"HERBHAVEN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"HERBHAVEN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"HERBHAVEN_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HERBHAVEN_AUTO_MIGRATE" default:"false"`
}
