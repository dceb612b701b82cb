package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix scopes every environment variable the service reads.
	EnvPrefix = "HELMSHARE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	envDBDSN  = "HELMSHARE_DB_DSN"
	envDBHost = "HELMSHARE_DB_HOST"
	envDBUser = "HELMSHARE_DB_USER"
	envDBName = "HELMSHARE_DB_NAME"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Push         PushConfig
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
	Env          string `envconfig:"HELMSHARE_APP_ENV" required:"true"`
	Port         string `envconfig:"HELMSHARE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"HELMSHARE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HELMSHARE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"HELMSHARE_DB_DSN"`
	Driver string `envconfig:"HELMSHARE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HELMSHARE_DB_HOST"`
	LegacyPort     int    `envconfig:"HELMSHARE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HELMSHARE_DB_USER"`
	LegacyPassword string `envconfig:"HELMSHARE_DB_PASSWORD"`
	LegacyName     string `envconfig:"HELMSHARE_DB_NAME"`
	LegacySSLMode  string `envconfig:"HELMSHARE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HELMSHARE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HELMSHARE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HELMSHARE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HELMSHARE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HELMSHARE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HELMSHARE_REDIS_ADDR"`
	Password     string        `envconfig:"HELMSHARE_REDIS_PASSWORD"`
	DB           int           `envconfig:"HELMSHARE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HELMSHARE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HELMSHARE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HELMSHARE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HELMSHARE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HELMSHARE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"HELMSHARE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"HELMSHARE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"HELMSHARE_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HELMSHARE_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"HELMSHARE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"HELMSHARE_GCP_PROJECT_ID" required:"true"`
}

type PubSubConfig struct {
	CharterTopic        string `envconfig:"HELMSHARE_PUBSUB_CHARTER_TOPIC" default:"hs-charter-events"`
	CharterSubscription string `envconfig:"HELMSHARE_PUBSUB_CHARTER_SUBSCRIPTION" required:"true"`
}

type PushConfig struct {
	BaseURL     string        `envconfig:"HELMSHARE_PUSH_BASE_URL"`
	APIKey      string        `envconfig:"HELMSHARE_PUSH_API_KEY"`
	SendTimeout time.Duration `envconfig:"HELMSHARE_PUSH_SEND_TIMEOUT" default:"10s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		envDBHost: db.LegacyHost,
		envDBUser: db.LegacyUser,
		envDBName: db.LegacyName,
	}
	for _, env := range []string{envDBHost, envDBUser, envDBName} {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", envDBDSN, strings.Join(missing, ", "))
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
