package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "CANTEEN"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Realtime     RealtimeConfig
	Cron         CronConfig
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
	Env          string `envconfig:"CANTEEN_APP_ENV" default:"dev"`
	Port         string `envconfig:"CANTEEN_APP_PORT" default:"5000"`
	LogLevel     string `envconfig:"CANTEEN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CANTEEN_LOG_WARN_STACK" default:"false"`

	// ExtraCORSOrigins is appended to the built-in allowlist, for
	// preview deployments of the dashboard and student app.
	ExtraCORSOrigins []string `envconfig:"CANTEEN_EXTRA_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CANTEEN_DB_DSN"`
	Driver string `envconfig:"CANTEEN_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"CANTEEN_DB_HOST"`
	Port     int    `envconfig:"CANTEEN_DB_PORT" default:"5432"`
	User     string `envconfig:"CANTEEN_DB_USER"`
	Password string `envconfig:"CANTEEN_DB_PASSWORD"`
	Name     string `envconfig:"CANTEEN_DB_NAME"`
	SSLMode  string `envconfig:"CANTEEN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CANTEEN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CANTEEN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CANTEEN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CANTEEN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CANTEEN_REDIS_URL"`
	Address      string        `envconfig:"CANTEEN_REDIS_ADDR"`
	Password     string        `envconfig:"CANTEEN_REDIS_PASSWORD"`
	DB           int           `envconfig:"CANTEEN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CANTEEN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CANTEEN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CANTEEN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CANTEEN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CANTEEN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint is configured at all. The
// realtime bridge and cron lock degrade to single-process behavior
// without one.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type RealtimeConfig struct {
	Channel    string `envconfig:"CANTEEN_REALTIME_CHANNEL" default:"canteen:events"`
	BufferSize int    `envconfig:"CANTEEN_REALTIME_BUFFER_SIZE" default:"16"`
}

type CronConfig struct {
	Interval           time.Duration `envconfig:"CANTEEN_CRON_INTERVAL" default:"5m"`
	LockKey            string        `envconfig:"CANTEEN_CRON_LOCK_KEY" default:"canteen:cron:lock"`
	LockTTL            time.Duration `envconfig:"CANTEEN_CRON_LOCK_TTL" default:"4m"`
	ReconcileBatchSize int           `envconfig:"CANTEEN_CRON_RECONCILE_BATCH_SIZE" default:"100"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CANTEEN_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		"CANTEEN_DB_HOST": db.Host,
		"CANTEEN_DB_USER": db.User,
		"CANTEEN_DB_NAME": db.Name,
	}
	for _, key := range []string{"CANTEEN_DB_HOST", "CANTEEN_DB_USER", "CANTEEN_DB_NAME"} {
		if values[key] == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either CANTEEN_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
