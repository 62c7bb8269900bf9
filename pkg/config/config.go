package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "roomradar"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "ROOMRADAR_APP_ENV"
	EnvDBDSN  = "ROOMRADAR_DB_DSN"
	EnvDBHost = "ROOMRADAR_DB_HOST"
	EnvDBUser = "ROOMRADAR_DB_USER"
	EnvDBName = "ROOMRADAR_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	SMTP         SMTPConfig
	Matching     MatchingConfig
	Dispatch     DispatchConfig
	Ops          OpsConfig
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
	Env          string `envconfig:"ROOMRADAR_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"ROOMRADAR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ROOMRADAR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ROOMRADAR_SERVICE_KIND" default:"matching-worker"`
}

type DBConfig struct {
	DSN    string `envconfig:"ROOMRADAR_DB_DSN"`
	Driver string `envconfig:"ROOMRADAR_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ROOMRADAR_DB_HOST"`
	LegacyPort     int    `envconfig:"ROOMRADAR_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ROOMRADAR_DB_USER"`
	LegacyPassword string `envconfig:"ROOMRADAR_DB_PASSWORD"`
	LegacyName     string `envconfig:"ROOMRADAR_DB_NAME"`
	LegacySSLMode  string `envconfig:"ROOMRADAR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ROOMRADAR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ROOMRADAR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ROOMRADAR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ROOMRADAR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ROOMRADAR_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ROOMRADAR_REDIS_ADDR"`
	Password     string        `envconfig:"ROOMRADAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"ROOMRADAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ROOMRADAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ROOMRADAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ROOMRADAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ROOMRADAR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ROOMRADAR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type SMTPConfig struct {
	Host        string        `envconfig:"ROOMRADAR_SMTP_HOST" required:"true"`
	Port        string        `envconfig:"ROOMRADAR_SMTP_PORT" default:"587"`
	From        string        `envconfig:"ROOMRADAR_SMTP_FROM" required:"true"`
	Password    string        `envconfig:"ROOMRADAR_SMTP_PASSWORD"`
	SendTimeout time.Duration `envconfig:"ROOMRADAR_SMTP_SEND_TIMEOUT" default:"10s"`
	MaxAttempts int           `envconfig:"ROOMRADAR_SMTP_MAX_ATTEMPTS" default:"3"`
	BaseBackoff time.Duration `envconfig:"ROOMRADAR_SMTP_BASE_BACKOFF" default:"500ms"`
	MaxBackoff  time.Duration `envconfig:"ROOMRADAR_SMTP_MAX_BACKOFF" default:"10s"`
}

type MatchingConfig struct {
	Interval        time.Duration `envconfig:"ROOMRADAR_MATCHING_INTERVAL" default:"1h"`
	HorizonDays     int           `envconfig:"ROOMRADAR_MATCHING_HORIZON_DAYS" default:"30"`
	CandidateLimit  int           `envconfig:"ROOMRADAR_MATCHING_CANDIDATE_LIMIT" default:"10"`
	Workers         int           `envconfig:"ROOMRADAR_MATCHING_WORKERS" default:"4"`
	LastMinuteDays  int           `envconfig:"ROOMRADAR_MATCHING_LAST_MINUTE_DAYS" default:"3"`
	UpcomingDays    int           `envconfig:"ROOMRADAR_MATCHING_UPCOMING_DAYS" default:"7"`
	GoodDealPercent int           `envconfig:"ROOMRADAR_MATCHING_GOOD_DEAL_PERCENT" default:"20"`
}

type DispatchConfig struct {
	Interval      time.Duration `envconfig:"ROOMRADAR_DISPATCH_INTERVAL" default:"15m"`
	BatchSize     int           `envconfig:"ROOMRADAR_DISPATCH_BATCH_SIZE" default:"50"`
	MaxRetries    int           `envconfig:"ROOMRADAR_DISPATCH_MAX_RETRIES" default:"3"`
	RetentionDays int           `envconfig:"ROOMRADAR_DISPATCH_RETENTION_DAYS" default:"30"`
}

type OpsConfig struct {
	Port string `envconfig:"ROOMRADAR_OPS_PORT" default:"9090"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ROOMRADAR_AUTO_MIGRATE" default:"false"`
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
