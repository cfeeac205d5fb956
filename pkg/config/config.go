package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App         AppConfig
	Remote      RemoteConfig
	JWT         JWTConfig
	DB          DBConfig
	Redis       RedisConfig
	Relay       RelayConfig
	Refresh     RefreshConfig
	Idempotency IdempotencyConfig
	CORS        CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Remote.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"THREADLINE_APP_ENV" required:"true"`
	Port         string `envconfig:"THREADLINE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"THREADLINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"THREADLINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// RemoteConfig points the gateway at the commerce backend origin.
type RemoteConfig struct {
	BaseURL       string        `envconfig:"THREADLINE_REMOTE_BASE_URL" required:"true"`
	Timeout       time.Duration `envconfig:"THREADLINE_REMOTE_TIMEOUT" default:"10s"`
	UploadTimeout time.Duration `envconfig:"THREADLINE_REMOTE_UPLOAD_TIMEOUT" default:"60s"`
	MaxUploadMB   int           `envconfig:"THREADLINE_REMOTE_MAX_UPLOAD_MB" default:"20"`
	UserAgent     string        `envconfig:"THREADLINE_REMOTE_USER_AGENT" default:"threadline-gateway"`
	AdminBasePath string        `envconfig:"THREADLINE_REMOTE_ADMIN_BASE_PATH" default:"/api/admin"`
}

func (r RemoteConfig) validate() error {
	parsed, err := url.Parse(r.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid remote base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("remote base url must be http(s), got %q", r.BaseURL)
	}
	return nil
}

// JWTConfig controls bearer token handling. The gateway only reads claims;
// when Secret is set it additionally verifies signatures.
type JWTConfig struct {
	Secret string `envconfig:"THREADLINE_JWT_SECRET"`
	Issuer string `envconfig:"THREADLINE_JWT_ISSUER"`
}

// Verifying reports whether full signature verification is enabled.
func (j JWTConfig) Verifying() bool {
	return strings.TrimSpace(j.Secret) != ""
}

type DBConfig struct {
	DSN    string `envconfig:"THREADLINE_DB_DSN"`
	Driver string `envconfig:"THREADLINE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"THREADLINE_DB_HOST"`
	Port     int    `envconfig:"THREADLINE_DB_PORT" default:"5432"`
	User     string `envconfig:"THREADLINE_DB_USER"`
	Password string `envconfig:"THREADLINE_DB_PASSWORD"`
	Name     string `envconfig:"THREADLINE_DB_NAME"`
	SSLMode  string `envconfig:"THREADLINE_DB_SSLMODE" default:"disable"`

	AutoMigrate bool `envconfig:"THREADLINE_DB_AUTO_MIGRATE" default:"false"`

	MaxOpenConns    int           `envconfig:"THREADLINE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"THREADLINE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"THREADLINE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"THREADLINE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// UseSQLite reports whether the embedded sqlite driver was requested.
func (db DBConfig) UseSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"THREADLINE_REDIS_URL"`
	Address      string        `envconfig:"THREADLINE_REDIS_ADDR"`
	Password     string        `envconfig:"THREADLINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"THREADLINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"THREADLINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"THREADLINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"THREADLINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"THREADLINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"THREADLINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// RelayConfig tunes the in-process event bus and toast surface.
type RelayConfig struct {
	SubscriberBuffer int           `envconfig:"THREADLINE_RELAY_SUBSCRIBER_BUFFER" default:"16"`
	ToastTTL         time.Duration `envconfig:"THREADLINE_RELAY_TOAST_TTL" default:"3s"`
}

// RefreshConfig controls the convergence polling loop.
type RefreshConfig struct {
	Interval time.Duration `envconfig:"THREADLINE_REFRESH_INTERVAL" default:"60s"`
	LockTTL  time.Duration `envconfig:"THREADLINE_REFRESH_LOCK_TTL" default:"55s"`
}

type IdempotencyConfig struct {
	TTL time.Duration `envconfig:"THREADLINE_IDEMPOTENCY_TTL" default:"24h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"THREADLINE_CORS_ALLOWED_ORIGINS" default:"*"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.UseSQLite() {
		db.DSN = DefaultSQLitePath
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
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
