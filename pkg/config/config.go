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
	State         StateConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Auth          AuthConfig
	AuthRateLimit AuthRateLimitConfig
	Simulation    SimulationConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.State.Backend = strings.ToLower(strings.TrimSpace(cfg.State.Backend))
	if err := cfg.State.validate(); err != nil {
		return nil, err
	}
	// Process memory does not survive a deploy.
	if cfg.App.IsProd() && cfg.State.Backend == StateBackendMemory {
		return nil, fmt.Errorf("%s=%s is not allowed when %s=%s", EnvStateBackend, StateBackendMemory, EnvAppEnv, AppEnvProd)
	}
	if cfg.State.NeedsDB() {
		if err := cfg.DB.ResolveDSN(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SWEETDELIGHTS_APP_ENV" required:"true"`
	Port         string `envconfig:"SWEETDELIGHTS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SWEETDELIGHTS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SWEETDELIGHTS_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"SWEETDELIGHTS_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StateConfig picks where session state (cart, user, admin flag) is persisted.
type StateConfig struct {
	Backend string `envconfig:"SWEETDELIGHTS_STATE_BACKEND" default:"redis"`
}

// NeedsDB reports whether the SQL connection must be configured.
func (s StateConfig) NeedsDB() bool {
	return strings.EqualFold(s.Backend, StateBackendPostgres)
}

func (s StateConfig) validate() error {
	switch strings.ToLower(s.Backend) {
	case StateBackendRedis, StateBackendPostgres, StateBackendMemory:
		return nil
	}
	return fmt.Errorf("%s must be one of %s|%s|%s", EnvStateBackend, StateBackendRedis, StateBackendPostgres, StateBackendMemory)
}

type DBConfig struct {
	DSN    string `envconfig:"SWEETDELIGHTS_DB_DSN"`
	Driver string `envconfig:"SWEETDELIGHTS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SWEETDELIGHTS_DB_HOST"`
	Port     int    `envconfig:"SWEETDELIGHTS_DB_PORT" default:"5432"`
	User     string `envconfig:"SWEETDELIGHTS_DB_USER"`
	Password string `envconfig:"SWEETDELIGHTS_DB_PASSWORD"`
	Name     string `envconfig:"SWEETDELIGHTS_DB_NAME"`
	SSLMode  string `envconfig:"SWEETDELIGHTS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SWEETDELIGHTS_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"SWEETDELIGHTS_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"SWEETDELIGHTS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SWEETDELIGHTS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite dialector should be used.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"SWEETDELIGHTS_REDIS_URL"`
	Address      string        `envconfig:"SWEETDELIGHTS_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"SWEETDELIGHTS_REDIS_PASSWORD"`
	DB           int           `envconfig:"SWEETDELIGHTS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SWEETDELIGHTS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SWEETDELIGHTS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SWEETDELIGHTS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SWEETDELIGHTS_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"SWEETDELIGHTS_REDIS_WRITE_TIMEOUT" default:"3s"`
	StateTTL     time.Duration `envconfig:"SWEETDELIGHTS_REDIS_STATE_TTL" default:"720h"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SWEETDELIGHTS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SWEETDELIGHTS_JWT_ISSUER" default:"sweetdelights"`
	ExpirationMinutes      int    `envconfig:"SWEETDELIGHTS_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"SWEETDELIGHTS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SWEETDELIGHTS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SWEETDELIGHTS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SWEETDELIGHTS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SWEETDELIGHTS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SWEETDELIGHTS_ARGON_KEY_LEN" default:"32"`
}

// AuthConfig governs the mock identity provider.
type AuthConfig struct {
	AdminEmails    []string `envconfig:"SWEETDELIGHTS_ADMIN_EMAILS"`
	AllowMockLogin bool     `envconfig:"SWEETDELIGHTS_AUTH_ALLOW_MOCK_LOGIN" default:"true"`
}

// IsAdminEmail reports whether email is on the admin allowlist.
func (a AuthConfig) IsAdminEmail(email string) bool {
	needle := strings.ToLower(strings.TrimSpace(email))
	if needle == "" {
		return false
	}
	for _, candidate := range a.AdminEmails {
		if strings.ToLower(strings.TrimSpace(candidate)) == needle {
			return true
		}
	}
	return false
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SWEETDELIGHTS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SWEETDELIGHTS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SWEETDELIGHTS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SWEETDELIGHTS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SWEETDELIGHTS_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SWEETDELIGHTS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// SimulationConfig holds the fixed delays that stand in for absent backend calls.
type SimulationConfig struct {
	LoginDelay   time.Duration `envconfig:"SWEETDELIGHTS_SIMULATED_LOGIN_DELAY" default:"1s"`
	PaymentDelay time.Duration `envconfig:"SWEETDELIGHTS_SIMULATED_PAYMENT_DELAY" default:"2s"`
	ContactDelay time.Duration `envconfig:"SWEETDELIGHTS_SIMULATED_CONTACT_DELAY" default:"1500ms"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SWEETDELIGHTS_AUTO_MIGRATE" default:"false"`
}

// ResolveDSN builds a postgres DSN from the host/user/name parts when no DSN is set.
func (db *DBConfig) ResolveDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range dbPartEnvVars {
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
