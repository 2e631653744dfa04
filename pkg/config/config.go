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
	KPI           KPIConfig
	Holidays      HolidayConfig
	Dashboard     DashboardConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"FIELDFORCE_APP_ENV" required:"true"`
	Port         string `envconfig:"FIELDFORCE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FIELDFORCE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FIELDFORCE_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"FIELDFORCE_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	out := []string{}
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type DBConfig struct {
	DSN    string `envconfig:"FIELDFORCE_DB_DSN"`
	Driver string `envconfig:"FIELDFORCE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FIELDFORCE_DB_HOST"`
	LegacyPort     int    `envconfig:"FIELDFORCE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FIELDFORCE_DB_USER"`
	LegacyPassword string `envconfig:"FIELDFORCE_DB_PASSWORD"`
	LegacyName     string `envconfig:"FIELDFORCE_DB_NAME"`
	LegacySSLMode  string `envconfig:"FIELDFORCE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FIELDFORCE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FIELDFORCE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FIELDFORCE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FIELDFORCE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"FIELDFORCE_DB_SLOW_QUERY" default:"500ms"`
}

// UsesSQLite reports whether the sqlite driver was selected.
func (db DBConfig) UsesSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"FIELDFORCE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FIELDFORCE_REDIS_ADDR"`
	Password     string        `envconfig:"FIELDFORCE_REDIS_PASSWORD"`
	DB           int           `envconfig:"FIELDFORCE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FIELDFORCE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FIELDFORCE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FIELDFORCE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FIELDFORCE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FIELDFORCE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FIELDFORCE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"FIELDFORCE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"FIELDFORCE_JWT_EXPIRATION_MINUTES" default:"1440"`
	RefreshTokenTTLMinutes int    `envconfig:"FIELDFORCE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FIELDFORCE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FIELDFORCE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FIELDFORCE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FIELDFORCE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FIELDFORCE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"FIELDFORCE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"FIELDFORCE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"FIELDFORCE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"FIELDFORCE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"FIELDFORCE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"FIELDFORCE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// KPIConfig pins the visit-completion scoring formula.
type KPIConfig struct {
	WorkingDays        int `envconfig:"FIELDFORCE_KPI_WORKING_DAYS" default:"26"`
	VisitsPerDay       int `envconfig:"FIELDFORCE_KPI_VISITS_PER_DAY" default:"12"`
	FullScoreThreshold int `envconfig:"FIELDFORCE_KPI_FULL_SCORE_THRESHOLD" default:"90"`
	PenaltyPercent     int `envconfig:"FIELDFORCE_KPI_PENALTY_PERCENT" default:"15"`
	TrendTarget        int `envconfig:"FIELDFORCE_KPI_TREND_TARGET" default:"85"`
}

type HolidayConfig struct {
	YearlyCap         int `envconfig:"FIELDFORCE_HOLIDAY_YEARLY_CAP" default:"27"`
	MinNoticeHours    int `envconfig:"FIELDFORCE_HOLIDAY_MIN_NOTICE_HOURS" default:"24"`
	RequiredApprovals int `envconfig:"FIELDFORCE_HOLIDAY_REQUIRED_APPROVALS" default:"2"`
}

// MinNotice returns the minimum lead time between submission and start date.
func (h HolidayConfig) MinNotice() time.Duration {
	return time.Duration(h.MinNoticeHours) * time.Hour
}

type DashboardConfig struct {
	RecentActivities  int `envconfig:"FIELDFORCE_DASHBOARD_RECENT_ACTIVITIES" default:"5"`
	ActivityRetention int `envconfig:"FIELDFORCE_ACTIVITY_RETENTION" default:"20"`
	LeaderboardSize   int `envconfig:"FIELDFORCE_DASHBOARD_LEADERBOARD_SIZE" default:"5"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FIELDFORCE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.UsesSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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
