package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Clock        ClockConfig
	Attendance   AttendanceConfig
	Tasks        TasksConfig
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
	Env          string `envconfig:"CURBSIDE_APP_ENV" required:"true"`
	Port         string `envconfig:"CURBSIDE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CURBSIDE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CURBSIDE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CURBSIDE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CURBSIDE_DB_DSN"`
	Driver string `envconfig:"CURBSIDE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CURBSIDE_DB_HOST"`
	LegacyPort     int    `envconfig:"CURBSIDE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CURBSIDE_DB_USER"`
	LegacyPassword string `envconfig:"CURBSIDE_DB_PASSWORD"`
	LegacyName     string `envconfig:"CURBSIDE_DB_NAME"`
	LegacySSLMode  string `envconfig:"CURBSIDE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CURBSIDE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CURBSIDE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CURBSIDE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CURBSIDE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CURBSIDE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CURBSIDE_REDIS_ADDR"`
	Password     string        `envconfig:"CURBSIDE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CURBSIDE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CURBSIDE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CURBSIDE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CURBSIDE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CURBSIDE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CURBSIDE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CURBSIDE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CURBSIDE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CURBSIDE_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CURBSIDE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CURBSIDE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CURBSIDE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CURBSIDE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CURBSIDE_ARGON_KEY_LEN" default:"32"`
}

// ClockConfig pins every schedule comparison to one business timezone.
type ClockConfig struct {
	Timezone string `envconfig:"CURBSIDE_APP_TIMEZONE" default:"America/Denver"`
}

type AttendanceConfig struct {
	GraceMinutes   int     `envconfig:"CURBSIDE_ATTENDANCE_GRACE_MINUTES" default:"7"`
	DefaultRadiusM float64 `envconfig:"CURBSIDE_ATTENDANCE_DEFAULT_RADIUS_M" default:"100"`
}

type TasksConfig struct {
	SlotCapacity int `envconfig:"CURBSIDE_TASKS_SLOT_CAPACITY" default:"35"`
}

type CronConfig struct {
	Tick          time.Duration `envconfig:"CURBSIDE_CRON_TICK" default:"1m"`
	SweepInterval time.Duration `envconfig:"CURBSIDE_CRON_SWEEP_INTERVAL" default:"10m"`
	RoutineHour   int           `envconfig:"CURBSIDE_CRON_ROUTINE_HOUR" default:"18"`
	LockTTL       time.Duration `envconfig:"CURBSIDE_CRON_LOCK_TTL" default:"30m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CURBSIDE_AUTO_MIGRATE" default:"false"`
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
