package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/nexora/go/internal/dbconfig"
	"github.com/mcdev12/nexora/go/internal/validation"
)

// DefaultPath is read when no config file is named.
const DefaultPath = "nexora.yaml"

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Timer    TimerConfig    `yaml:"timer"`
	Progress ProgressConfig `yaml:"progress"`
	Auth     AuthConfig     `yaml:"auth"`
	NATS     NATSConfig     `yaml:"nats"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// RequireAuth puts every private route behind a bearer token.
	RequireAuth bool `yaml:"require_auth"`
}

type StorageConfig struct {
	Driver    string `yaml:"driver"`
	Path      string `yaml:"path"`
	DSN       string `yaml:"dsn"`
	Namespace string `yaml:"namespace"`
}

type TimerConfig struct {
	BreakMinutes int           `yaml:"break_minutes"`
	BreakDelay   time.Duration `yaml:"break_delay"`
}

type ProgressConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	DailyGoal       int           `yaml:"daily_goal"`
	WeeklyGoal      int           `yaml:"weekly_goal"`
	HistoryLimit    int           `yaml:"history_limit"`
}

type AuthConfig struct {
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// NATSConfig enables the broker publisher when URL is set
type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 10 * time.Second,
			RequireAuth:     true,
		},
		Storage: StorageConfig{
			Driver:    DriverFile,
			Path:      "nexora-data.json",
			Namespace: "nexora",
		},
		Timer: TimerConfig{
			BreakMinutes: 5,
			BreakDelay:   time.Second,
		},
		Progress: ProgressConfig{
			RefreshInterval: time.Minute,
			DailyGoal:       240,
			WeeklyGoal:      1800,
			HistoryLimit:    50,
		},
		Auth: AuthConfig{
			SessionTTL: 24 * time.Hour,
		},
		NATS: NATSConfig{
			SubjectPrefix: "nexora",
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Load reads .env files, then the YAML file at path, then applies environment
// overrides. A missing file is not an error when path is the default.
func Load(path string, envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg := Default()
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvAsInt("PORT", c.Server.Port)
	if v := os.Getenv("NEXORA_ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	c.Server.ShutdownTimeout = getEnvAsDuration("NEXORA_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.RequireAuth = getEnvAsBool("NEXORA_REQUIRE_AUTH", c.Server.RequireAuth)

	c.Storage.Driver = getEnv("NEXORA_STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.Path = getEnv("NEXORA_STORAGE_PATH", c.Storage.Path)
	c.Storage.DSN = getEnv("NEXORA_STORAGE_DSN", c.Storage.DSN)
	c.Storage.Namespace = getEnv("NEXORA_NAMESPACE", c.Storage.Namespace)

	c.Timer.BreakMinutes = getEnvAsInt("NEXORA_BREAK_MINUTES", c.Timer.BreakMinutes)
	c.Timer.BreakDelay = getEnvAsDuration("NEXORA_BREAK_DELAY", c.Timer.BreakDelay)

	c.Progress.RefreshInterval = getEnvAsDuration("NEXORA_REFRESH_INTERVAL", c.Progress.RefreshInterval)
	c.Progress.DailyGoal = getEnvAsInt("NEXORA_DAILY_GOAL", c.Progress.DailyGoal)
	c.Progress.WeeklyGoal = getEnvAsInt("NEXORA_WEEKLY_GOAL", c.Progress.WeeklyGoal)
	c.Progress.HistoryLimit = getEnvAsInt("NEXORA_HISTORY_LIMIT", c.Progress.HistoryLimit)

	c.Auth.SessionTTL = getEnvAsDuration("NEXORA_SESSION_TTL", c.Auth.SessionTTL)

	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", c.NATS.SubjectPrefix)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Pretty = getEnvAsBool("LOG_PRETTY", c.Log.Pretty)
}

// Validate rejects settings the daemon cannot run with.
func (c Config) Validate() error {
	errs := validation.Errors{}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs.Add("server.port", "must be between 1 and 65535")
	}
	switch c.Storage.Driver {
	case DriverMemory, DriverPostgres, DriverPgx:
	case DriverFile, DriverSQLite:
		if c.Storage.Path == "" {
			errs.Add("storage.path", "is required for the "+c.Storage.Driver+" driver")
		}
	default:
		errs.Add("storage.driver", "must be one of memory, file, sqlite, postgres, pgx")
	}
	if c.Storage.Namespace == "" {
		errs.Add("storage.namespace", "is required")
	}
	if c.Timer.BreakMinutes < 1 || c.Timer.BreakMinutes > 60 {
		errs.Add("timer.break_minutes", "must be between 1 and 60")
	}
	if c.Timer.BreakDelay < 0 {
		errs.Add("timer.break_delay", "must not be negative")
	}
	if c.Progress.RefreshInterval < time.Second {
		errs.Add("progress.refresh_interval", "must be at least 1s")
	}
	if c.Progress.DailyGoal <= 0 {
		errs.Add("progress.daily_goal", "must be positive")
	}
	if c.Progress.WeeklyGoal <= 0 {
		errs.Add("progress.weekly_goal", "must be positive")
	}
	if c.Progress.HistoryLimit < 1 || c.Progress.HistoryLimit > 1000 {
		errs.Add("progress.history_limit", "must be between 1 and 1000")
	}
	if c.Auth.SessionTTL < time.Minute {
		errs.Add("auth.session_ttl", "must be at least 1m")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs.Add("log.level", "unknown level "+strconv.Quote(c.Log.Level))
	}
	return errs.Err()
}

// StorageDSN is the connection string for the SQL drivers. Postgres falls back
// to the DB_* environment when no DSN is configured.
func (c Config) StorageDSN() string {
	switch c.Storage.Driver {
	case DriverPostgres, DriverPgx:
		if c.Storage.DSN != "" {
			return c.Storage.DSN
		}
		return dbconfig.NewConfigFromEnv().DSN()
	case DriverSQLite:
		if c.Storage.DSN != "" {
			return c.Storage.DSN
		}
		return c.Storage.Path
	default:
		return c.Storage.DSN
	}
}

// Addr is the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// BreakDuration is the configured break length.
func (c Config) BreakDuration() time.Duration {
	return time.Duration(c.Timer.BreakMinutes) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring non-integer environment value")
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring malformed duration")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring non-boolean environment value")
	}
	return defaultValue
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
