// Package config loads runtime settings from the environment. A .env file in
// the working directory is picked up automatically.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/pkg/errors"
)

type Config struct {
	Port        string
	GinMode     string
	LogLevel    string
	CORSOrigins []string

	DatabaseURL     string
	DBMaxOpenConns  int
	DBMaxIdleConns  int
	DBConnLifetime  time.Duration
	DBSlowThreshold time.Duration

	JWTSecret    string
	JWTExpiresIn time.Duration
}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Port:            getenvDefault(getenv, "PORT", "8080"),
		GinMode:         getenv("GIN_MODE"),
		LogLevel:        getenvDefault(getenv, "LOG_LEVEL", "info"),
		CORSOrigins:     splitList(getenvDefault(getenv, "CORS_ORIGINS", "*")),
		DBConnLifetime:  time.Hour,
		DBSlowThreshold: time.Second,
		JWTSecret:       getenv("JWT_SECRET"),
	}

	var err error
	if cfg.DBMaxOpenConns, err = intFromEnv(getenv, "DB_MAX_OPEN_CONNS", 100); err != nil {
		return nil, err
	}
	if cfg.DBMaxIdleConns, err = intFromEnv(getenv, "DB_MAX_IDLE_CONNS", 10); err != nil {
		return nil, err
	}

	cfg.DatabaseURL = getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = dsnFromParts(getenv)
	}

	switch cfg.GinMode {
	case "", "debug", "release", "test":
	default:
		return nil, errors.Errorf("GIN_MODE must be debug, release or test, got %q", cfg.GinMode)
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	cfg.JWTExpiresIn, err = ParseExpiry(getenvDefault(getenv, "JWT_EXPIRES_IN", "7d"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid JWT_EXPIRES_IN")
	}

	return cfg, nil
}

// dsnFromParts builds a key/value DSN from the DB_* variables, the same set
// the original deployment used.
func dsnFromParts(getenv func(string) string) string {
	host := getenv("DB_HOST")
	if host == "" {
		return ""
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		host,
		getenvDefault(getenv, "DB_PORT", "5432"),
		getenv("DB_USER"),
		getenv("DB_PASSWORD"),
		getenv("DB_NAME"),
		getenvDefault(getenv, "DB_SSLMODE", "disable"),
	)
}

// ParseExpiry accepts a Go duration ("72h") or a whole number of days ("7d").
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, errors.Errorf("bad day count %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.Errorf("expiry must be positive, got %s", s)
	}
	return d, nil
}

// Redacted returns the database URL with any password masked, for logging.
func (c *Config) Redacted() string {
	u, err := url.Parse(c.DatabaseURL)
	if err != nil || u.User == nil {
		if i := strings.Index(c.DatabaseURL, "password="); i >= 0 {
			end := strings.IndexByte(c.DatabaseURL[i:], ' ')
			if end < 0 {
				return c.DatabaseURL[:i] + "password=xxxxx"
			}
			return c.DatabaseURL[:i] + "password=xxxxx" + c.DatabaseURL[i+end:]
		}
		return c.DatabaseURL
	}
	return u.Redacted()
}

func getenvDefault(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

func intFromEnv(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
