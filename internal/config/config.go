package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL     string
	ServerAddr      string
	AdminAPIKeyHash string
	CommissionExpr  string
	DeepLinkBase    string
	ExpirySweep     time.Duration
	IdleNudgeAfter  time.Duration
	RequestTimeout  time.Duration
	LogPretty       bool
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present; real environment
// variables win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "intake_hub")
		pass := getenv("POSTGRES_PASSWORD", "intake_hub_pass")
		db := getenv("POSTGRES_DB", "intake_hub")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}

	return &Config{
		DatabaseURL:     dsn,
		ServerAddr:      getenv("SERVER_ADDR", "0.0.0.0:8080"),
		AdminAPIKeyHash: os.Getenv("ADMIN_API_KEY_HASH"),
		CommissionExpr:  getenv("COMMISSION_EXPR", ""),
		DeepLinkBase:    getenv("DEEP_LINK_BASE", "https://apply.example.com"),
		ExpirySweep:     parseDuration(getenv("EXPIRY_SWEEP_INTERVAL", "1h"), time.Hour),
		IdleNudgeAfter:  parseDuration(getenv("IDLE_NUDGE_AFTER", "6h"), 6*time.Hour),
		RequestTimeout:  parseDuration(getenv("REQUEST_TIMEOUT", "30s"), 30*time.Second),
		LogPretty:       parseBool(getenv("LOG_PRETTY", "false"), false),
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseBool(val string, def bool) bool {
	if val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return b
}
