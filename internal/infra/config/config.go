package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the checker process.
type AppConfig struct {
	TelegramToken string
	DatabaseURL   string
	CheckerURL    string // base URL of the external availability checker

	LogLevel    string
	Environment string

	CheckCronSpec    string
	CheckConcurrency int
	BrowserPoolSize  int // ceiling from the checker's automation contexts
	ProbeTimeout     time.Duration

	HeartbeatInterval        time.Duration
	HeartbeatMissedThreshold int
	MonitorInterval          time.Duration
	MaxProcessingTime        time.Duration
	AlertCooldown            time.Duration
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.CheckerURL = os.Getenv("CHECKER_URL")
	if cfg.CheckerURL == "" {
		return nil, fmt.Errorf("CHECKER_URL is not set")
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.CheckCronSpec = os.Getenv("CHECK_CRON_SPEC")
	if cfg.CheckCronSpec == "" {
		cfg.CheckCronSpec = "*/10 * * * *" // Default: every 10 minutes
	}

	if cfg.CheckConcurrency, err = intEnv("CHECK_CONCURRENCY", 2); err != nil {
		return nil, err
	}
	if cfg.BrowserPoolSize, err = intEnv("BROWSER_POOL_SIZE", 2); err != nil {
		return nil, err
	}
	if cfg.ProbeTimeout, err = msEnv("PROBE_TIMEOUT_MS", 90*time.Second); err != nil {
		return nil, err
	}

	if cfg.HeartbeatInterval, err = msEnv("HEARTBEAT_INTERVAL_MS", time.Minute); err != nil {
		return nil, err
	}
	if cfg.HeartbeatMissedThreshold, err = intEnv("HEARTBEAT_MISSED_THRESHOLD", 3); err != nil {
		return nil, err
	}
	if cfg.MonitorInterval, err = msEnv("MONITOR_INTERVAL_MS", time.Minute); err != nil {
		return nil, err
	}
	if cfg.MaxProcessingTime, err = msEnv("MAX_PROCESSING_TIME_MS", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.AlertCooldown, err = msEnv("ALERT_COOLDOWN_MS", 30*time.Minute); err != nil {
		return nil, err
	}

	if cfg.CheckConcurrency < 1 {
		return nil, fmt.Errorf("CHECK_CONCURRENCY must be at least 1")
	}
	if cfg.BrowserPoolSize < 1 {
		return nil, fmt.Errorf("BROWSER_POOL_SIZE must be at least 1")
	}

	return cfg, nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func msEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
