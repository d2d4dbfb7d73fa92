// Package config loads service configuration from an optional YAML file
// overlaid by environment variables. Environment always wins.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	// DatabaseURL selects the PostgreSQL backend when set. Empty falls
	// back to the embedded file store rooted at DataDir.
	DatabaseURL string `yaml:"database_url"`
	DataDir     string `yaml:"data_dir"`

	ServerPort  string `yaml:"server_port"`
	BaseURL     string `yaml:"base_url"`
	FrontendURL string `yaml:"frontend_url"`
	EnableHSTS  bool   `yaml:"enable_hsts"`

	RedisURL         string `yaml:"redis_url"`
	RateLimitPerMin  int    `yaml:"rate_limit_per_min"`
	RabbitMQURL      string `yaml:"rabbitmq_url"`
	RabbitMQPrefetch int    `yaml:"rabbitmq_prefetch"`

	// ReminderScanInterval is how often the reminder worker looks for due
	// reminder times on incomplete tasks.
	ReminderScanInterval time.Duration `yaml:"reminder_scan_interval"`

	ServerDebugMode bool `yaml:"server_debug_mode"`
	WorkerDebugMode bool `yaml:"worker_debug_mode"`

	OTELEnabled  bool   `yaml:"otel_enabled"`
	OTELEndpoint string `yaml:"otel_endpoint"`
}

// Load reads the optional file named by NOTED_CONFIG_FILE, then applies
// environment variables over it.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:           "8080",
		BaseURL:              "http://localhost:8080",
		FrontendURL:          "http://localhost:3000",
		DataDir:              defaultDataDir(),
		RedisURL:             "redis://localhost:6379/0",
		RateLimitPerMin:      120,
		RabbitMQPrefetch:     1,
		ReminderScanInterval: time.Minute,
	}

	if path := os.Getenv("NOTED_CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.BaseURL = getEnv("BASE_URL", cfg.BaseURL)
	cfg.FrontendURL = getEnv("FRONTEND_URL", cfg.FrontendURL)
	cfg.EnableHSTS = getEnvBool("ENABLE_HSTS", cfg.EnableHSTS)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.RateLimitPerMin = getEnvInt("RATE_LIMIT_PER_MIN", cfg.RateLimitPerMin)
	cfg.RabbitMQURL = getEnv("RABBITMQ_URL", cfg.RabbitMQURL)
	cfg.RabbitMQPrefetch = getEnvInt("RABBITMQ_PREFETCH", cfg.RabbitMQPrefetch)
	cfg.ReminderScanInterval = getEnvDuration("REMINDER_SCAN_INTERVAL", cfg.ReminderScanInterval)
	cfg.ServerDebugMode = getEnvBool("SERVER_DEBUG_MODE", cfg.ServerDebugMode)
	cfg.WorkerDebugMode = getEnvBool("WORKER_DEBUG_MODE", cfg.WorkerDebugMode)
	cfg.OTELEnabled = getEnvBool("OTEL_ENABLED", cfg.OTELEnabled)
	cfg.OTELEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTELEndpoint)

	if cfg.DatabaseURL == "" && cfg.DataDir == "" {
		return nil, fmt.Errorf("either DATABASE_URL or DATA_DIR is required")
	}
	return cfg, nil
}

// UsePostgres reports whether the PostgreSQL backend is configured.
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".noted"
	}
	return home + "/.noted"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
