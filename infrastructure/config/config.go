package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// StoreBackend selects the backend's persistence implementation
type StoreBackend string

const (
	BackendMemory   StoreBackend = "memory"
	BackendSQLite   StoreBackend = "sqlite"
	BackendDynamoDB StoreBackend = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	// Server configuration (cmd/api)
	ServerAddress string
	Environment   string
	EnableCORS    bool

	// Store configuration
	StoreBackend StoreBackend
	SQLitePath   string

	// AWS configuration (dynamodb backend)
	AWSRegion     string
	DynamoDBTable string

	// Agent configuration (cmd/syncd)
	LocalAddress     string
	RemoteBaseURL    string
	CachePath        string
	DeviceConfigPath string
	DebounceWindow   time.Duration
	PollInterval     time.Duration

	// Enrichment (optional; empty base URL disables the sweep loop)
	EnricherBaseURL string
	SweepInterval   time.Duration

	// Rate limiting (public endpoints)
	RateLimitBurst  int
	RateLimitRefill time.Duration

	// Logging
	LogLevel string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),

		StoreBackend: StoreBackend(getEnv("STORE_BACKEND", "sqlite")),
		SQLitePath:   getEnv("SQLITE_PATH", "secondbrain.db"),

		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", "secondbrain-sync"),

		LocalAddress:     getEnv("LOCAL_ADDRESS", "127.0.0.1:8090"),
		RemoteBaseURL:    getEnv("REMOTE_BASE_URL", "http://localhost:8080"),
		CachePath:        getEnv("CACHE_PATH", "secondbrain-cache.db"),
		DeviceConfigPath: getEnv("DEVICE_CONFIG_PATH", "device.yaml"),
		DebounceWindow:   getEnvDuration("DEBOUNCE_WINDOW_MS", 2000) * time.Millisecond,
		PollInterval:     getEnvDuration("POLL_INTERVAL_MS", 30000) * time.Millisecond,

		EnricherBaseURL: getEnv("ENRICHER_BASE_URL", ""),
		SweepInterval:   getEnvDuration("SWEEP_INTERVAL_MS", 300000) * time.Millisecond,

		RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 60),
		RateLimitRefill: getEnvDuration("RATE_LIMIT_REFILL_MS", 1000) * time.Millisecond,

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendSQLite, BackendDynamoDB:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.StoreBackend == BackendDynamoDB && c.DynamoDBTable == "" {
		return fmt.Errorf("TABLE_NAME is required for the dynamodb backend")
	}

	if c.Environment == "production" && c.StoreBackend == BackendMemory {
		return fmt.Errorf("the memory backend is not valid in production")
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration gets an integer environment variable as a time.Duration
func getEnvDuration(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue))
}
