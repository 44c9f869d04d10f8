// Package config loads engine configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	LogLevel string

	DBType     string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	HTTPAddr string

	// MetricsTimezone is the fixed reference timezone used to bucket
	// daily metrics. Every instance must agree on this value.
	MetricsTimezone string

	ConsumerInterval  time.Duration
	ConsumerBatchSize int

	RedisAddr     string
	RedisPassword string

	OTLPEnabled  bool
	OTLPEndpoint string
	OTLPProtocol string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "canvass"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		LogLevel: getenv("LOG_LEVEL", "info"),

		DBType:     getenv("DATABASE_TYPE", "postgres"),
		DBHost:     getenv("DATABASE_HOST", "localhost"),
		DBPort:     getenv("DATABASE_PORT", "5432"),
		DBName:     getenv("DATABASE_NAME", "canvass"),
		DBUser:     getenv("DATABASE_USER", "postgres"),
		DBPassword: getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:  getenv("DATABASE_SSLMODE", "disable"),

		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		MetricsTimezone: getenv("METRICS_TIMEZONE", "UTC"),

		ConsumerInterval:  getenvDuration("CONSUMER_INTERVAL", 5*time.Second),
		ConsumerBatchSize: int(getenvInt64("CONSUMER_BATCH_SIZE", 50)),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		OTLPEnabled:  getenvBool("OTLP_ENABLED", false),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),
		OTLPProtocol: strings.ToLower(getenv("OTLP_PROTOCOL", "grpc")),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
