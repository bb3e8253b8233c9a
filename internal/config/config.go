package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	DatabaseURL      string
	ServerPort       string
	FrontendURL      string
	RedisURL         string
	RabbitMQURL      string
	RabbitMQPrefetch int
	JWTSecret        string

	// CalDAV settings. All three of URL, username and password must be set
	// for the remote calendar mirror to be enabled.
	CalDAVURL      string
	CalDAVUsername string
	CalDAVPassword string
	CalDAVCalendar string

	DefaultTimezone  string
	DefaultRemindMin int
	ListLimit        int
	ExportLimit      int
	MisfireGraceSec  int
	RateLimitRate    string

	// ReminderWebhookURL is where reminder pushes are POSTed for delivery by
	// the chat transport. Empty means log-only delivery.
	ReminderWebhookURL string

	WorkerDebugMode bool
	ServerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:3000"),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:        getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch:   getEnvInt("RABBITMQ_PREFETCH", 1),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		CalDAVURL:          getEnv("CALDAV_URL", "https://caldav.icloud.com/"),
		CalDAVUsername:     getEnv("CALDAV_USERNAME", ""),
		CalDAVPassword:     getEnv("CALDAV_PASSWORD", ""),
		CalDAVCalendar:     getEnv("CALDAV_CALENDAR", "TaskPlanner"),
		DefaultTimezone:    getEnv("DEFAULT_TIMEZONE", "UTC"),
		DefaultRemindMin:   getEnvInt("DEFAULT_REMIND_MINUTES", 15),
		ListLimit:          getEnvInt("LIST_LIMIT", 20),
		ExportLimit:        getEnvInt("EXPORT_LIMIT", 50),
		MisfireGraceSec:    getEnvInt("MISFIRE_GRACE_SECONDS", 120),
		RateLimitRate:      getEnv("RATE_LIMIT_RATE", "5-S"),
		ReminderWebhookURL: getEnv("REMINDER_WEBHOOK_URL", ""),
		WorkerDebugMode:    getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:    getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:        getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required for calendar sync job queueing")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// CalDAVAvailable reports whether the remote calendar integration is
// configured. Callers treat a false result as a disabled feature, not an
// error.
func (c *Config) CalDAVAvailable() bool {
	return c.CalDAVURL != "" && c.CalDAVUsername != "" && c.CalDAVPassword != ""
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
