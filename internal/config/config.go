package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	ServiceName string
	ServicePort int
	Debug       bool
	Database    DatabaseConfig
	RabbitMQ    RabbitMQConfig
	Validation  ValidationConfig
	Detection   DetectionConfig
	Notify      NotifyConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL string
}

// RabbitMQConfig holds RabbitMQ connection and queue settings
type RabbitMQConfig struct {
	URL              string
	IngestExchange   string
	IngestQueue      string
	IngestRoutingKey string
	EventExchange    string
	EventRoutingKey  string
	AlertRoutingKey  string
	DLQQueue         string
	PrefetchCount    int
}

// ValidationConfig holds reading validation settings
type ValidationConfig struct {
	TimestampToleranceMinutes int
}

// DetectionConfig holds anomaly detection fetch settings
type DetectionConfig struct {
	ReadingFetchLimit int
}

// NotifyConfig holds notification channel credentials. An empty value
// disables the channel rather than failing at startup.
type NotifyConfig struct {
	SMSAPIKey     string
	SMSGatewayURL string
	SMTPHost      string
	SMTPPort      int
	SMTPFrom      string
	AlertEmail    string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServiceName: getEnv("SERVICE_NAME", "water-quality-worker"),
		ServicePort: getEnvAsInt("SERVICE_PORT", 8082),
		Debug:       getEnvAsBool("DEBUG", false),
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		RabbitMQ: RabbitMQConfig{
			URL:              getEnv("RABBITMQ_URL", ""),
			IngestExchange:   getEnv("RABBITMQ_INGEST_EXCHANGE", "water-quality.ingest.exchange"),
			IngestQueue:      getEnv("RABBITMQ_INGEST_QUEUE", "water-quality.ingest.queue"),
			IngestRoutingKey: getEnv("RABBITMQ_INGEST_ROUTING_KEY", "sensor.reading.raw"),
			EventExchange:    getEnv("RABBITMQ_EVENT_EXCHANGE", "water-quality.events.exchange"),
			EventRoutingKey:  getEnv("RABBITMQ_EVENT_ROUTING_KEY", "sensor.reading.accepted"),
			AlertRoutingKey:  getEnv("RABBITMQ_ALERT_ROUTING_KEY", "sensor.alert.raised"),
			DLQQueue:         getEnv("RABBITMQ_DLQ_QUEUE", "water-quality.ingest.dlq"),
			PrefetchCount:    getEnvAsInt("RABBITMQ_PREFETCH", 10),
		},
		Validation: ValidationConfig{
			TimestampToleranceMinutes: getEnvAsInt("VALIDATION_TIMESTAMP_TOLERANCE_MINUTES", 10080),
		},
		Detection: DetectionConfig{
			ReadingFetchLimit: getEnvAsInt("READING_FETCH_LIMIT", 1000),
		},
		Notify: NotifyConfig{
			SMSAPIKey:     getEnv("SMS_API_KEY", ""),
			SMSGatewayURL: getEnv("SMS_GATEWAY_URL", ""),
			SMTPHost:      getEnv("SMTP_HOST", ""),
			SMTPPort:      getEnvAsInt("SMTP_PORT", 587),
			SMTPFrom:      getEnv("SMTP_FROM", ""),
			AlertEmail:    getEnv("ALERT_EMAIL", ""),
		},
	}

	// Validate required fields
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set in environment variables")
	}
	if cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required but not set in environment variables")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
