package main

import (
	"os"
	"strings"
	"time"

	"github.com/mantenix/inventory-service/pkg/kafka"
	"github.com/mantenix/inventory-service/pkg/mongodb"
)

// Config holds application configuration
type Config struct {
	ServerAddr  string
	Environment string
	LogLevel    string

	MongoDB *mongodb.Config

	Kafka        *kafka.Config
	KafkaEnabled bool

	RedisAddr     string
	RedisPassword string

	OTLPEndpoint   string
	TracingEnabled bool

	AuthzPolicyFile   string
	OpenAPIValidation bool

	DirectoryURL     string
	DirectoryFile    string
	DirectoryTimeout time.Duration

	ReconcileSchedule string
	CleanupSchedule   string
	OutboxRetention   time.Duration
}

func loadConfig() *Config {
	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = splitList(getEnv("KAFKA_BROKERS", "localhost:9092"))
	kafkaConfig.ClientID = serviceName

	mongoConfig := mongodb.DefaultConfig()
	mongoConfig.URI = getEnv("MONGODB_URI", mongoConfig.URI)
	mongoConfig.Database = getEnv("MONGODB_DATABASE", mongoConfig.Database)
	mongoConfig.ReplicaSet = getEnv("MONGODB_REPLICA_SET", "")

	return &Config{
		ServerAddr:  getEnv("SERVER_ADDR", ":8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		MongoDB: mongoConfig,

		Kafka:        kafkaConfig,
		KafkaEnabled: getBool("KAFKA_ENABLED", true),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		TracingEnabled: getBool("TRACING_ENABLED", false),

		AuthzPolicyFile:   getEnv("AUTHZ_POLICY_FILE", ""),
		OpenAPIValidation: getBool("OPENAPI_VALIDATION", true),

		DirectoryURL:     getEnv("DIRECTORY_URL", ""),
		DirectoryFile:    getEnv("DIRECTORY_FILE", ""),
		DirectoryTimeout: getDuration("DIRECTORY_TIMEOUT", 5*time.Second),

		ReconcileSchedule: getEnv("RECONCILE_SCHEDULE", "@every 5m"),
		CleanupSchedule:   getEnv("CLEANUP_SCHEDULE", "@hourly"),
		OutboxRetention:   getDuration("OUTBOX_RETENTION", 7*24*time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
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
