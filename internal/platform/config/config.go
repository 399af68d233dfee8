package config

import (
	"os"
	"strings"
)

// Config captures server, store, and transport configuration.
type Config struct {
	Addr string

	// StoreBackend selects persistence: "postgres", "redis", or "memory".
	StoreBackend string
	PostgresURL  string
	RedisURL     string

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroup   string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:         envOr("AUDIT_ADDR", ":8080"),
		StoreBackend: envOr("AUDIT_STORE", "memory"),
		PostgresURL:  os.Getenv("AUDIT_POSTGRES_URL"),
		RedisURL:     os.Getenv("AUDIT_REDIS_URL"),
		KafkaTopic:   envOr("AUDIT_KAFKA_TOPIC", "audit-events"),
		KafkaGroup:   envOr("AUDIT_KAFKA_GROUP", "audit-trail"),
	}
	if brokers := os.Getenv("AUDIT_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
