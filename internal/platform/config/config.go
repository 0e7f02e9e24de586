package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-level configuration. Backends left unconfigured
// fall back to in-memory implementations so the service runs standalone in
// development.
type Config struct {
	Addr       string
	AdminToken string

	// PostgresURL enables durable sync records and domain configs.
	PostgresURL string

	// RedisURL enables the distributed dedupe store.
	RedisURL string

	// KafkaBrokers/KafkaAuditTopic enable the Kafka audit sink.
	KafkaBrokers    []string
	KafkaAuditTopic string

	// DedupeTTL bounds how long client request IDs are remembered.
	DedupeTTL time.Duration

	LogLevel  string
	LogFormat string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:            envOr("SYNCGATE_ADDR", ":8080"),
		AdminToken:      os.Getenv("SYNCGATE_ADMIN_TOKEN"),
		PostgresURL:     os.Getenv("SYNCGATE_POSTGRES_URL"),
		RedisURL:        os.Getenv("SYNCGATE_REDIS_URL"),
		KafkaAuditTopic: envOr("SYNCGATE_KAFKA_AUDIT_TOPIC", "syncgate.audit"),
		DedupeTTL:       24 * time.Hour,
		LogLevel:        envOr("SYNCGATE_LOG_LEVEL", "info"),
		LogFormat:       envOr("SYNCGATE_LOG_FORMAT", "json"),
	}

	if brokers := os.Getenv("SYNCGATE_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if ttl := os.Getenv("SYNCGATE_DEDUPE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil && d > 0 {
			cfg.DedupeTTL = d
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
