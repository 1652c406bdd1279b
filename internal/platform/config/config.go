// Package config reads process configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strings"
	"time"
)

// Config captures everything the server needs to start. Optional backends
// (Redis, Kafka, Postgres) degrade gracefully when their URL is empty:
// memory stores and stateless tokens take over.
type Config struct {
	Addr            string
	DatabaseURL     string
	RedisURL        string
	KafkaBrokers    []string
	KafkaAuditTopic string
	JWTSigningKey   string
	TokenIssuer     string
	TokenLifetime   time.Duration
	AuditBuffer     int
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:            envOr("INVESTGATE_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		KafkaAuditTopic: envOr("KAFKA_AUDIT_TOPIC", "investgate.audit"),
		JWTSigningKey:   os.Getenv("JWT_SIGNING_KEY"),
		TokenIssuer:     envOr("TOKEN_ISSUER", "investgate"),
		TokenLifetime:   24 * time.Hour,
		AuditBuffer:     256,
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if raw := os.Getenv("TOKEN_LIFETIME"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.TokenLifetime = d
		}
	}
	if cfg.JWTSigningKey == "" {
		// Development default; override in production.
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
