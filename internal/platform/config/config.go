package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "onboard/pkg/platform/strings"
)

// Server captures process-level configuration. Everything comes from the
// environment so main stays lean.
type Server struct {
	Addr          string
	JWTSigningKey string

	Redis    RedisConfig
	Postgres PostgresConfig

	// RemoteStoreURL is the base URL of the authoritative step data store.
	RemoteStoreURL string
	// ExtractionURL is the base URL of the document-extraction service.
	ExtractionURL string
	// PDFServiceURL is the base URL of the PDF generation service.
	PDFServiceURL string

	// SaveQuietPeriod is how long edits must be quiet before an auto-save.
	SaveQuietPeriod time.Duration
	// TransitionLockWindow absorbs duplicate navigation events for a given
	// step pair.
	TransitionLockWindow time.Duration

	// KafkaBrokers enables the Kafka audit publisher when non-empty.
	KafkaBrokers []string
	// AuditTopic is the topic audit events are produced to.
	AuditTopic string
}

// RedisConfig configures the local snapshot cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig configures the durable audit store.
type PostgresConfig struct {
	DSN string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:                 envOr("ONBOARD_ADDR", ":8080"),
		JWTSigningKey:        os.Getenv("ONBOARD_JWT_SIGNING_KEY"),
		RemoteStoreURL:       os.Getenv("ONBOARD_REMOTE_STORE_URL"),
		ExtractionURL:        os.Getenv("ONBOARD_EXTRACTION_URL"),
		PDFServiceURL:        os.Getenv("ONBOARD_PDF_URL"),
		SaveQuietPeriod:      envDuration("ONBOARD_SAVE_QUIET_PERIOD", 1500*time.Millisecond),
		TransitionLockWindow: envDuration("ONBOARD_TRANSITION_LOCK_WINDOW", 75*time.Millisecond),
		AuditTopic:           envOr("ONBOARD_AUDIT_TOPIC", "onboarding.audit"),
		Redis: RedisConfig{
			URL:          os.Getenv("ONBOARD_REDIS_URL"),
			PoolSize:     envInt("ONBOARD_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("ONBOARD_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("ONBOARD_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("ONBOARD_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("ONBOARD_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: PostgresConfig{
			DSN: os.Getenv("ONBOARD_POSTGRES_DSN"),
		},
	}
	if cfg.JWTSigningKey == "" {
		// Development default - must be overridden in production.
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	if brokers := os.Getenv("ONBOARD_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = platformstrings.DedupeAndTrim(strings.Split(brokers, ","))
	}
	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
