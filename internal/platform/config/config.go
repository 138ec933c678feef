package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures configuration for the dev verification backend.
type Server struct {
	Addr          string
	MetricsAddr   string
	JWTSigningKey string
	LinkTokenKey  string
	Redis         RedisConfig
	Kafka         KafkaConfig
}

// RedisConfig holds connection settings for the optional redis session store.
// An empty URL means redis is not configured and the memory store is used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds settings for the verification event feed.
// Empty brokers disable the feed.
type KafkaConfig struct {
	Brokers string
	Topic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("VERIFLOW_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	metricsAddr := os.Getenv("VERIFLOW_METRICS_ADDR")
	if metricsAddr == "" {
		metricsAddr = ":9090"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	// Link token key must be 32 bytes once decoded; the default is dev-only.
	linkTokenKey := os.Getenv("LINK_TOKEN_KEY")
	if linkTokenKey == "" {
		linkTokenKey = "0123456789abcdef0123456789abcdef"
	}

	topic := os.Getenv("KAFKA_EVENTS_TOPIC")
	if topic == "" {
		topic = "veriflow.verification.events"
	}

	return Server{
		Addr:          addr,
		MetricsAddr:   metricsAddr,
		JWTSigningKey: jwtSigningKey,
		LinkTokenKey:  linkTokenKey,
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: os.Getenv("KAFKA_BROKERS"),
			Topic:   topic,
		},
	}
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
