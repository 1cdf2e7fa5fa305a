package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Progression backend (simulation, patient records, risk analysis)
	BackendBaseURL        string
	BackendRequestTimeout time.Duration

	// Database (cycle operation audit trail)
	PostgresHost      string
	PostgresPort      string
	PostgresUser      string
	PostgresPassword  string
	PostgresDB        string
	PostgresSSLMode   string
	AuditTrailEnabled bool

	// Redis (assembled dashboard cache)
	RedisHost         string
	RedisPort         string
	RedisPassword     string
	RedisDB           int
	DashboardCacheTTL time.Duration

	// Kafka (cohort event bus)
	KafkaBrokers         []string
	KafkaGroupID         string
	CohortEventsTopic    string
	CohortEventsDLQTopic string
	EventBusEnabled      bool

	// Metric catalog
	MetricCatalogPath string

	// Recent activity feed
	ActivityFeedSize int

	// Rate limiting
	RateLimitRPS   int
	RateLimitBurst int
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1*1024*1024)),

		BackendBaseURL:        getEnv("BACKEND_BASE_URL", "http://localhost:3001"),
		BackendRequestTimeout: getDuration("BACKEND_REQUEST_TIMEOUT", 30*time.Second),

		PostgresHost:      getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:      getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:      getEnv("POSTGRES_USER", "renalview"),
		PostgresPassword:  getEnv("POSTGRES_PASSWORD", "renalview123"),
		PostgresDB:        getEnv("POSTGRES_DB", "renalview"),
		PostgresSSLMode:   getEnv("POSTGRES_SSLMODE", "disable"),
		AuditTrailEnabled: getBoolEnv("AUDIT_TRAIL_ENABLED", true),

		RedisHost:         getEnv("REDIS_HOST", "localhost"),
		RedisPort:         getEnv("REDIS_PORT", "6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getIntEnv("REDIS_DB", 0),
		DashboardCacheTTL: getDuration("DASHBOARD_CACHE_TTL", 30*time.Second),

		KafkaBrokers:         getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:         getEnv("KAFKA_GROUP_ID", "ckd-monitor"),
		CohortEventsTopic:    getEnv("COHORT_EVENTS_TOPIC", "cohort-events"),
		CohortEventsDLQTopic: getEnv("COHORT_EVENTS_DLQ_TOPIC", "cohort-events-dlq"),
		EventBusEnabled:      getBoolEnv("EVENT_BUS_ENABLED", true),

		MetricCatalogPath: getEnv("METRIC_CATALOG_PATH", ""),

		ActivityFeedSize: getIntEnv("ACTIVITY_FEED_SIZE", 50),

		RateLimitRPS:   getIntEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 100),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
