package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverFile     = "file"
	StoreDriverPostgres = "postgres"

	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"
)

type Config struct {
	// Server
	ServerPort         string
	CORSAllowedOrigins string
	RateLimitPerMinute int

	// Record store
	StoreDriver string
	DataDir     string

	// Database (postgres store driver)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Server side query cache
	CacheBackend string
	CacheTTL     time.Duration

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// RabbitMQ change events
	RabbitMQHost     string
	RabbitMQPort     string
	RabbitMQUser     string
	RabbitMQPassword string

	// AWS S3 snapshots
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSEndpoint        string
	S3UseSSL           string
	S3BucketName       string

	// Deletion policies, one per relationship
	DeletePolicySchedulePost    string
	DeletePolicyPostChannel     string
	DeletePolicyScheduleChannel string
	DeletePolicyPostCampaign    string

	// Client
	APIBaseURL string
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	rateLimit, err := getEnvInt("RATE_LIMIT_PER_MINUTE", 600)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := getEnvDuration("CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	config := &Config{
		ServerPort:         getEnv("SERVER_PORT", "3001"),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		RateLimitPerMinute: rateLimit,

		StoreDriver: getEnv("STORE_DRIVER", StoreDriverFile),
		DataDir:     getEnv("DATA_DIR", "data"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "planner"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		CacheBackend: getEnv("CACHE_BACKEND", CacheBackendMemory),
		CacheTTL:     cacheTTL,

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,

		RabbitMQHost:     getEnv("RABBITMQ_HOST", ""),
		RabbitMQPort:     getEnv("RABBITMQ_PORT", "5672"),
		RabbitMQUser:     getEnv("RABBITMQ_USER", "guest"),
		RabbitMQPassword: getEnv("RABBITMQ_PASSWORD", "guest"),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpoint:        getEnv("AWS_ENDPOINT", ""),
		S3UseSSL:           getEnv("S3_USE_SSL", "true"),
		S3BucketName:       getEnv("S3_BUCKET_NAME", "content-planner-snapshots"),

		DeletePolicySchedulePost:    getEnv("DELETE_POLICY_SCHEDULE_POST", "orphan"),
		DeletePolicyPostChannel:     getEnv("DELETE_POLICY_POST_CHANNEL", "orphan"),
		DeletePolicyScheduleChannel: getEnv("DELETE_POLICY_SCHEDULE_CHANNEL", "orphan"),
		DeletePolicyPostCampaign:    getEnv("DELETE_POLICY_POST_CAMPAIGN", "orphan"),

		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:3001/api"),
	}

	switch config.StoreDriver {
	case StoreDriverFile, StoreDriverPostgres:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", config.StoreDriver)
	}

	switch config.CacheBackend {
	case CacheBackendMemory, CacheBackendRedis, CacheBackendNone:
	default:
		return nil, fmt.Errorf("unknown CACHE_BACKEND %q", config.CacheBackend)
	}

	return config, nil
}

// PostgresDSN builds the connection string used by both gorm and goose.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost,
		c.DBUser,
		c.DBPassword,
		c.DBName,
		c.DBPort,
		c.DBSSLMode,
	)
}

// RabbitMQEnabled reports whether change events should be published.
func (c *Config) RabbitMQEnabled() bool {
	return c.RabbitMQHost != ""
}

// S3Enabled reports whether snapshots can be exported.
func (c *Config) S3Enabled() bool {
	return c.AWSAccessKeyID != "" || c.AWSEndpoint != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
