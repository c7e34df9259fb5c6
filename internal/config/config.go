package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
	Provider  ProviderConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MigrationsPath string
}

// KafkaConfig holds Kafka configuration for job events
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// RedisConfig holds the wake-up broker configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// SchedulerConfig holds the job scheduler settings. It is passed to the
// scheduler constructor; nothing in the scheduler reads the environment.
type SchedulerConfig struct {
	Workers      int
	MaxRetries   int
	RetryDelay   time.Duration
	JobTimeout   time.Duration
	PollInterval time.Duration
}

// ProviderConfig holds the market data provider settings
type ProviderConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "tickerwatch"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", "db/migrations"),
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Topic:   getEnv("KAFKA_TOPIC", "job-events"),
			GroupID: getEnv("KAFKA_GROUP_ID", "job-chainer"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Channel:  getEnv("REDIS_WAKE_CHANNEL", "jobs:wake"),
		},
		Scheduler: SchedulerConfig{
			Workers:      getEnvInt("SCHEDULER_WORKERS", 4),
			MaxRetries:   getEnvInt("SCHEDULER_MAX_RETRIES", 3),
			RetryDelay:   getEnvDuration("SCHEDULER_RETRY_DELAY", 60*time.Second),
			JobTimeout:   getEnvDuration("SCHEDULER_JOB_TIMEOUT", 300*time.Second),
			PollInterval: getEnvDuration("SCHEDULER_POLL_INTERVAL", 5*time.Second),
		},
		Provider: ProviderConfig{
			BaseURL: getEnv("PROVIDER_BASE_URL", "https://query2.finance.yahoo.com"),
			Timeout: getEnvDuration("PROVIDER_TIMEOUT", 30*time.Second),
		},
	}
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
