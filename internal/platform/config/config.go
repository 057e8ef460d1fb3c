// Package config loads process configuration from the environment.
//
// A .env file in the working directory is read first when present; variables
// already set in the environment win. Load never returns a partially valid
// config: Validate runs before it returns.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	platformstrings "vouch/pkg/platform/strings"
)

// Config is the full process configuration.
type Config struct {
	Server      Server
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Cipher      CipherConfig
	Review      ReviewConfig
	Aggregation AggregationConfig
	Log         LogConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// ModeratorToken gates the moderation endpoint; see middleware/admin.
	ModeratorToken string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig is optional; an empty URL disables the aggregate cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// KafkaConfig is optional; no brokers disables review events.
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
}

// CipherConfig holds the identity field encryption secret. Both values are
// required; there is no built-in default.
type CipherConfig struct {
	Secret string
	Salt   string
}

type ReviewConfig struct {
	// EditWindow bounds how long after creation an author may edit. Zero disables the bound.
	EditWindow time.Duration
}

type AggregationConfig struct {
	ReconcileSchedule    string
	ReconcileConcurrency int
	ComplianceURL        string
	ComplianceTimeout    time.Duration
	ComplianceRPS        int
	BreakerFailures      int
	BreakerSuccesses     int
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads .env (if any) and the environment, then validates.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Server: Server{
			Addr:            getEnv("VOUCH_ADDR", ":8080"),
			ReadTimeout:     getEnvDuration("VOUCH_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("VOUCH_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvDuration("VOUCH_SHUTDOWN_TIMEOUT", 10*time.Second),
			ModeratorToken:  os.Getenv("MODERATOR_TOKEN"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getEnvInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     getEnvDuration("AGGREGATE_CACHE_TTL", 10*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:       platformstrings.SplitList(os.Getenv("KAFKA_BROKERS"), ","),
			Topic:         getEnv("KAFKA_REVIEW_TOPIC", "review-events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "vouch-aggregation"),
		},
		Cipher: CipherConfig{
			Secret: os.Getenv("PII_ENCRYPTION_SECRET"),
			Salt:   os.Getenv("PII_KEY_SALT"),
		},
		Review: ReviewConfig{
			EditWindow: getEnvDuration("REVIEW_EDIT_WINDOW", 0),
		},
		Aggregation: AggregationConfig{
			ReconcileSchedule:    getEnv("RECONCILE_SCHEDULE", "@every 15m"),
			ReconcileConcurrency: getEnvInt("RECONCILE_CONCURRENCY", 4),
			ComplianceURL:        os.Getenv("COMPLIANCE_URL"),
			ComplianceTimeout:    getEnvDuration("COMPLIANCE_TIMEOUT", 2*time.Second),
			ComplianceRPS:        getEnvInt("COMPLIANCE_RPS", 20),
			BreakerFailures:      getEnvInt("COMPLIANCE_BREAKER_FAILURES", 5),
			BreakerSuccesses:     getEnvInt("COMPLIANCE_BREAKER_SUCCESSES", 2),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing or out-of-range setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Cipher.Secret == "" {
		errs = append(errs, errors.New("PII_ENCRYPTION_SECRET is required"))
	}
	if c.Cipher.Salt == "" {
		errs = append(errs, errors.New("PII_KEY_SALT is required"))
	}
	if c.Review.EditWindow < 0 {
		errs = append(errs, errors.New("REVIEW_EDIT_WINDOW must not be negative"))
	}
	if c.Aggregation.ReconcileConcurrency < 1 {
		errs = append(errs, errors.New("RECONCILE_CONCURRENCY must be at least 1"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("KAFKA_REVIEW_TOPIC is required when KAFKA_BROKERS is set"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultValue
	}
	return d
}
