package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Queue    QueueConfig
	SLA      SLAConfig
	Report   ReportConfig
	SMTP     SMTPConfig
	Auth     AuthConfig
	Logger   LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// QueueConfig tunes the job queue transport and consumer.
type QueueConfig struct {
	Name              string
	BatchSize         int
	WaitSeconds       int
	VisibilitySeconds int
	MaxAttempts       int
}

// SLAConfig controls breach scanning defaults.
type SLAConfig struct {
	DefaultHours int
}

// ReportConfig holds object storage values for report downloads.
type ReportConfig struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	UseSSL     bool
	PublicBase string
}

// SMTPConfig holds outbound mail values.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

// AuthConfig defines token verification parameters. Token issuance lives in
// the identity service; this service only verifies.
type AuthConfig struct {
	JWTSecret string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk-workflow"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Queue: QueueConfig{
			Name:              getEnv("QUEUE_NAME", "jobs"),
			BatchSize:         getEnvAsInt("QUEUE_BATCH_SIZE", 5),
			WaitSeconds:       getEnvAsInt("QUEUE_WAIT_SECONDS", 20),
			VisibilitySeconds: getEnvAsInt("QUEUE_VISIBILITY_SECONDS", 30),
			MaxAttempts:       getEnvAsInt("QUEUE_MAX_ATTEMPTS", 5),
		},
		SLA: SLAConfig{
			DefaultHours: getEnvAsInt("SLA_DEFAULT_HOURS", 24),
		},
		Report: ReportConfig{
			Endpoint:   getEnv("MINIO_ENDPOINT", ""),
			AccessKey:  getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:  getEnv("MINIO_SECRET_KEY", ""),
			Bucket:     getEnv("MINIO_BUCKET", "reports"),
			UseSSL:     getEnvAsBool("MINIO_USE_SSL", false),
			PublicBase: getEnv("MINIO_PUBLIC_BASE_URL", ""),
		},
		SMTP: SMTPConfig{
			Host: getEnv("SMTP_HOST", ""),
			Port: getEnv("SMTP_PORT", "25"),
			User: getEnv("SMTP_USER", ""),
			Pass: getEnv("SMTP_PASS", ""),
			From: getEnv("SMTP_FROM", "noreply@example.com"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", "dev-secret"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Wait returns the long-poll receive wait.
func (q QueueConfig) Wait() time.Duration {
	return time.Duration(q.WaitSeconds) * time.Second
}

// Visibility returns the in-flight message visibility timeout.
func (q QueueConfig) Visibility() time.Duration {
	return time.Duration(q.VisibilitySeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
