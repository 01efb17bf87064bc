// Package config loads storefront settings: built-in defaults, then an
// optional YAML file named by CONFIG_FILE, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPPort        string        `yaml:"http_port"`
	GRPCPort        string        `yaml:"grpc_port"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	Log      Log      `yaml:"log"`
	Postgres Postgres `yaml:"postgres"`
	Catalog  Catalog  `yaml:"catalog"`
	Redis    Redis    `yaml:"redis"`
	Cart     Cart     `yaml:"cart"`
	Mongo    Mongo    `yaml:"mongo"`
	Kafka    Kafka    `yaml:"kafka"`
	Auth     Auth     `yaml:"auth"`
	Payment  Payment  `yaml:"payment"`
	Tracing  Tracing  `yaml:"tracing"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Postgres struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	DBName         string `yaml:"dbname"`
	MigrationsPath string `yaml:"migrations_path"`
}

type Catalog struct {
	DBPath         string        `yaml:"db_path"`
	MigrationsPath string        `yaml:"migrations_path"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Cart struct {
	// SnapshotBackend is "redis" or "mongo".
	SnapshotBackend string        `yaml:"snapshot_backend"`
	SnapshotTTL     time.Duration `yaml:"snapshot_ttl"`
}

type Mongo struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type Kafka struct {
	Brokers        []string      `yaml:"brokers"`
	Topic          string        `yaml:"topic"`
	GroupID        string        `yaml:"group_id"`
	OutboxInterval time.Duration `yaml:"outbox_interval"`
	OutboxBatch    int           `yaml:"outbox_batch"`
}

type Auth struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type Payment struct {
	ApprovalPercent int           `yaml:"approval_percent"`
	Timeout         time.Duration `yaml:"timeout"`
}

// Tracing configures OpenTelemetry. An empty OTLPEndpoint keeps spans
// in-process, which still stamps trace ids on log lines.
type Tracing struct {
	ServiceName  string  `yaml:"service_name"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	Insecure     bool    `yaml:"insecure"`
	SampleRate   float64 `yaml:"sample_rate"`
}

func Default() Config {
	return Config{
		HTTPPort:        "8080",
		GRPCPort:        "50060",
		RequestTimeout:  15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		Log:             Log{Level: "info", Format: "json"},
		Postgres: Postgres{
			Host:           "localhost",
			Port:           5432,
			User:           "postgres",
			Password:       "postgres",
			DBName:         "bloom",
			MigrationsPath: "./internal/repository/migrations",
		},
		Catalog: Catalog{
			DBPath:         "./data/catalog.db",
			MigrationsPath: "./internal/catalog/migrations",
			CacheTTL:       10 * time.Minute,
		},
		Redis: Redis{Addr: "localhost:6379"},
		Cart:  Cart{SnapshotBackend: "redis", SnapshotTTL: 30 * 24 * time.Hour},
		Mongo: Mongo{URI: "mongodb://localhost:27017", Database: "bloom"},
		Kafka: Kafka{
			Brokers:        []string{"localhost:9092"},
			Topic:          "order-events",
			GroupID:        "bloom-notifier",
			OutboxInterval: 2 * time.Second,
			OutboxBatch:    100,
		},
		Auth:    Auth{TokenTTL: 30 * 24 * time.Hour},
		Payment: Payment{ApprovalPercent: 70, Timeout: 3 * time.Second},
		Tracing: Tracing{ServiceName: "bloom-storefront", Insecure: true, SampleRate: 1.0},
	}
}

// Load builds the effective configuration.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.HTTPPort = getEnv("HTTP_PORT", c.HTTPPort)
	c.GRPCPort = getEnv("GRPC_PORT", c.GRPCPort)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.Postgres.Host = getEnv("DB_HOST", c.Postgres.Host)
	c.Postgres.User = getEnv("DB_USER", c.Postgres.User)
	c.Postgres.Password = getEnv("DB_PASSWORD", c.Postgres.Password)
	c.Postgres.DBName = getEnv("DB_NAME", c.Postgres.DBName)
	c.Postgres.MigrationsPath = getEnv("MIGRATIONS_PATH", c.Postgres.MigrationsPath)

	c.Catalog.DBPath = getEnv("CATALOG_DB_PATH", c.Catalog.DBPath)
	c.Catalog.MigrationsPath = getEnv("CATALOG_MIGRATIONS_PATH", c.Catalog.MigrationsPath)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Cart.SnapshotBackend = getEnv("CART_SNAPSHOT_BACKEND", c.Cart.SnapshotBackend)

	c.Mongo.URI = getEnv("MONGO_URI", c.Mongo.URI)
	c.Mongo.Database = getEnv("MONGO_DATABASE", c.Mongo.Database)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = strings.Split(brokers, ",")
	}
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)
	c.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", c.Kafka.GroupID)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Tracing.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.OTLPEndpoint)

	var err error
	if c.Postgres.Port, err = getEnvInt("DB_PORT", c.Postgres.Port); err != nil {
		return err
	}
	if c.Redis.DB, err = getEnvInt("REDIS_DB", c.Redis.DB); err != nil {
		return err
	}
	if c.Payment.ApprovalPercent, err = getEnvInt("PAYMENT_APPROVAL_PERCENT", c.Payment.ApprovalPercent); err != nil {
		return err
	}
	if c.RequestTimeout, err = getEnvDuration("REQUEST_TIMEOUT", c.RequestTimeout); err != nil {
		return err
	}
	if c.Kafka.OutboxInterval, err = getEnvDuration("OUTBOX_INTERVAL", c.Kafka.OutboxInterval); err != nil {
		return err
	}
	if raw := os.Getenv("OTEL_SAMPLE_RATE"); raw != "" {
		if c.Tracing.SampleRate, err = strconv.ParseFloat(raw, 64); err != nil {
			return fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
		}
	}
	return nil
}

func (c Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Payment.ApprovalPercent < 0 || c.Payment.ApprovalPercent > 100 {
		return fmt.Errorf("payment approval percent %d out of range", c.Payment.ApprovalPercent)
	}
	switch c.Cart.SnapshotBackend {
	case "redis", "mongo":
	default:
		return fmt.Errorf("unknown cart snapshot backend %q", c.Cart.SnapshotBackend)
	}
	if len(c.Kafka.Brokers) == 0 {
		return errors.New("at least one kafka broker is required")
	}
	return nil
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
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
