package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidValue is returned when an environment variable cannot be parsed.
	ErrInvalidValue = errors.New("invalid configuration value")
	// ErrMissingValue is returned when a variable required by the selected drivers is empty.
	ErrMissingValue = errors.New("missing configuration value")
)

const (
	RelayNone  = "none"
	RelayKafka = "kafka"
	RelayRedis = "redis"
)

type Config struct {
	Server    ServerConfig
	Logging   LoggingConfig
	Websocket WebsocketConfig
	Database  DatabaseConfig
	Relay     RelayConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
}

type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

type LoggingConfig struct {
	Directory string
	Level     string
	Format    string
}

// WebsocketConfig controls the hub and the per-client queues.
type WebsocketConfig struct {
	DefaultGroup string
	SendBuffer   int
	ReadLimit    int64
}

// DatabaseConfig selects the gorm driver. An empty DSN keeps records in memory.
type DatabaseConfig struct {
	Driver      string
	DSN         string
	AutoMigrate bool
}

type RelayConfig struct {
	Driver string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// Load reads the process environment. Callers are expected to have loaded .env beforehand.
func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		Server: ServerConfig{
			Port:            envOr("PORT", "8080"),
			ShutdownTimeout: parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second, &errs),
		},
		Logging: LoggingConfig{
			Directory: envOr("LOG_DIR", "./logs"),
			Level:     envOr("LOG_LEVEL", "info"),
			Format:    envOr("LOG_FORMAT", "text"),
		},
		Websocket: WebsocketConfig{
			DefaultGroup: envOr("WS_DEFAULT_GROUP", "DataSync"),
			SendBuffer:   parseInt("WS_SEND_BUFFER", 32, &errs),
			ReadLimit:    int64(parseInt("WS_READ_LIMIT", 1<<16, &errs)),
		},
		Database: DatabaseConfig{
			Driver:      strings.ToLower(envOr("DB_DRIVER", "postgres")),
			DSN:         strings.TrimSpace(os.Getenv("DB_DSN")),
			AutoMigrate: parseBool("DB_AUTO_MIGRATE", true, &errs),
		},
		Relay: RelayConfig{
			Driver: strings.ToLower(envOr("RELAY_DRIVER", RelayNone)),
		},
		Kafka: KafkaConfig{
			Brokers: brokersFromEnv(),
			Topic:   envOr("KAFKA_TOPIC", "ventas.entity-changes"),
			GroupID: envOr("KAFKA_GROUP_ID", "ventas-ws"),
		},
		Redis: RedisConfig{
			Addr:     envOr("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       parseInt("REDIS_DB", 0, &errs),
			Channel:  envOr("REDIS_CHANNEL", "ventas.entity-changes"),
		},
	}

	switch cfg.Relay.Driver {
	case RelayNone, "":
		cfg.Relay.Driver = RelayNone
	case RelayKafka:
		if len(cfg.Kafka.Brokers) == 0 {
			errs = append(errs, fmt.Errorf("%w: KAFKA_BROKERS is required for the kafka relay", ErrMissingValue))
		}
	case RelayRedis:
		if strings.TrimSpace(cfg.Redis.Addr) == "" {
			errs = append(errs, fmt.Errorf("%w: REDIS_ADDR is required for the redis relay", ErrMissingValue))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: RELAY_DRIVER=%q", ErrInvalidValue, cfg.Relay.Driver))
	}

	switch cfg.Database.Driver {
	case "postgres", "mysql":
	default:
		errs = append(errs, fmt.Errorf("%w: DB_DRIVER=%q", ErrInvalidValue, cfg.Database.Driver))
	}

	if cfg.Websocket.SendBuffer <= 0 {
		errs = append(errs, fmt.Errorf("%w: WS_SEND_BUFFER must be positive", ErrInvalidValue))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// brokersFromEnv accepts KAFKA_BROKERS (comma separated) and the single KAFKA_BROKER legacy name.
func brokersFromEnv() []string {
	raw := os.Getenv("KAFKA_BROKERS")
	if strings.TrimSpace(raw) == "" {
		raw = os.Getenv("KAFKA_BROKER")
	}
	var brokers []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}

func parseInt(key string, fallback int, errs *[]error) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, raw))
		return fallback
	}
	return v
}

func parseBool(key string, fallback bool, errs *[]error) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, raw))
		return fallback
	}
	return v
}

func parseDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, raw))
		return fallback
	}
	return v
}
