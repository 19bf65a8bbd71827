package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	KafkaClientSarama  = "sarama"
	KafkaClientSegment = "kafka-go"

	DeliveryLogPostgres = "postgres"
	DeliveryLogKafka    = "kafka"
	DeliveryLogNone     = "none"
)

// AppConfig holds process level settings
type AppConfig struct {
	Name     string `validate:"required"`
	Port     string `validate:"required,numeric"`
	LogLevel string `validate:"oneof=debug info warn error"`
}

// DBConfig holds the Postgres connection settings
type DBConfig struct {
	URL         string `validate:"required"`
	MaxConns    int32  `validate:"gt=0"`
	ConnMaxIdle time.Duration
}

// ConsumerConfig holds the inbound Kafka settings
type ConsumerConfig struct {
	Client             string   `validate:"oneof=sarama kafka-go"`
	KafkaBrokers       []string `validate:"required,min=1,dive,required"`
	KafkaConsumerGroup string   `validate:"required"`
	MessageTopic       string   `validate:"required"`
	StatusTopic        string   `validate:"required,nefield=MessageTopic"`
}

// DispatchConfig tunes the dispatch core
type DispatchConfig struct {
	ResolverTimeout time.Duration `validate:"gt=0"`
}

// PushConfig points at the push gateway
type PushConfig struct {
	GatewayURL string        `validate:"required,url"`
	APIKey     string
	Timeout    time.Duration `validate:"gt=0"`
}

// DeliveryLogConfig selects where send attempts are recorded
type DeliveryLogConfig struct {
	Sink          string        `validate:"oneof=postgres kafka none"`
	Topic         string        `validate:"required_if=Sink kafka"`
	RecordTimeout time.Duration `validate:"gt=0"`
}

type Config struct {
	AppCfg         AppConfig
	DBConfig       DBConfig
	ConsumerConfig ConsumerConfig
	DispatchCfg    DispatchConfig
	PushCfg        PushConfig
	DeliveryLogCfg DeliveryLogConfig
}

// LoadConfig reads an optional .env file, then the environment, and validates the result.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from environment variables, applying defaults.
func FromEnv() *Config {
	return &Config{
		AppCfg: AppConfig{
			Name:     getEnv("APP_NAME", "Odin Messenger"),
			Port:     getEnv("PORT", "8080"),
			LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		},
		DBConfig: DBConfig{
			URL:         getEnv("DATABASE_URL", ""),
			MaxConns:    int32(getEnvInt("DB_MAX_CONNS", 10)),
			ConnMaxIdle: getEnvDuration("DB_CONN_MAX_IDLE", 5*time.Minute),
		},
		ConsumerConfig: ConsumerConfig{
			Client:             strings.ToLower(getEnv("KAFKA_CLIENT", KafkaClientSarama)),
			KafkaBrokers:       getEnvList("KAFKA_BROKERS"),
			KafkaConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "notifyd"),
			MessageTopic:       getEnv("KAFKA_MESSAGE_TOPIC", "undelivered.notification.message"),
			StatusTopic:        getEnv("KAFKA_STATUS_TOPIC", "status.update.notification.message"),
		},
		DispatchCfg: DispatchConfig{
			ResolverTimeout: getEnvDuration("RESOLVER_TIMEOUT", 2*time.Second),
		},
		PushCfg: PushConfig{
			GatewayURL: getEnv("PUSH_GATEWAY_URL", ""),
			APIKey:     getEnv("PUSH_GATEWAY_KEY", ""),
			Timeout:    getEnvDuration("PUSH_TIMEOUT", 10*time.Second),
		},
		DeliveryLogCfg: DeliveryLogConfig{
			Sink:          strings.ToLower(getEnv("DELIVERY_LOG_SINK", DeliveryLogPostgres)),
			Topic:         getEnv("DELIVERY_LOG_TOPIC", "notification.delivery.log"),
			RecordTimeout: getEnvDuration("DELIVERY_LOG_TIMEOUT", 2*time.Second),
		},
	}
}

var validate = validator.New()

// Validate reports the first invalid field as a *ConfigError.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ConfigError{Field: fe.Namespace(), Message: describe(fe)}
	}
	return &ConfigError{Field: "Config", Message: err.Error()}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "must be set"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "url":
		return "must be a valid URL"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "nefield":
		return fmt.Sprintf("must differ from %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Message)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
