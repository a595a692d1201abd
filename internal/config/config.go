package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// SMSA account
	SMSAAccountNumber string `envconfig:"SMSA_ACCOUNT_NUMBER"`
	SMSAUsername      string `envconfig:"SMSA_USERNAME"`
	SMSAPassword      string `envconfig:"SMSA_PASSWORD"`
	SMSABaseURL       string `envconfig:"SMSA_BASE_URL" default:"https://smsaopenapis.azurewebsites.net/api"`
	SMSAUseMock       bool   `envconfig:"SMSA_USE_MOCK" default:"false"`

	// Label artifacts
	LabelDir         string `envconfig:"LABEL_DIR" default:"/var/lib/labelbridge/labels"`
	LabelBaseURL     string `envconfig:"LABEL_BASE_URL" default:"http://localhost:8080/labels"`
	FetchConcurrency int    `envconfig:"FETCH_CONCURRENCY" default:"4"`

	// Order store
	OrderStore    string `envconfig:"ORDER_STORE" default:"memory"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"labelbridge"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("smsa.mock", c.SMSAUseMock),
		attribute.String("orderstore.backend", c.OrderStore),
	}
}
