// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the query API listens on (e.g. :5000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN. Required by cmd/server, cmd/migrate, and cmd/seed.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// KafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// KafkaTopic is the topic telemetry events arrive on (default drone/telemetry).
	KafkaTopic string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`
	// KafkaGroupID is the consumer group ID for the ingest server.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
	// RequirePilotID enables the operator-aware deployment variant: events without
	// pilot_id are rejected at validation. When false pilot_id is optional metadata.
	RequirePilotID bool `mapstructure:"REQUIRE_PILOT_ID"`
	// SweepPeriod is the interval between liveness-check passes (e.g. "10s").
	SweepPeriod string `mapstructure:"SWEEP_PERIOD"`
	// StaleThreshold is the max silence before a vehicle is deemed inactive (e.g. "10s").
	StaleThreshold string `mapstructure:"STALE_THRESHOLD"`
	// OTLPEndpoint is the OTLP gRPC collector endpoint. Empty disables tracing and metrics.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`

	// Livemap-only: address for the live-map server and the query API it proxies.
	LivemapAddr    string `mapstructure:"LIVEMAP_ADDR"`
	UpstreamAPIURL string `mapstructure:"UPSTREAM_API_URL"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":5000")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("TELEMETRY_KAFKA_TOPIC", "drone/telemetry")
	v.SetDefault("KAFKA_GROUP_ID", "flight-tracker-ingest")
	v.SetDefault("REQUIRE_PILOT_ID", false)
	v.SetDefault("SWEEP_PERIOD", "10s")
	v.SetDefault("STALE_THRESHOLD", "10s")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("LIVEMAP_ADDR", ":5001")
	v.SetDefault("UPSTREAM_API_URL", "http://localhost:5000")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if d, err := time.ParseDuration(cfg.SweepPeriod); err != nil || d <= 0 {
		return nil, errors.New("config: SWEEP_PERIOD must be a positive duration")
	}
	if d, err := time.ParseDuration(cfg.StaleThreshold); err != nil || d <= 0 {
		return nil, errors.New("config: STALE_THRESHOLD must be a positive duration")
	}

	return &cfg, nil
}

// SweepInterval parses SweepPeriod as a time.Duration. Returns 10s if unset or invalid.
func (c *Config) SweepInterval() time.Duration {
	d, err := time.ParseDuration(c.SweepPeriod)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// StaleAfter parses StaleThreshold as a time.Duration. Returns 10s if unset or invalid.
func (c *Config) StaleAfter() time.Duration {
	d, err := time.ParseDuration(c.StaleThreshold)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if ingestion is enabled (non-empty list) and to create the reader.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
