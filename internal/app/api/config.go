package api

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.temporal.io/sdk/client"
)

const envPrefix = "ORDERS_"

// Payment providers accepted by payments.provider.
const (
	PaymentProviderStub   = "stub"
	PaymentProviderStripe = "stripe"
)

// Config carries the settings shared by the api, worker and purger processes.
type Config struct {
	Environment string `koanf:"environment"`

	HTTP struct {
		Port            string        `koanf:"port"`
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	} `koanf:"http"`

	Log struct {
		Level string `koanf:"level"`
		File  string `koanf:"file"`
	} `koanf:"log"`

	Telemetry struct {
		// Exporter is otlp, stdout or none.
		Exporter     string  `koanf:"exporter"`
		OTLPEndpoint string  `koanf:"otlp_endpoint"`
		Insecure     bool    `koanf:"insecure"`
		SampleRatio  float64 `koanf:"sample_ratio"`
	} `koanf:"telemetry"`

	Postgres struct {
		DSN string `koanf:"dsn"`
	} `koanf:"postgres"`

	Temporal struct {
		Address   string `koanf:"address"`
		Namespace string `koanf:"namespace"`
		Disabled  bool   `koanf:"disabled"`
	} `koanf:"temporal"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	} `koanf:"redis"`

	Kafka struct {
		// Brokers is a comma-separated host:port list.
		Brokers string `koanf:"brokers"`
		Topic   string `koanf:"topic"`
	} `koanf:"kafka"`

	Payments struct {
		Provider            string `koanf:"provider"`
		StripeSecretKey     string `koanf:"stripe_secret_key"`
		StripeWebhookSecret string `koanf:"stripe_webhook_secret"`
	} `koanf:"payments"`

	Idempotency struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"idempotency"`
}

// LoadConfig layers, from lowest to highest precedence: built-in defaults, the optional
// YAML file named by CONFIG_FILE, ORDERS_* variables (ORDERS_POSTGRES__DSN) and finally the
// plain deployment variables (PORT, POSTGRES_DSN, ...). A .env file, when present, seeds the
// process environment first without overriding variables that are already set.
func LoadConfig() (Config, error) {
	if err := loadDotEnv(envDefault("DOTENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	k := koanf.New(".")
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := applyLegacyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the processes cannot start with.
func (c Config) Validate() error {
	port, err := strconv.Atoi(c.HTTP.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("http.port must be a TCP port number, got %q", c.HTTP.Port)
	}
	if c.Idempotency.TTL <= 0 {
		return fmt.Errorf("idempotency.ttl must be positive")
	}
	switch c.Telemetry.Exporter {
	case "otlp", "stdout", "none":
	default:
		return fmt.Errorf("telemetry.exporter must be otlp, stdout or none, got %q", c.Telemetry.Exporter)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry.sample_ratio must be within [0, 1], got %v", c.Telemetry.SampleRatio)
	}
	switch c.Payments.Provider {
	case PaymentProviderStub:
	case PaymentProviderStripe:
		if strings.TrimSpace(c.Payments.StripeSecretKey) == "" {
			return fmt.Errorf("payments.stripe_secret_key is required for the stripe provider")
		}
	default:
		return fmt.Errorf("payments.provider must be %q or %q, got %q", PaymentProviderStub, PaymentProviderStripe, c.Payments.Provider)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.HTTP.Port
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "local"
	}
	if c.HTTP.Port == "" {
		c.HTTP.Port = "8080"
	}
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = 15 * time.Second
	}
	if c.HTTP.WriteTimeout <= 0 {
		c.HTTP.WriteTimeout = 30 * time.Second
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	c.Telemetry.Exporter = strings.ToLower(strings.TrimSpace(c.Telemetry.Exporter))
	if c.Telemetry.Exporter == "" {
		c.Telemetry.Exporter = "otlp"
	}
	if c.Telemetry.SampleRatio == 0 {
		c.Telemetry.SampleRatio = 1
	}
	if c.Temporal.Address == "" {
		c.Temporal.Address = client.DefaultHostPort
	}
	if c.Temporal.Namespace == "" {
		c.Temporal.Namespace = client.DefaultNamespace
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "orders.events"
	}
	if c.Payments.Provider == "" {
		c.Payments.Provider = PaymentProviderStub
		if strings.TrimSpace(c.Payments.StripeSecretKey) != "" {
			c.Payments.Provider = PaymentProviderStripe
		}
	}
	c.Payments.Provider = strings.ToLower(strings.TrimSpace(c.Payments.Provider))
	if c.Idempotency.TTL == 0 {
		c.Idempotency.TTL = 24 * time.Hour
	}
}

func applyLegacyEnv(cfg *Config) error {
	setString(&cfg.Environment, "ENVIRONMENT")
	setString(&cfg.HTTP.Port, "PORT")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.File, "LOG_FILE")
	setString(&cfg.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.Telemetry.Exporter, "OTEL_TRACES_EXPORTER")
	setString(&cfg.Postgres.DSN, "POSTGRES_DSN")
	setString(&cfg.Temporal.Address, "TEMPORAL_ADDRESS")
	setString(&cfg.Temporal.Namespace, "TEMPORAL_NAMESPACE")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Kafka.Brokers, "KAFKA_BROKERS")
	setString(&cfg.Kafka.Topic, "KAFKA_TOPIC")
	setString(&cfg.Payments.StripeSecretKey, "STRIPE_SECRET_KEY")
	setString(&cfg.Payments.StripeWebhookSecret, "STRIPE_WEBHOOK_SECRET")
	if raw, ok := lookupTrimmed("TEMPORAL_DISABLED"); ok {
		cfg.Temporal.Disabled = isTruthy(raw)
	}
	if raw, ok := lookupTrimmed("OTEL_EXPORTER_OTLP_INSECURE"); ok {
		cfg.Telemetry.Insecure = isTruthy(raw)
	}
	if raw, ok := lookupTrimmed("OTEL_TRACES_SAMPLER_ARG"); ok {
		ratio, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("OTEL_TRACES_SAMPLER_ARG must be a number between 0 and 1")
		}
		cfg.Telemetry.SampleRatio = ratio
	}
	if raw, ok := lookupTrimmed("IDEMPOTENCY_TTL"); ok {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return fmt.Errorf("IDEMPOTENCY_TTL must be a positive duration such as 24h")
		}
		cfg.Idempotency.TTL = ttl
	}
	return nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

func setString(target *string, key string) {
	if value, ok := lookupTrimmed(key); ok {
		*target = value
	}
}

func lookupTrimmed(key string) (string, bool) {
	value := strings.TrimSpace(os.Getenv(key))
	return value, value != ""
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
