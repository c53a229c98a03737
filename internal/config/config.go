package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all process settings, populated from environment variables.
// Evaluation plans live in plan files; this covers the process around them.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Evaluation engine.
	EngineURL       string
	EngineToken     string
	EngineTimeout   time.Duration
	EngineCacheSize int

	// Optional Kafka publication of result rows.
	KafkaBrokers      []string
	KafkaResultsTopic string
	KafkaEnabled      bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	engineTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("ENGINE_TIMEOUT", "6h"))
	if err != nil || engineTimeout <= 0 {
		return nil, errors.New("invalid ENGINE_TIMEOUT")
	}

	engineURL := sharedcfg.EnvOrDefault("ENGINE_URL", "http://localhost:8000")
	if u, err := url.Parse(engineURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.New("invalid ENGINE_URL")
	}

	brokers := os.Getenv("KAFKA_BROKERS")
	kafkaEnabled := brokers != ""
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		EngineURL:       engineURL,
		EngineToken:     os.Getenv("ENGINE_TOKEN"),
		EngineTimeout:   engineTimeout,
		EngineCacheSize: parseEngineCacheSize(),

		KafkaResultsTopic: sharedcfg.EnvOrDefault("KAFKA_RESULTS_TOPIC", "forecast-evaluation-results"),
		KafkaEnabled:      kafkaEnabled,
	}
	if brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaResultsTopic == "" {
		return nil, errors.New("KAFKA_RESULTS_TOPIC is required")
	}

	return cfg, nil
}

func parseEngineCacheSize() int {
	if s := os.Getenv("ENGINE_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 16
}
