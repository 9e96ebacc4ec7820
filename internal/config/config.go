package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/district-stress-dashboard/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataPath        string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Simulator policy, built-in unless POLICY_FILE is set.
	PolicyFile        string
	Policy            domain.Policy
	RegionCorrections map[string]string

	ReloadInterval time.Duration
	ViewCacheSize  int

	// Kafka order publishing configuration.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaOrdersTopic string
}

// LoadDotEnv seeds the environment from .env files. Variables already set in
// the environment win. Missing files are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	reloadInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("DATASET_RELOAD_INTERVAL", "0s"))
	if err != nil || reloadInterval < 0 {
		return nil, errors.New("invalid DATASET_RELOAD_INTERVAL")
	}

	viewCacheSize, err := parseViewCacheSize()
	if err != nil {
		return nil, err
	}

	policyFile := os.Getenv("POLICY_FILE")
	policy, corrections, err := LoadPolicy(policyFile)
	if err != nil {
		return nil, fmt.Errorf("POLICY_FILE: %w", err)
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		DataPath:        sharedcfg.EnvOrDefault("DATA_PATH", "aadhaar_dashboard_data.csv"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		PolicyFile:        policyFile,
		Policy:            policy,
		RegionCorrections: corrections,

		ReloadInterval: reloadInterval,
		ViewCacheSize:  viewCacheSize,

		KafkaEnabled:     kafkaEnabled,
		KafkaBrokers:     brokers,
		KafkaOrdersTopic: sharedcfg.EnvOrDefault("KAFKA_ORDERS_TOPIC", "district-orders"),
	}

	if cfg.DataPath == "" {
		return nil, errors.New("DATA_PATH is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaOrdersTopic == "" {
		return nil, errors.New("KAFKA_ORDERS_TOPIC is required when Kafka is enabled")
	}

	return cfg, nil
}

func parseViewCacheSize() (int, error) {
	s := os.Getenv("VIEW_CACHE_SIZE")
	if s == "" {
		return 256, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid VIEW_CACHE_SIZE")
	}
	return n, nil
}
