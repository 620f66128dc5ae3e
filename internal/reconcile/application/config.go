package application

import (
	"errors"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Thresholds decides when a sweep escalates to the on-call webhook.
type Thresholds struct {
	MaxReplayFailures int `yaml:"max_replay_failures"`
	MaxOverdueTopUps  int `yaml:"max_overdue_topups"`
	MaxUnmirrored     int `yaml:"max_unmirrored"`
}

// Config defines the reconcile sweep configuration.
type Config struct {
	Thresholds    Thresholds    `yaml:"thresholds"`
	BatchSize     int           `yaml:"batch_size"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	WebhookURL    string        `yaml:"webhook_url"`
}

// LoadConfig loads config from yaml or env.
func LoadConfig() (Config, error) {
	cfg := Config{
		Thresholds: Thresholds{
			MaxReplayFailures: 0,
			MaxOverdueTopUps:  0,
			MaxUnmirrored:     10,
		},
		BatchSize:     getenvIntDefault("RECONCILE_BATCH_SIZE", 100),
		SweepInterval: getenvDurationDefault("RECONCILE_SWEEP_INTERVAL", 15*time.Minute),
		WebhookURL:    os.Getenv("RECONCILE_WEBHOOK_URL"),
	}

	if path := os.Getenv("RECONCILE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.WebhookURL == "" {
		cfg.WebhookURL = os.Getenv("RECONCILE_WEBHOOK_URL")
	}
	if cfg.BatchSize <= 0 {
		return cfg, errors.New("reconcile: batch size must be positive")
	}
	if cfg.SweepInterval <= 0 {
		return cfg, errors.New("reconcile: sweep interval must be positive")
	}
	return cfg, nil
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDurationDefault(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
