// Package config loads service configuration from a YAML file with
// environment-variable overrides for deploy-time and secret values.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"articleforge/pkg/utils"
)

// Environment overrides.
const (
	listenEnv         = "ARTICLEFORGE_LISTEN"
	databasePathEnv   = "ARTICLEFORGE_DB_PATH"
	generatorKeyEnv   = "ARTICLEFORGE_GENERATOR_API_KEY"
	generatorURLEnv   = "ARTICLEFORGE_GENERATOR_ENDPOINT"
	generatorModelEnv = "ARTICLEFORGE_GENERATOR_MODEL"
)

// Config holds all settings for the service.
type Config struct {
	Listen    string          `yaml:"listen"`
	Database  DatabaseConfig  `yaml:"database"`
	Generator GeneratorConfig `yaml:"generator"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DatabaseConfig locates the sqlite state store. An empty path selects
// the in-memory store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// GeneratorConfig wires the content-generation service. An empty
// endpoint selects the offline stub.
type GeneratorConfig struct {
	Endpoint     string `yaml:"endpoint"`
	Model        string `yaml:"model"`
	APIKey       string `yaml:"-"`
	SystemPrompt string `yaml:"systemPrompt"`
}

// PipelineConfig tunes stage execution. Durations are strings like "30s".
type PipelineConfig struct {
	MaxAttempts       int     `yaml:"maxAttempts"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
	Jitter            bool    `yaml:"jitter"`
	StageTimeout      string  `yaml:"stageTimeout"`
	Workers           int     `yaml:"workers"`
	QueueSize         int     `yaml:"queueSize"`
}

// LoggingConfig selects slog handler and level.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the YAML file at path (optional) and applies environment
// overrides on top of defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv(listenEnv); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv(databasePathEnv); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv(generatorURLEnv); v != "" {
		cfg.Generator.Endpoint = v
	}
	if v := os.Getenv(generatorModelEnv); v != "" {
		cfg.Generator.Model = v
	}
	cfg.Generator.APIKey = os.Getenv(generatorKeyEnv)

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Listen: ":8080",
		Pipeline: PipelineConfig{
			MaxAttempts:       3,
			InitialBackoff:    "500ms",
			MaxBackoff:        "10s",
			BackoffMultiplier: 2.0,
			Jitter:            true,
			StageTimeout:      "30s",
			Workers:           4,
			QueueSize:         64,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// StageTimeoutDuration parses the configured stage timeout.
func (p PipelineConfig) StageTimeoutDuration() time.Duration {
	return utils.ParseDuration(p.StageTimeout, 30*time.Second)
}

// InitialBackoffDuration parses the configured initial backoff.
func (p PipelineConfig) InitialBackoffDuration() time.Duration {
	return utils.ParseDuration(p.InitialBackoff, 500*time.Millisecond)
}

// MaxBackoffDuration parses the configured backoff cap.
func (p PipelineConfig) MaxBackoffDuration() time.Duration {
	return utils.ParseDuration(p.MaxBackoff, 10*time.Second)
}
