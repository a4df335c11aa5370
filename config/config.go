// Package config loads binding configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"git.tcp.direct/tcp.direct/kvbind"
)

// Config is the on-disk configuration of a binding.
type Config struct {
	// Engine is the registered engine name. Defaults to kvbind.DefaultEngine.
	Engine string `yaml:"engine"`
	// Workers is the number of worker threads; 0 keeps the binding default.
	Workers int `yaml:"workers"`
	// Queue is how many operations may wait for a worker; 0 keeps the binding default.
	Queue   int     `yaml:"queue"`
	Logging Logging `yaml:"logging"`
	Metrics Metrics `yaml:"metrics"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Metrics struct {
	Enabled bool `yaml:"enabled"`
}

var ErrInvalid = errors.New("invalid configuration")

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Engine: kvbind.DefaultEngine,
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path over [Default] and validates the result.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the binding would reject.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Engine) == "" {
		return fmt.Errorf("%w: engine must not be empty", ErrInvalid)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalid, c.Workers)
	}
	if c.Queue < 0 {
		return fmt.Errorf("%w: queue must not be negative, got %d", ErrInvalid, c.Queue)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown logging format %q", ErrInvalid, c.Logging.Format)
	}
	return nil
}

// Options converts the configuration into binding options.
func (c *Config) Options() []kvbind.Option {
	opts := []kvbind.Option{kvbind.WithEngine(c.Engine)}
	if c.Workers > 0 {
		opts = append(opts, kvbind.WithWorkers(c.Workers))
	}
	if c.Queue > 0 {
		opts = append(opts, kvbind.WithQueueSize(c.Queue))
	}
	return opts
}
