// Package config loads the service configuration: built-in defaults,
// then the YAML file named by GMAB_CONFIG if any, then environment
// variables on top.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `env:"ENV" yaml:"environment"`

	HTTP struct {
		Port            int           `env:"HTTP_PORT" yaml:"port"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" yaml:"read_timeout"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" yaml:"write_timeout"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" yaml:"idle_timeout"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout"`
	} `yaml:"http"`

	Logging struct {
		Level  string `env:"LOG_LEVEL" yaml:"level"`
		Output string `env:"LOG_OUTPUT" yaml:"output"`
	} `yaml:"logging"`

	Search struct {
		Engine         string  `env:"SEARCH_ENGINE" yaml:"engine"`
		PopulationSize int     `env:"SEARCH_POPULATION_SIZE" yaml:"population_size"`
		MutationRate   float64 `env:"SEARCH_MUTATION_RATE" yaml:"mutation_rate"`
		CrossoverRate  float64 `env:"SEARCH_CROSSOVER_RATE" yaml:"crossover_rate"`
		MutationSpan   float64 `env:"SEARCH_MUTATION_SPAN" yaml:"mutation_span"`
		DefaultBudget  int     `env:"SEARCH_DEFAULT_BUDGET" yaml:"default_budget"`
		Seed           uint64  `env:"SEARCH_SEED" yaml:"seed"`
	} `yaml:"search"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{Environment: "development"}

	cfg.HTTP.Port = 8080
	cfg.HTTP.ReadTimeout = 30 * time.Second
	cfg.HTTP.WriteTimeout = 30 * time.Second
	cfg.HTTP.IdleTimeout = 120 * time.Second
	cfg.HTTP.ShutdownTimeout = 30 * time.Second

	cfg.Logging.Level = "info"
	cfg.Logging.Output = "stderr"

	cfg.Search.Engine = "genetic"
	cfg.Search.PopulationSize = 20
	cfg.Search.MutationRate = 0.25
	cfg.Search.CrossoverRate = 0.9
	cfg.Search.MutationSpan = 0.1
	cfg.Search.DefaultBudget = 10000

	return cfg
}

// Load builds the configuration. Defaults come first so that a file
// only has to name the fields it changes, and environment variables
// win over the file.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("GMAB_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}
