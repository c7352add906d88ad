// Package config provides configuration management for the analyzer CLI
// and results API.
package config

import (
	"fmt"
	"os"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/AlexHusseini/options-alpha-toolkit/internal/models"
)

// Defaults applied when the config file omits a key.
const (
	defaultNumSimulations = 10000
	defaultHoldingDays    = 3
	defaultAssumedVol     = 0.30
	defaultServerPort     = 8080
)

// Config represents the complete application configuration.
type Config struct {
	LogLevel   string           `yaml:"log_level"` // debug | info | warn | error
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Simulation SimulationConfig `yaml:"simulation"`
	Import     ImportConfig     `yaml:"import"`
	Hedge      HedgeConfig      `yaml:"hedge"`
	Server     ServerConfig     `yaml:"server"`
}

// AnalysisConfig selects the ranking metric and the calculator's
// slippage model.
type AnalysisConfig struct {
	Metric string `yaml:"metric"` // sas | ra-sas | tas | expected-return
	// SlippageFraction scales the spread-based slippage estimate in the
	// cost-adjusted metrics. Default: 0.5 (half the spread).
	SlippageFraction float64 `yaml:"slippage_fraction"`
	// Seed fixes the random seed for simulation batches. Omit for fresh
	// randomness on every run.
	Seed *int64 `yaml:"seed"`
}

// SimulationConfig wraps the engine's run parameters plus an enable flag.
type SimulationConfig struct {
	Enabled bool                    `yaml:"enabled"`
	Run     models.SimulationConfig `yaml:",inline"`
}

// ImportConfig carries the session-level values applied to every CSV row.
type ImportConfig struct {
	UnderlyingPrice   float64 `yaml:"underlying_price"`
	ATR               float64 `yaml:"atr"`
	DeriveRealizedVol bool    `yaml:"derive_realized_vol"`
}

// HedgeConfig sets the contract multiplier used by the hedge panel.
type HedgeConfig struct {
	ContractMultiplier float64 `yaml:"contract_multiplier"`
}

// ServerConfig defines the results API settings.
type ServerConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

// Default returns the configuration used when keys are omitted.
func Default() Config {
	return Config{
		LogLevel: "info",
		Analysis: AnalysisConfig{
			Metric:           string(models.MetricSAS),
			SlippageFraction: models.DefaultSlippageFraction,
		},
		Simulation: SimulationConfig{
			Enabled: true,
			Run: models.SimulationConfig{
				NumSimulations:     defaultNumSimulations,
				AssumedVol:         defaultAssumedVol,
				HoldingPeriodDays:  defaultHoldingDays,
				RealisticExecution: true,
				SlippageFraction:   models.DefaultSlippageFraction,
			},
		},
		Hedge: HedgeConfig{
			ContractMultiplier: models.SharesPerContract,
		},
		Server: ServerConfig{
			Port: defaultServerPort,
		},
	}
}

// Load reads, env-expands, parses, and validates a YAML config file.
// Omitted keys keep their defaults.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- configPath is a user-provided config file path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	config := Default()
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate enforces the configuration invariants. Simulation parameters
// are checked even when the simulation pass is disabled so a bad file is
// caught at startup, not on first use.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error")
	}

	if _, err := models.ParseMetric(c.Analysis.Metric); err != nil {
		return fmt.Errorf("analysis.metric: %w", err)
	}
	if c.Analysis.SlippageFraction < 0 {
		return fmt.Errorf("analysis.slippage_fraction must be >= 0")
	}

	if err := c.Simulation.Run.Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}

	if c.Import.UnderlyingPrice < 0 {
		return fmt.Errorf("import.underlying_price must be >= 0")
	}
	if c.Import.ATR < 0 {
		return fmt.Errorf("import.atr must be >= 0")
	}

	if c.Hedge.ContractMultiplier <= 0 {
		return fmt.Errorf("hedge.contract_multiplier must be > 0")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	return nil
}

// Metric returns the parsed analysis metric. Validate must have passed.
func (c *Config) Metric() models.AlphaMetric {
	m, _ := models.ParseMetric(c.Analysis.Metric)
	return m
}
