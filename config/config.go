// Package config defines the engine configuration. Components never read
// ambient state; everything is passed in explicitly from one validated
// Config.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/quorum/decision"
	"github.com/rustyeddy/quorum/risk"
	"github.com/rustyeddy/quorum/sim"
)

// Config represents the complete backtest configuration.
type Config struct {
	Symbol     string          `json:"symbol" yaml:"symbol"`
	Aggregator decision.Config `json:"aggregator" yaml:"aggregator"`
	Risk       risk.Config     `json:"risk" yaml:"risk"`
	Simulator  SimulatorConfig `json:"simulator" yaml:"simulator"`
	Journal    JournalConfig   `json:"journal" yaml:"journal"`
	Log        LogConfig       `json:"log" yaml:"log"`
}

// SimulatorConfig holds the simulator parameters in configuration-friendly
// form; SimConfig converts to the decimal representation the simulator uses.
type SimulatorConfig struct {
	InitialBalance  float64 `json:"initial_balance" yaml:"initial_balance"`
	StopLossPct     float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	TakeProfitPct   float64 `json:"take_profit_pct" yaml:"take_profit_pct"`
	TrailingStopPct float64 `json:"trailing_stop_pct,omitempty" yaml:"trailing_stop_pct,omitempty"`
}

// JournalConfig selects the ledger sinks. The in-memory ledger always runs;
// type adds a persistent copy.
type JournalConfig struct {
	Type           string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile     string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile     string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	RejectionsFile string `json:"rejections_file,omitempty" yaml:"rejections_file,omitempty"`
	DBPath         string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "console" or "json"
}

// SimConfig converts the simulator section for sim.New.
func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		InitialBalance:  decimal.NewFromFloat(c.Simulator.InitialBalance),
		StopLossPct:     decimal.NewFromFloat(c.Simulator.StopLossPct),
		TakeProfitPct:   decimal.NewFromFloat(c.Simulator.TakeProfitPct),
		TrailingStopPct: decimal.NewFromFloat(c.Simulator.TrailingStopPct),
	}
}

// LoadFromFile loads configuration from a file (YAML or JSON based on
// content) and validates it. A config that fails validation refuses to run:
// no silent defaults for missing thresholds.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension).
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// finite guards the range checks below: NaN compares false against any
// bound, so it would otherwise slip through and blow up in decimal
// conversion long after startup.
func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Validate checks every parameter the engine depends on. Errors here are
// fatal at startup by design.
func (c *Config) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}

	a := c.Aggregator
	if !finite(a.ConfidenceThreshold) || a.ConfidenceThreshold < 0 || a.ConfidenceThreshold > 100 {
		return fmt.Errorf("aggregator.confidence_threshold must be in [0, 100]")
	}
	for src, w := range a.Weights {
		if !finite(w) || w < 0 {
			return fmt.Errorf("aggregator.weights[%s] must be a non-negative finite number", src)
		}
	}
	if !finite(a.MinPositionSize) || a.MinPositionSize < 0 || a.MinPositionSize > 1 {
		return fmt.Errorf("aggregator.min_position_size must be in [0, 1]")
	}
	if !finite(a.MaxPositionSize) || a.MaxPositionSize <= 0 || a.MaxPositionSize > 1 {
		return fmt.Errorf("aggregator.max_position_size must be in (0, 1]")
	}
	if a.MinPositionSize > a.MaxPositionSize {
		return fmt.Errorf("aggregator.min_position_size must not exceed max_position_size")
	}

	r := c.Risk
	if !finite(r.MaxVolatilityPct) || r.MaxVolatilityPct <= 0 {
		return fmt.Errorf("risk.max_volatility_pct must be positive and finite")
	}
	if !finite(r.MinLiquidityScore) || r.MinLiquidityScore < 0 || r.MinLiquidityScore > 1 {
		return fmt.Errorf("risk.min_liquidity_score must be in [0, 1]")
	}
	if !finite(r.MaxMovementPct) || r.MaxMovementPct <= 0 {
		return fmt.Errorf("risk.max_market_movement_pct must be positive and finite")
	}
	if !finite(r.MaxSpreadPct) || r.MaxSpreadPct <= 0 {
		return fmt.Errorf("risk.max_spread_pct must be positive and finite")
	}
	if !finite(r.MinConfidence) || r.MinConfidence < 0 || r.MinConfidence > 100 {
		return fmt.Errorf("risk.min_confidence_threshold must be in [0, 100]")
	}

	s := c.Simulator
	if !finite(s.InitialBalance) || s.InitialBalance <= 0 {
		return fmt.Errorf("simulator.initial_balance must be positive and finite")
	}
	if !finite(s.StopLossPct) || s.StopLossPct <= 0 {
		return fmt.Errorf("simulator.stop_loss_pct must be positive and finite")
	}
	if !finite(s.TakeProfitPct) || s.TakeProfitPct <= 0 {
		return fmt.Errorf("simulator.take_profit_pct must be positive and finite")
	}
	if !finite(s.TrailingStopPct) || s.TrailingStopPct < 0 {
		return fmt.Errorf("simulator.trailing_stop_pct must be a non-negative finite number")
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" || c.Journal.RejectionsFile == "" {
			return fmt.Errorf("journal trades_file, equity_file and rejections_file required for csv type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for sqlite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}

	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Symbol: "BTC_USD",
		Aggregator: decision.Config{
			ConfidenceThreshold: 65,
			Weights: map[string]float64{
				"technical": 1.2,
				"sentiment": 0.8,
				"liquidity": 1.0,
			},
			MinPositionSize: 0.1,
			MaxPositionSize: 0.5,
		},
		Risk: risk.Config{
			MaxVolatilityPct:  5.0,
			MinLiquidityScore: 0.3,
			MaxMovementPct:    10.0,
			MaxSpreadPct:      1.0,
			MinConfidence:     60,
		},
		Simulator: SimulatorConfig{
			InitialBalance: 10000,
			StopLossPct:    2.0,
			TakeProfitPct:  4.0,
		},
		Journal: JournalConfig{
			Type:           "csv",
			TradesFile:     "./trades.csv",
			EquityFile:     "./equity.csv",
			RejectionsFile: "./rejections.csv",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
