// Package config loads the HCL run configuration shared by the blackjack
// commands: table rules, simulation defaults, named strategies and the API
// server settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/lox/blackjacksim/internal/game"
	"github.com/lox/blackjacksim/internal/strategy"
)

// Config is a complete run configuration.
type Config struct {
	Table      *TableConfig      `hcl:"table,block"`
	Simulation *SimulationConfig `hcl:"simulation,block"`
	Strategies []StrategyConfig  `hcl:"strategy,block"`
	Server     *ServerConfig     `hcl:"server,block"`
}

// TableConfig overrides the default table rules. Unset attributes keep their
// defaults, so a zero shuffle threshold can still be configured.
type TableConfig struct {
	MinBet           *int     `hcl:"min_bet,optional"`
	MaxBet           *int     `hcl:"max_bet,optional"`
	Decks            *int     `hcl:"decks,optional"`
	ShuffleThreshold *float64 `hcl:"shuffle_threshold,optional"`
	Bankroll         *int     `hcl:"bankroll,optional"`
	HitSoft17        *bool    `hcl:"hit_soft_17,optional"`
}

// SimulationConfig holds defaults for simulate, compare and optimize.
type SimulationConfig struct {
	Hands   int   `hcl:"hands,optional"`
	Trials  int   `hcl:"trials,optional"`
	Workers int   `hcl:"workers,optional"`
	Seed    int64 `hcl:"seed,optional"`
	// Database where finished runs are saved; empty disables saving.
	Database string `hcl:"database,optional"`
}

// StrategyConfig names a strategy from a preset or a JSON/YAML file.
type StrategyConfig struct {
	Name   string `hcl:"name,label"`
	Preset string `hcl:"preset,optional"`
	File   string `hcl:"file,optional"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address     string   `hcl:"address,optional"`
	Port        int      `hcl:"port,optional"`
	LogLevel    string   `hcl:"log_level,optional"`
	SessionTTL  string   `hcl:"session_ttl,optional"`
	CORSOrigins []string `hcl:"cors_origins,optional"`
	Database    string   `hcl:"database,optional"`
}

const (
	DefaultHands      = 10000
	DefaultTrials     = 1
	DefaultAddress    = "localhost"
	DefaultPort       = 8080
	DefaultLogLevel   = "info"
	DefaultSessionTTL = "30m"
)

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads an HCL run configuration. A missing file yields the defaults.
func Load(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(src, filename)
}

// Parse decodes HCL source; filename is only used in diagnostics.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %s", diags.Error())
	}
	var config Config
	if diags := gohcl.DecodeBody(file.Body, nil, &config); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Table == nil {
		c.Table = &TableConfig{}
	}
	if c.Simulation == nil {
		c.Simulation = &SimulationConfig{}
	}
	if c.Simulation.Hands == 0 {
		c.Simulation.Hands = DefaultHands
	}
	if c.Simulation.Trials == 0 {
		c.Simulation.Trials = DefaultTrials
	}
	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = DefaultLogLevel
	}
	if c.Server.SessionTTL == "" {
		c.Server.SessionTTL = DefaultSessionTTL
	}
	for i := range c.Strategies {
		if c.Strategies[i].Preset == "" && c.Strategies[i].File == "" {
			c.Strategies[i].Preset = c.Strategies[i].Name
		}
	}
}

// Rules returns the default table rules with the table block applied.
func (c *Config) Rules() game.Rules {
	r := game.DefaultRules()
	if c.Table == nil {
		return r
	}
	t := c.Table
	if t.MinBet != nil {
		r.MinBet = *t.MinBet
	}
	if t.MaxBet != nil {
		r.MaxBet = *t.MaxBet
	}
	if t.Decks != nil {
		r.NumDecks = *t.Decks
	}
	if t.ShuffleThreshold != nil {
		r.ShuffleThreshold = *t.ShuffleThreshold
	}
	if t.Bankroll != nil {
		r.StartingBankroll = *t.Bankroll
	}
	if t.HitSoft17 != nil {
		r.HitSoft17 = *t.HitSoft17
	}
	return r
}

// Strategy resolves the named strategy block, falling back to a preset or
// file reference when no block has that name.
func (c *Config) Strategy(name string) (strategy.Config, error) {
	for _, s := range c.Strategies {
		if s.Name != name {
			continue
		}
		var (
			cfg strategy.Config
			err error
		)
		if s.File != "" {
			cfg, err = strategy.LoadFile(s.File)
		} else {
			cfg, err = strategy.Preset(s.Preset)
		}
		if err != nil {
			return strategy.Config{}, fmt.Errorf("strategy %s: %w", name, err)
		}
		cfg.Name = s.Name
		return cfg, nil
	}
	return strategy.Resolve(name)
}

// StrategyNames returns the names of the configured strategy blocks, sorted.
func (c *Config) StrategyNames() []string {
	names := make([]string, 0, len(c.Strategies))
	for _, s := range c.Strategies {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

// SessionTTL parses the configured session idle timeout.
func (c *Config) SessionTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.Server.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid session_ttl %q: %w", c.Server.SessionTTL, err)
	}
	return d, nil
}

// ServerAddress returns the host:port the API listens on.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.Rules().Validate(); err != nil {
		return fmt.Errorf("table: %w", err)
	}
	if c.Simulation.Hands <= 0 {
		return fmt.Errorf("simulation: hands must be positive, got %d", c.Simulation.Hands)
	}
	if c.Simulation.Trials <= 0 {
		return fmt.Errorf("simulation: trials must be positive, got %d", c.Simulation.Trials)
	}
	if c.Simulation.Workers < 0 {
		return fmt.Errorf("simulation: workers cannot be negative, got %d", c.Simulation.Workers)
	}

	seen := make(map[string]bool)
	for _, s := range c.Strategies {
		if seen[s.Name] {
			return fmt.Errorf("strategy %s: defined more than once", s.Name)
		}
		seen[s.Name] = true
		if s.Preset != "" && s.File != "" {
			return fmt.Errorf("strategy %s: set either preset or file, not both", s.Name)
		}
		if s.Preset != "" {
			if _, err := strategy.Preset(s.Preset); err != nil {
				return fmt.Errorf("strategy %s: %w", s.Name, err)
			}
		}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := c.SessionTTL(); err != nil {
		return err
	}
	return nil
}
