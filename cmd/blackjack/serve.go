package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjacksim/internal/results"
	"github.com/lox/blackjacksim/internal/server"
	"github.com/lox/blackjacksim/internal/session"
	"github.com/lox/blackjacksim/internal/strategy"
)

// ServeCmd runs the HTTP API.
type ServeCmd struct {
	TableFlags `embed:""`

	Addr     string        `help:"Listen address (run config server address and port)"`
	LogLevel string        `name:"log-level" help:"Log level: debug, info, warn or error (run config log_level)"`
	Database string        `name:"db" type:"path" help:"SQLite database for simulation runs"`
	Workers  int           `help:"Concurrent trials per simulation request"`
	Seed     int64         `help:"Seed for new game sessions (random when zero)"`
	Sweep    time.Duration `default:"1m" help:"How often idle sessions are expired"`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}

	level := cfg.Server.LogLevel
	if c.LogLevel != "" {
		level = c.LogLevel
	}
	if g.Verbose {
		level = "debug"
	}
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
	})

	rules, err := c.TableFlags.apply(cfg.Rules())
	if err != nil {
		return err
	}
	ttl, err := cfg.SessionTTL()
	if err != nil {
		return err
	}

	strategies := make(map[string]strategy.Config)
	for _, name := range cfg.StrategyNames() {
		s, err := cfg.Strategy(name)
		if err != nil {
			return err
		}
		strategies[name] = s
	}

	var runs *results.Store
	db := cfg.Server.Database
	if c.Database != "" {
		db = c.Database
	}
	if db != "" {
		if runs, err = results.Open(db, results.WithLogger(logger)); err != nil {
			return err
		}
		defer runs.Close()
	}

	workers := cfg.Simulation.Workers
	if c.Workers != 0 {
		workers = c.Workers
	}

	srv := server.New(server.Config{
		Rules:       rules,
		Sessions:    session.NewStore(session.Config{TTL: ttl, Seed: c.Seed, Logger: logger}),
		Runs:        runs,
		Strategies:  strategies,
		CORSOrigins: cfg.Server.CORSOrigins,
		Workers:     workers,
		Logger:      logger,
	})

	addr := cfg.ServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}
	logger.Info("Starting blackjack API",
		"address", addr,
		"decks", rules.NumDecks,
		"min_bet", rules.MinBet,
		"max_bet", rules.MaxBet,
		"session_ttl", ttl,
		"database", db,
	)

	ctx, cancel := signalContext(logger)
	defer cancel()
	return srv.ListenAndServe(ctx, addr, c.Sweep)
}
