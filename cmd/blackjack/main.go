package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/lox/blackjacksim/internal/config"
	"github.com/lox/blackjacksim/internal/game"
	"github.com/lox/blackjacksim/internal/report"
	"github.com/muesli/termenv"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command.
type Globals struct {
	RunConfig string `name:"run-config" default:"blackjack.hcl" type:"path" help:"HCL run configuration (defaults when missing)"`
	Verbose   bool   `short:"v" help:"Verbose logging"`
	NoColor   bool   `name:"no-color" help:"Disable colored output"`
}

type CLI struct {
	Globals

	Version    kong.VersionFlag `help:"Show version"`
	Simulate   SimulateCmd      `cmd:"" help:"Simulate a strategy"`
	Compare    CompareCmd       `cmd:"" help:"Compare strategies over the same seeds"`
	Optimize   OptimizeCmd      `cmd:"" help:"Grid search counting parameters"`
	Strategies StrategiesCmd    `cmd:"" help:"List or show strategies"`
	Runs       RunsCmd          `cmd:"" help:"List or show saved simulation runs"`
	Serve      ServeCmd         `cmd:"" help:"Run the HTTP API"`
	Play       PlayCmd          `cmd:"" help:"Play interactively in the terminal"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("blackjack"),
		kong.Description("Blackjack card counting simulator"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
		kong.Bind(&cli.Globals),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

func (g *Globals) logger() *log.Logger {
	level := log.WarnLevel
	if g.Verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: g.Verbose,
	})
}

// config loads and validates the run configuration.
func (g *Globals) config() (*config.Config, error) {
	cfg, err := config.Load(g.RunConfig)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", g.RunConfig, err)
	}
	return cfg, nil
}

func (g *Globals) printer() *report.Printer {
	color := !g.NoColor && termenv.NewOutput(os.Stdout).ColorProfile() != termenv.Ascii
	return report.New(os.Stdout, color)
}

// signalContext is cancelled on interrupt.
func signalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		waitForSignal(ctx, cancel, sigChan, logger)
	}()
	return ctx, cancel
}

// waitForSignal cancels on the first signal. It returns quietly when ctx ends
// first.
func waitForSignal(ctx context.Context, cancel context.CancelFunc, sigChan <-chan os.Signal, logger *log.Logger) {
	select {
	case sig := <-sigChan:
		logger.Debug("Received signal, shutting down", "signal", sig)
		cancel()
	case <-ctx.Done():
	}
}

// TableFlags override the run configuration's table rules.
type TableFlags struct {
	Decks       *int     `help:"Number of decks in the shoe"`
	Penetration *float64 `help:"Fraction of the shoe dealt before reshuffling"`
	MinBet      *int     `name:"min-bet" help:"Table minimum bet"`
	MaxBet      *int     `name:"max-bet" help:"Table maximum bet"`
	Bankroll    *int     `help:"Starting bankroll"`
	HitSoft17   *bool    `name:"h17" help:"Dealer hits soft 17"`
}

// apply overlays the flags on rules and validates the result.
func (f TableFlags) apply(rules game.Rules) (game.Rules, error) {
	if f.Decks != nil {
		rules.NumDecks = *f.Decks
	}
	if f.Penetration != nil {
		p := *f.Penetration
		if p <= 0 || p > 1 {
			return rules, fmt.Errorf("penetration must be in (0, 1], got %g", p)
		}
		rules.ShuffleThreshold = 1 - p
	}
	if f.MinBet != nil {
		rules.MinBet = *f.MinBet
	}
	if f.MaxBet != nil {
		rules.MaxBet = *f.MaxBet
	}
	if f.Bankroll != nil {
		rules.StartingBankroll = *f.Bankroll
	}
	if f.HitSoft17 != nil {
		rules.HitSoft17 = *f.HitSoft17
	}
	return rules, rules.Validate()
}
