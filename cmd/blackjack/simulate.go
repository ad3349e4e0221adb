package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjacksim/internal/config"
	"github.com/lox/blackjacksim/internal/fileutil"
	"github.com/lox/blackjacksim/internal/report"
	"github.com/lox/blackjacksim/internal/results"
	"github.com/lox/blackjacksim/internal/simulator"
	"github.com/lox/blackjacksim/internal/strategy"
	"gopkg.in/yaml.v3"
)

// RunFlags are the simulation parameters shared by simulate, compare and
// optimize. Zero values fall back to the run configuration.
type RunFlags struct {
	Hands    int    `help:"Hands per trial"`
	Trials   int    `help:"Number of trials, seeded seed, seed+1, ..."`
	Workers  int    `help:"Concurrent simulations (default one per trial, capped at 8)"`
	Seed     *int64 `help:"RNG seed (random when unset)"`
	Progress bool   `help:"Show progress on stderr"`
}

// simulation builds the simulator configuration from the flags and the run
// configuration.
func (f RunFlags) simulation(cfg *config.Config, table TableFlags, logger *log.Logger) (simulator.Config, int, int, error) {
	rules, err := table.apply(cfg.Rules())
	if err != nil {
		return simulator.Config{}, 0, 0, err
	}

	hands := cfg.Simulation.Hands
	if f.Hands != 0 {
		hands = f.Hands
	}
	if hands <= 0 {
		return simulator.Config{}, 0, 0, fmt.Errorf("hands must be positive, got %d", hands)
	}
	trials := cfg.Simulation.Trials
	if f.Trials != 0 {
		trials = f.Trials
	}
	if trials <= 0 {
		return simulator.Config{}, 0, 0, fmt.Errorf("trials must be positive, got %d", trials)
	}
	workers := cfg.Simulation.Workers
	if f.Workers != 0 {
		workers = f.Workers
	}
	if workers <= 0 {
		workers = min(trials, 8)
	}

	seed := cfg.Simulation.Seed
	if f.Seed != nil {
		seed = *f.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
		logger.Info("Using random seed", "seed", seed)
	}

	return simulator.Config{
		Rules:  rules,
		Hands:  hands,
		Seed:   seed,
		Logger: logger,
	}, trials, workers, nil
}

// SimulateCmd runs one strategy.
type SimulateCmd struct {
	TableFlags `embed:""`
	RunFlags   `embed:""`

	Strategy string `arg:"" optional:"" default:"basic" help:"Preset, run config strategy or JSON/YAML file"`
	Config   string `type:"existingfile" help:"Strategy configuration file (JSON or YAML)"`
	Name     string `help:"Name for the saved run"`
	Output   string `short:"o" type:"path" help:"Write the result to a JSON or YAML file"`
	Save     string `type:"path" help:"Save the run to this SQLite database"`
}

func (c *SimulateCmd) Run(g *Globals) error {
	logger := g.logger()
	cfg, err := g.config()
	if err != nil {
		return err
	}

	var strat strategy.Config
	if c.Config != "" {
		strat, err = strategy.LoadFile(c.Config)
	} else {
		strat, err = cfg.Strategy(c.Strategy)
	}
	if err != nil {
		return err
	}

	simCfg, trials, workers, err := c.RunFlags.simulation(cfg, c.TableFlags, logger)
	if err != nil {
		return err
	}
	if c.Progress {
		label := fmt.Sprintf("Simulating %s", strat.Name)
		simCfg.Progress = newProgressMonitor(os.Stderr, label).update
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	logger.Debug("Running simulation", "strategy", strat.Name, "hands", simCfg.Hands, "trials", trials, "seed", simCfg.Seed)

	run := results.Run{Name: c.Name, Strategy: strat, Rules: simCfg.Rules}
	p := g.printer()
	if trials == 1 {
		run.Result, err = simulator.RunSimulation(ctx, simCfg, strat)
		if err != nil {
			return err
		}
		p.Result(run.Result)
	} else {
		run.Trials, err = simulator.RunTrials(ctx, simCfg, strat, trials, workers)
		if err != nil {
			return err
		}
		run.Result = run.Trials.Results[0]
		p.Trials(run.Trials)
	}

	if c.Output != "" {
		var out any = run.Result
		if run.Trials != nil {
			out = run.Trials
		}
		if err := fileutil.WriteStructured(c.Output, out); err != nil {
			return fmt.Errorf("failed to write %s: %w", c.Output, err)
		}
	}

	db := cfg.Simulation.Database
	if c.Save != "" {
		db = c.Save
	}
	if db == "" {
		return nil
	}
	saved, err := saveRun(ctx, db, run, logger)
	if err != nil {
		return err
	}
	fmt.Printf("Saved run %s\n", saved.ID)
	return nil
}

func saveRun(ctx context.Context, path string, run results.Run, logger *log.Logger) (results.Run, error) {
	store, err := results.Open(path, results.WithLogger(logger))
	if err != nil {
		return results.Run{}, err
	}
	defer store.Close()
	return store.Save(ctx, run)
}

// CompareCmd runs several strategies over the same seeds.
type CompareCmd struct {
	TableFlags `embed:""`
	RunFlags   `embed:""`

	Strategies []string `arg:"" optional:"" help:"Strategies to compare (default every preset and configured strategy)"`
	Output     string   `short:"o" type:"path" help:"Write the summaries to a JSON or YAML file"`
}

func (c *CompareCmd) Run(g *Globals) error {
	logger := g.logger()
	cfg, err := g.config()
	if err != nil {
		return err
	}

	names := c.Strategies
	if len(names) == 0 {
		names = append(strategy.PresetNames(), cfg.StrategyNames()...)
	}
	configs := make(map[string]strategy.Config, len(names))
	for _, name := range names {
		s, err := cfg.Strategy(name)
		if err != nil {
			return err
		}
		configs[s.Name] = s
	}

	simCfg, trials, workers, err := c.RunFlags.simulation(cfg, c.TableFlags, logger)
	if err != nil {
		return err
	}
	if c.Progress {
		simCfg.Progress = newProgressMonitor(os.Stderr, fmt.Sprintf("Comparing %d strategies", len(configs))).update
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	summaries, err := simulator.Compare(ctx, simCfg, configs, trials, workers)
	if err != nil {
		return err
	}
	g.printer().Comparison(summaries)

	if c.Output != "" {
		if err := fileutil.WriteStructured(c.Output, summaries); err != nil {
			return fmt.Errorf("failed to write %s: %w", c.Output, err)
		}
	}
	return nil
}

// OptimizeCmd grid searches counting parameters around a base strategy.
type OptimizeCmd struct {
	TableFlags `embed:""`
	RunFlags   `embed:""`

	Base   string `arg:"" optional:"" default:"dad" help:"Strategy to vary"`
	Grid   string `type:"existingfile" help:"JSON or YAML search grid (default grid when unset)"`
	Top    int    `default:"10" help:"Candidates to print"`
	CSV    string `name:"csv" type:"path" help:"Write every candidate to a CSV file"`
	Output string `short:"o" type:"path" help:"Write the best configuration to a JSON or YAML file"`
}

func (c *OptimizeCmd) Run(g *Globals) error {
	logger := g.logger()
	cfg, err := g.config()
	if err != nil {
		return err
	}
	base, err := cfg.Strategy(c.Base)
	if err != nil {
		return err
	}

	grid := simulator.DefaultGrid()
	if c.Grid != "" {
		if grid, err = loadGrid(c.Grid); err != nil {
			return err
		}
	}
	if err := grid.Validate(); err != nil {
		return err
	}

	simCfg, trials, workers, err := c.RunFlags.simulation(cfg, c.TableFlags, logger)
	if err != nil {
		return err
	}
	if c.Workers == 0 && cfg.Simulation.Workers == 0 {
		workers = 8
	}
	if c.Progress {
		simCfg.Progress = newProgressMonitor(os.Stderr, fmt.Sprintf("Searching %d configurations", grid.Size())).update
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	logger.Info("Optimizing", "base", base.Name, "configurations", grid.Size(), "trials", trials, "hands", simCfg.Hands)
	candidates, err := simulator.Optimize(ctx, simCfg, base, grid, trials, workers)
	if err != nil {
		return err
	}
	g.printer().Candidates(candidates, c.Top)

	if c.CSV != "" {
		var buf bytes.Buffer
		if err := report.CandidatesCSV(&buf, candidates); err != nil {
			return err
		}
		if err := fileutil.WriteFileAtomic(c.CSV, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", c.CSV, err)
		}
	}
	if c.Output != "" && len(candidates) > 0 {
		if err := strategy.SaveFile(c.Output, candidates[0].Config); err != nil {
			return err
		}
	}
	return nil
}

func loadGrid(path string) (simulator.Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return simulator.Grid{}, fmt.Errorf("failed to read grid: %w", err)
	}
	var grid simulator.Grid
	switch fileutil.FormatFor(path) {
	case fileutil.YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&grid)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&grid)
	}
	if err != nil {
		return simulator.Grid{}, fmt.Errorf("%s: %w", path, err)
	}
	return grid, nil
}
