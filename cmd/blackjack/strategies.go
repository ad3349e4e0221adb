package main

import (
	"context"
	"fmt"

	"github.com/lox/blackjacksim/internal/results"
	"github.com/lox/blackjacksim/internal/strategy"
)

// StrategiesCmd lists and inspects strategies.
type StrategiesCmd struct {
	List StrategiesListCmd `cmd:"" default:"1" help:"List presets and configured strategies"`
	Show StrategiesShowCmd `cmd:"" help:"Show a strategy configuration"`
}

type StrategiesListCmd struct{}

func (c *StrategiesListCmd) Run(g *Globals) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}

	var cfgs []strategy.Config
	seen := make(map[string]bool)
	for _, name := range append(strategy.PresetNames(), cfg.StrategyNames()...) {
		if seen[name] {
			continue
		}
		seen[name] = true
		s, err := cfg.Strategy(name)
		if err != nil {
			return err
		}
		cfgs = append(cfgs, s)
	}
	g.printer().Strategies(cfgs)
	return nil
}

type StrategiesShowCmd struct {
	Name   string `arg:"" help:"Preset, run config strategy or JSON/YAML file"`
	Output string `short:"o" type:"path" help:"Export the configuration to a JSON or YAML file"`
}

func (c *StrategiesShowCmd) Run(g *Globals) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}
	s, err := cfg.Strategy(c.Name)
	if err != nil {
		return err
	}
	if c.Output != "" {
		return strategy.SaveFile(c.Output, s)
	}
	g.printer().Strategy(s)
	return nil
}

// RunsCmd inspects simulation runs saved with --save.
type RunsCmd struct {
	List   RunsListCmd   `cmd:"" default:"1" help:"List saved runs, newest first"`
	Show   RunsShowCmd   `cmd:"" help:"Show a saved run"`
	Delete RunsDeleteCmd `cmd:"" help:"Delete a saved run"`
}

// DBFlag names the results database.
type DBFlag struct {
	Database string `name:"db" type:"path" help:"SQLite results database (run config database or blackjack.db)"`
}

// open opens the results database named by --db or the run configuration.
func (f DBFlag) open(g *Globals) (*results.Store, error) {
	path := f.Database
	if path == "" {
		cfg, err := g.config()
		if err != nil {
			return nil, err
		}
		path = cfg.Simulation.Database
	}
	if path == "" {
		path = "blackjack.db"
	}
	return results.Open(path, results.WithLogger(g.logger()))
}

type RunsListCmd struct {
	DBFlag `embed:""`

	Limit int `default:"20" help:"Maximum runs to list"`
}

func (c *RunsListCmd) Run(g *Globals) error {
	store, err := c.open(g)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(context.Background(), c.Limit)
	if err != nil {
		return err
	}
	g.printer().Runs(runs)
	return nil
}

type RunsShowCmd struct {
	DBFlag `embed:""`

	ID string `arg:"" help:"Run id"`
}

func (c *RunsShowCmd) Run(g *Globals) error {
	store, err := c.open(g)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Get(context.Background(), c.ID)
	if err != nil {
		return fmt.Errorf("run %s: %w", c.ID, err)
	}
	p := g.printer()
	if run.Trials != nil {
		p.Trials(run.Trials)
		return nil
	}
	p.Result(run.Result)
	return nil
}

type RunsDeleteCmd struct {
	DBFlag `embed:""`

	ID string `arg:"" help:"Run id"`
}

func (c *RunsDeleteCmd) Run(g *Globals) error {
	store, err := c.open(g)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(context.Background(), c.ID); err != nil {
		return fmt.Errorf("run %s: %w", c.ID, err)
	}
	fmt.Printf("Deleted run %s\n", c.ID)
	return nil
}
