package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjacksim/internal/config"
	"github.com/lox/blackjacksim/internal/game"
)

func TestTableFlagsApply(t *testing.T) {
	decks, pen, minBet := 2, 0.8, 25
	h17 := true
	rules, err := TableFlags{Decks: &decks, Penetration: &pen, MinBet: &minBet, HitSoft17: &h17}.apply(game.DefaultRules())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if rules.NumDecks != 2 || rules.MinBet != 25 || !rules.HitSoft17 {
		t.Fatalf("flags not applied: %+v", rules)
	}
	if d := rules.ShuffleThreshold - 0.2; d > 1e-9 || d < -1e-9 {
		t.Fatalf("penetration 0.8 should shuffle at 0.2 remaining, got %g", rules.ShuffleThreshold)
	}

	bad := 0.0
	if _, err := (TableFlags{Penetration: &bad}).apply(game.DefaultRules()); err == nil {
		t.Fatalf("expected error for zero penetration")
	}
	maxBet := 5
	if _, err := (TableFlags{MaxBet: &maxBet}).apply(game.DefaultRules()); err == nil {
		t.Fatalf("expected error for max bet below min bet")
	}
}

func TestRunFlagsSimulation(t *testing.T) {
	cfg, err := config.Parse([]byte("simulation {\n  hands = 500\n  trials = 4\n  seed = 9\n}\n"), "test.hcl")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	g := &Globals{}

	simCfg, trials, workers, err := RunFlags{}.simulation(cfg, TableFlags{}, g.logger())
	if err != nil {
		t.Fatalf("simulation: %v", err)
	}
	if simCfg.Hands != 500 || simCfg.Seed != 9 || trials != 4 || workers != 4 {
		t.Fatalf("run config defaults not used: hands=%d seed=%d trials=%d workers=%d", simCfg.Hands, simCfg.Seed, trials, workers)
	}

	seed := int64(3)
	simCfg, trials, _, err = RunFlags{Hands: 100, Trials: 1, Seed: &seed}.simulation(cfg, TableFlags{}, g.logger())
	if err != nil {
		t.Fatalf("simulation: %v", err)
	}
	if simCfg.Hands != 100 || simCfg.Seed != 3 || trials != 1 {
		t.Fatalf("flags should override run config: hands=%d seed=%d trials=%d", simCfg.Hands, simCfg.Seed, trials)
	}

	if _, _, _, err := (RunFlags{Hands: -1}).simulation(cfg, TableFlags{}, g.logger()); err == nil {
		t.Fatalf("expected error for negative hands")
	}
}

func TestProgressMonitor(t *testing.T) {
	var buf bytes.Buffer
	m := newProgressMonitor(&buf, "Simulating")
	for done := 1; done <= 200; done++ {
		m.update(done, 200)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "Simulating: ") {
		t.Fatalf("missing label: %q", out)
	}
	if got := strings.Count(out, "."); got != 40 {
		t.Fatalf("want 40 dots, got %d", got)
	}
	if !strings.Contains(out, " 200 in ") {
		t.Fatalf("missing completion line: %q", out)
	}
}

func TestLoadGrid(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "grid.yaml")
	if err := os.WriteFile(yamlPath, []byte("card_values:\n  FIVE: [4, 5]\nace_adjustments: [3]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	grid, err := loadGrid(yamlPath)
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if grid.Size() != 2 {
		t.Fatalf("want 2 configurations, got %d", grid.Size())
	}

	jsonPath := filepath.Join(dir, "grid.json")
	if err := os.WriteFile(jsonPath, []byte(`{"count_thresholds": [2, 4], "bogus": 1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadGrid(jsonPath); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestWaitForSignal(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	waitForSignal(ctx, cancel, make(chan os.Signal), logger)
	if buf.Len() != 0 {
		t.Fatalf("normal cancel should not log, got %q", buf.String())
	}

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	sigChan <- syscall.SIGTERM
	waitForSignal(ctx, cancel, sigChan, logger)
	if ctx.Err() == nil {
		t.Fatalf("signal should cancel the context")
	}
	if !strings.Contains(buf.String(), "Received signal") {
		t.Fatalf("signal should be logged, got %q", buf.String())
	}
}
