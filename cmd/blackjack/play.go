package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lox/blackjacksim/internal/session"
	"github.com/lox/blackjacksim/internal/strategy"
	"github.com/lox/blackjacksim/internal/tui"
)

// PlayCmd plays an interactive game in the terminal.
type PlayCmd struct {
	TableFlags `embed:""`

	Strategy string `default:"basic" help:"Strategy used by the auto command"`
	Hints    bool   `help:"Show advice for every decision"`
	Seed     int64  `help:"Shuffle seed (random when zero)"`
}

func (c *PlayCmd) Run(g *Globals) error {
	logger := g.logger()
	cfg, err := g.config()
	if err != nil {
		return err
	}
	rules, err := c.TableFlags.apply(cfg.Rules())
	if err != nil {
		return err
	}

	sess, err := session.NewStore(session.Config{Seed: c.Seed, Logger: logger}).Create(rules)
	if err != nil {
		return err
	}

	opts := []tui.Option{tui.WithLogger(logger), tui.WithHints(c.Hints)}
	if c.Strategy != "basic" {
		s, err := cfg.Strategy(c.Strategy)
		if err != nil {
			return err
		}
		opts = append(opts, tui.WithStrategy(strategy.New(s, rules.NumDecks, logger)))
	}

	program := tea.NewProgram(tui.New(sess, opts...), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
