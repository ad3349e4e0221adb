package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lox/blackjacksim/internal/game"
	"github.com/lox/blackjacksim/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
table {
  min_bet           = 25
  max_bet           = 500
  decks             = 2
  shuffle_threshold = 0
  hit_soft_17       = true
}

simulation {
  hands    = 5000
  trials   = 4
  workers  = 2
  seed     = 99
  database = "runs.db"
}

strategy "counter" {
  preset = "hilo"
}

strategy "dad" {}

server {
  port         = 9090
  session_ttl  = "10m"
  cors_origins = ["http://localhost:3000"]
}
`

func TestParse(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(sample), "run.hcl")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	rules := cfg.Rules()
	assert.Equal(t, 25, rules.MinBet)
	assert.Equal(t, 500, rules.MaxBet)
	assert.Equal(t, 2, rules.NumDecks)
	assert.Zero(t, rules.ShuffleThreshold, "explicit zero is kept")
	assert.Equal(t, game.DefaultRules().StartingBankroll, rules.StartingBankroll)
	assert.True(t, rules.HitSoft17)

	assert.Equal(t, 5000, cfg.Simulation.Hands)
	assert.Equal(t, 4, cfg.Simulation.Trials)
	assert.Equal(t, 2, cfg.Simulation.Workers)
	assert.Equal(t, int64(99), cfg.Simulation.Seed)
	assert.Equal(t, "runs.db", cfg.Simulation.Database)

	assert.Equal(t, []string{"counter", "dad"}, cfg.StrategyNames())
	assert.Equal(t, "dad", cfg.Strategies[1].Preset, "label doubles as preset")

	assert.Equal(t, "localhost:9090", cfg.ServerAddress())
	ttl, err := cfg.SessionTTL()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, ttl)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, DefaultLogLevel, cfg.Server.LogLevel)
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, game.DefaultRules(), cfg.Rules())
	assert.Equal(t, DefaultHands, cfg.Simulation.Hands)
	assert.Equal(t, DefaultTrials, cfg.Simulation.Trials)
	assert.Equal(t, "localhost:8080", cfg.ServerAddress())
	ttl, err := cfg.SessionTTL()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, ttl)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.hcl")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Rules().MinBet)
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`table {`), "bad.hcl")
	assert.Error(t, err)

	_, err = Parse([]byte(`table { min_bet = "ten" }`), "bad.hcl")
	assert.Error(t, err)

	_, err = Parse([]byte(`unknown { }`), "bad.hcl")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"rules":         `table { min_bet = 0 }`,
		"trials":        `simulation { trials = -1 }`,
		"workers":       `simulation { workers = -2 }`,
		"preset":        `strategy "x" { preset = "nope" }`,
		"both":          "strategy \"x\" {\npreset = \"hilo\"\nfile = \"x.json\"\n}",
		"duplicate":     "strategy \"a\" {}\nstrategy \"a\" {}",
		"port":          `server { port = 70000 }`,
		"session ttl":   `server { session_ttl = "soon" }`,
		"max below min": "table {\nmin_bet = 100\nmax_bet = 50\n}",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			cfg, err := Parse([]byte(src), name+".hcl")
			require.NoError(t, err)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestStrategyLookup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "mine.yaml")
	mine := strategy.MustPreset("conservative")
	mine.Name = "ignored"
	require.NoError(t, strategy.SaveFile(file, mine))

	src := `
strategy "counter" {
  preset = "hilo"
}
strategy "mine" {
  file = "` + file + `"
}
`
	cfg, err := Parse([]byte(src), "run.hcl")
	require.NoError(t, err)

	counter, err := cfg.Strategy("counter")
	require.NoError(t, err)
	assert.Equal(t, "counter", counter.Name)
	assert.Equal(t, strategy.MustPreset("hilo").Betting, counter.Betting)

	loaded, err := cfg.Strategy("mine")
	require.NoError(t, err)
	assert.Equal(t, "mine", loaded.Name)
	assert.Equal(t, mine.Betting, loaded.Betting)

	preset, err := cfg.Strategy("aggressive")
	require.NoError(t, err, "unknown names fall back to presets")
	assert.Equal(t, "aggressive", preset.Name)

	_, err = cfg.Strategy("nothing")
	assert.Error(t, err)
}
