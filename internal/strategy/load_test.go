package strategy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dadJSON = `{
  "name": "dad",
  "counting": {
    "card_values": {"TWO": 0, "THREE": 3, "FOUR": 4, "FIVE": 5, "SIX": 3, "SEVEN": 0,
                    "EIGHT": -1, "NINE": -2, "TEN": -3, "JACK": -3, "QUEEN": -3, "KING": -3, "ACE": -3},
    "ace_adjustment": 4
  },
  "betting": {"system": "count", "count_threshold": 5, "count_increment": 5, "max_bet_units": 20, "ramp": "absolute"},
  "deviations": {
    "16_vs_10_stand": {"player_total": 16, "dealer_card": 10, "action": "STAND", "count_threshold": 0, "comparison": "greater"}
  },
  "insurance": {"ace_excess_threshold": 1.0}
}`

const hiLoYAML = `
description: hand written Hi-Lo
counting:
  ace_adjustment: 0
betting:
  system: count
  count_threshold: 1
  count_increment: 1
  max_bet_units: 12
deviations:
  16_vs_10_stand:
    player_total: 16
    dealer_card: 10
    action: STAND
    count_threshold: 0
    comparison: greater_equal
insurance:
  ace_excess_threshold: 0
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFile(writeFile(t, "dad.json", dadJSON))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "dad", cfg.Name)
	assert.Equal(t, 5, cfg.Counting.CardValues["FIVE"])
	assert.Equal(t, 4.0, cfg.Counting.AceAdjustment)
	assert.Equal(t, RampAbsolute, cfg.Betting.Ramp)
	assert.Equal(t, MustPreset("dad").Betting, cfg.Betting)
	assert.Equal(t, MustPreset("dad").Counting, cfg.Counting)
}

func TestLoadYAMLNamesFromFile(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFile(writeFile(t, "my-hilo.yaml", hiLoYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "my-hilo", cfg.Name)
	assert.Equal(t, 12, cfg.Betting.MaxBetUnits)
	assert.Equal(t, GreaterEqual, cfg.Deviations["16_vs_10_stand"].Comparison)
	assert.Empty(t, cfg.Counting.CardValues, "falls back to Hi-Lo")
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(writeFile(t, "typo.json", `{"name": "x", "betting": {"max_units": 4}}`))
	assert.Error(t, err)

	_, err = LoadFile(writeFile(t, "typo.yaml", "name: x\nbeting:\n  max_bet_units: 4\n"))
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSaveAndResolve(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "optimized.yaml")
	require.NoError(t, SaveFile(path, MustPreset("optimized")))

	cfg, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, MustPreset("optimized"), cfg)

	cfg, err = Resolve("hilo")
	require.NoError(t, err)
	assert.Equal(t, "hilo", cfg.Name)

	_, err = Resolve("nope")
	assert.Error(t, err)
}
