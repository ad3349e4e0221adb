package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/lox/blackjacksim/internal/results"
	"github.com/lox/blackjacksim/internal/simulator"
	"github.com/lox/blackjacksim/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *simulator.Result {
	return &simulator.Result{
		Strategy:         "hilo",
		Seed:             42,
		Hands:            100,
		PlayerHands:      103,
		Wins:             45,
		Losses:           50,
		Pushes:           8,
		StartingBankroll: 1000,
		EndingBankroll:   940,
		ProfitLoss:       -60,
		TotalWagered:     2000,
		ROI:              -0.03,
		BetDistribution:  map[int]int{1: 80, 4: 20},
		ElapsedSeconds:   1.5,
	}
}

func TestResultPlain(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	New(&buf, false).Result(sampleResult())
	out := buf.String()

	assert.NotContains(t, out, "\x1b[", "no escape codes without color")
	assert.Contains(t, out, "hilo")
	assert.Contains(t, out, "-3.000%")
	assert.Contains(t, out, "$1000 -> $940 (-$60)")
	assert.Contains(t, out, "seed 42")
	assert.Contains(t, out, "80.0%")
	assert.NotContains(t, out, "bust out")
}

func TestComparison(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	New(&buf, false).Comparison([]*simulator.TrialSummary{
		{Strategy: "dad", Trials: 2, AvgROI: 0.01, AvgFinalBankroll: 1100},
		{Strategy: "basic", Trials: 2, AvgROI: -0.005, AvgFinalBankroll: 990, BustRate: 0.5},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "1"))
	assert.Contains(t, lines[1], "dad")
	assert.Contains(t, lines[2], "50.0%")
}

func TestCandidates(t *testing.T) {
	t.Parallel()

	cfg := strategy.MustPreset("dad")
	cfg.Name = "dad-0001"
	candidates := []simulator.Candidate{
		{Rank: 1, Config: cfg, Summary: &simulator.TrialSummary{Strategy: cfg.Name, AvgROI: 0.02}},
		{Rank: 2, Config: cfg, Summary: &simulator.TrialSummary{Strategy: cfg.Name, AvgROI: 0.01}},
	}

	var buf bytes.Buffer
	New(&buf, false).Candidates(candidates, 1)
	assert.Contains(t, buf.String(), "1. dad-0001")
	assert.Equal(t, 1, strings.Count(buf.String(), "dad-0001"))
	assert.Contains(t, buf.String(), "A=")

	buf.Reset()
	require.NoError(t, CandidatesCSV(&buf, candidates))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "rank", records[0][0])
	assert.Equal(t, "TWO", records[0][2])
	assert.Equal(t, "0.02", records[1][len(records[1])-4])
}

func TestRuns(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := New(&buf, false)
	p.Runs(nil)
	assert.Contains(t, buf.String(), "no stored runs")

	buf.Reset()
	p.Runs([]results.Run{{
		ID:        "abc",
		Name:      "hilo",
		Result:    sampleResult(),
		Trials:    &simulator.TrialSummary{Trials: 3},
		CreatedAt: time.Now(),
	}})
	assert.Contains(t, buf.String(), "abc")
	assert.Contains(t, buf.String(), "hilo x3")
}

func TestStrategies(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := New(&buf, false)
	p.Strategies([]strategy.Config{strategy.MustPreset("basic"), strategy.MustPreset("hilo")})
	assert.Contains(t, buf.String(), "basic")
	assert.Contains(t, buf.String(), "flat")

	buf.Reset()
	p.Strategy(strategy.MustPreset("hilo"))
	out := buf.String()
	assert.Contains(t, out, "card values")
	assert.Contains(t, out, "deviation")
}
