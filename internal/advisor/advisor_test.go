package advisor

import (
	"encoding/json"
	"io"
	"math/rand"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjacksim/internal/deck"
	"github.com/lox/blackjacksim/internal/game"
	"github.com/lox/blackjacksim/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hand(cards string) *game.Hand {
	return game.NewHand(deck.MustParseCards(cards)...)
}

func card(s string) deck.Card {
	return deck.MustParseCards(s)[0]
}

func newGame(t *testing.T, cards string) *game.Game {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	rules := game.DefaultRules()
	rules.NumDecks = 1
	rules.ShuffleThreshold = 0

	shoe, err := deck.NewStackedShoe(rng, 1, 0, deck.MustParseCards(cards)...)
	require.NoError(t, err)
	g := game.New(rng, rules, game.WithShoe(shoe))
	require.True(t, g.PlaceBet(10))
	require.True(t, g.DealInitialCards())
	return g
}

func TestBustProbability(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hand string
		want float64
	}{
		{"5s6h", 0},
		{"Ts2h", 4.0 / 13},
		{"Ts6h", 8.0 / 13},
		{"As6h", 0},
		{"Ts5h6d", 1},
		{"TsKhQd", 1},
		{"Ts9h", 11.0 / 13},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, BustProbability(hand(tt.hand)), 1e-12, tt.hand)
	}
}

func TestDealerOutcomes(t *testing.T) {
	t.Parallel()

	for _, up := range deck.MustParseCards("2s3s4s5s6s7s8s9sTsAs") {
		out := DealerOutcomesFor(up, false)
		assert.InDelta(t, 1, out.Total(), 1e-9, "distribution for %s", up)
	}

	// small up cards get worse for the dealer from 2 through 6
	prev := 0.0
	for _, up := range deck.MustParseCards("2s3s4s5s6s") {
		bust := DealerBustProbability(up, false)
		assert.Greater(t, bust, prev, up.String())
		prev = bust
	}
	assert.InDelta(t, 0.3536, DealerBustProbability(card("2s"), false), 0.01)
	assert.InDelta(t, 0.4232, DealerBustProbability(card("6s"), false), 0.01)
	assert.Less(t, DealerBustProbability(card("Ts"), false), DealerBustProbability(card("6s"), false))

	assert.Greater(t, DealerBustProbability(card("6s"), true), DealerBustProbability(card("6s"), false),
		"hitting soft 17 busts more often")

	// a dealer showing 7 most often finishes on 17
	seven := DealerOutcomesFor(card("7s"), false)
	assert.Greater(t, seven.Seventeen, seven.Eighteen)

	// no natural: an ace up card never finishes on a two card 21
	ace := DealerOutcomesFor(card("As"), false)
	assert.Less(t, ace.TwentyOne, 0.2)
}

func TestOutcomeProbabilities(t *testing.T) {
	t.Parallel()

	bust := OutcomeProbabilities(hand("TsKh5d"), card("6s"), false)
	assert.Equal(t, Outcomes{Lose: 1}, bust)

	twenty := OutcomeProbabilities(hand("TsKh"), card("6s"), false)
	assert.InDelta(t, 1, twenty.Win+twenty.Lose+twenty.Push, 1e-9)
	assert.Greater(t, twenty.Win, twenty.Lose)

	sixteen := OutcomeProbabilities(hand("Ts6h"), card("6s"), false)
	assert.InDelta(t, DealerBustProbability(card("6s"), false), sixteen.Win, 1e-12, "16 only wins when the dealer busts")
	assert.Zero(t, sixteen.Push)
}

func TestExpectedValue(t *testing.T) {
	t.Parallel()

	six := card("6s")
	eleven := hand("5s6h")
	assert.Greater(t, ExpectedValue(game.Double, eleven, six, 10, false), ExpectedValue(game.Hit, eleven, six, 10, false))
	assert.Greater(t, ExpectedValue(game.Hit, eleven, six, 10, false), ExpectedValue(game.Stand, eleven, six, 10, false))

	eights := hand("8s8h")
	assert.Greater(t, ExpectedValue(game.Split, eights, six, 10, false), ExpectedValue(game.Stand, eights, six, 10, false))

	assert.Equal(t, -5.0, ExpectedValue(game.Surrender, hand("Ts6h"), card("Ts"), 10, false))
	assert.Greater(t, ExpectedValue(game.Stand, hand("TsKh"), card("Ts"), 1, false), 0.0)
	assert.Equal(t, -10.0, ExpectedValue(game.Stand, hand("TsKh5d"), six, 10, false))

	// a hard 12 stands against a 6 and hits against a 2
	twelve := hand("Ts2h")
	assert.Greater(t, ExpectedValue(game.Stand, twelve, card("6s"), 1, false), ExpectedValue(game.Hit, twelve, card("6s"), 1, false))
	assert.Greater(t, ExpectedValue(game.Hit, twelve, card("2s"), 1, false), ExpectedValue(game.Stand, twelve, card("2s"), 1, false))
}

func TestHandStrength(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"AsKh":   "Blackjack!",
		"TsKh":   "Very Strong",
		"Ts8h":   "Strong",
		"Ts5h":   "Moderate",
		"Ts2h":   "Weak",
		"5s4h":   "Very Weak",
		"TsKh5d": "Bust",
	}
	for cards, want := range tests {
		assert.Equal(t, want, HandStrength(hand(cards)), cards)
	}
}

func TestExplain(t *testing.T) {
	t.Parallel()

	assert.Contains(t, Explain(hand("5s6h"), card("6d"), game.Double, false), "11 is the best doubling hand")
	assert.Contains(t, Explain(hand("AsAh"), card("6d"), game.Split, false), "split aces")
	assert.Contains(t, Explain(hand("8s8h"), card("Td"), game.Split, false), "eights")
	assert.Contains(t, Explain(hand("Ts3h"), card("5d"), game.Stand, false), "busts 4")
	assert.Contains(t, Explain(hand("Ts6h"), card("Td"), game.Surrender, false), "half the bet")
	assert.Contains(t, Explain(hand("As5h"), card("Td"), game.Hit, false), "Soft 16")
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	// player Ts 6d against dealer 9h with 7c in the hole
	g := newGame(t, "Ts9h6d7c")
	require.Equal(t, game.PlayerTurn, g.State())

	a, err := Analyze(g, nil)
	require.NoError(t, err)
	assert.Equal(t, 16, a.PlayerValue)
	assert.Equal(t, "Moderate", a.HandStrength)
	assert.Equal(t, card("9h"), a.DealerUpCard)
	assert.Equal(t, game.Hit, a.Recommended)
	assert.Contains(t, a.ExpectedValues, game.Surrender)
	assert.NotContains(t, a.ExpectedValues, game.Split)
	assert.Equal(t, -5.0, a.ExpectedValues[game.Surrender])
	assert.InDelta(t, 8.0/13, a.BustProbability, 1e-12)
	assert.NotEmpty(t, a.Explanation)

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"recommended_action":"hit"`)
	assert.Contains(t, string(data), `"surrender":-5`)

	strat := strategy.New(strategy.MustPreset("dad"), 1, log.NewWithOptions(io.Discard, log.Options{}))
	a, err = Analyze(g, strat)
	require.NoError(t, err)
	assert.Equal(t, strat.TrueCount(), a.TrueCount)
}

func TestAnalyzeOutsidePlayerTurn(t *testing.T) {
	t.Parallel()

	g := game.New(rand.New(rand.NewSource(1)), game.DefaultRules())
	_, err := Analyze(g, nil)
	assert.ErrorIs(t, err, ErrNoDecision)
}
