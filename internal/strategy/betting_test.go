package strategy

import (
	"testing"

	"github.com/lox/blackjacksim/internal/deck"
	"github.com/lox/blackjacksim/internal/game"
	"github.com/stretchr/testify/assert"
)

func progression(system string) *Strategy {
	return New(Config{
		Name: system,
		Betting: BettingConfig{
			System:         system,
			CountIncrement: 1,
			MaxBetUnits:    8,
		},
	}, 6, quietLogger())
}

func settle(s *Strategy, net, bankroll int) {
	s.SettleRound([]game.Result{{Net: net}}, bankroll)
}

func TestMartingale(t *testing.T) {
	t.Parallel()

	s := progression(SystemMartingale)
	assert.Equal(t, 10, s.BetAmount(10))

	var bets []int
	for i := 0; i < 5; i++ {
		settle(s, -1, 1000)
		bets = append(bets, s.BetAmount(10))
	}
	assert.Equal(t, []int{20, 40, 80, 80, 80}, bets, "doubles after each loss up to the cap")

	settle(s, 80, 1000)
	assert.Equal(t, 10, s.BetAmount(10), "back to one unit after a win")

	settle(s, 0, 1000)
	assert.Equal(t, 10, s.BetAmount(10), "push keeps the base bet")
}

func TestReverseMartingale(t *testing.T) {
	t.Parallel()

	s := progression(SystemReverseMartingale)
	assert.Equal(t, 10, s.BetAmount(10))
	settle(s, 10, 1000)
	assert.Equal(t, 20, s.BetAmount(10))
	settle(s, 20, 1000)
	assert.Equal(t, 40, s.BetAmount(10))
	settle(s, -40, 1000)
	assert.Equal(t, 10, s.BetAmount(10))
}

func TestOneThreeTwoSix(t *testing.T) {
	t.Parallel()

	s := progression(SystemOneThreeTwoSix)
	var bets []int
	for i := 0; i < 5; i++ {
		bets = append(bets, s.BetAmount(10))
		settle(s, 1, 1000)
	}
	assert.Equal(t, []int{10, 30, 20, 60, 10}, bets, "cycle restarts after the six")

	assert.Equal(t, 30, s.BetAmount(10))
	settle(s, -30, 1000)
	assert.Equal(t, 10, s.BetAmount(10), "a loss restarts the sequence")
}

func TestKelly(t *testing.T) {
	t.Parallel()

	s := New(MustPreset("counting"), 1, quietLogger())
	s.SetBankroll(10000)
	assert.Equal(t, 10, s.BetAmount(10), "no edge at a neutral count")

	for _, c := range deck.MustParseCards("2s3s4s5s6s2h3h4h5h6h") {
		s.ObserveCard(c)
	}
	tc := s.TrueCount()
	assert.InDelta(t, 10/(42.0/52.0), tc, 1e-9)

	want := int(10000 * tc * kellyEdgePerCount)
	assert.Equal(t, want, s.BetAmount(10))

	// deep into a single deck the count is large enough to hit the cap
	s.ResetCount()
	for i := 0; i < 30; i++ {
		s.ObserveCard(deck.NewCard(deck.Spades, deck.Two))
	}
	assert.InDelta(t, 60, s.TrueCount(), 1e-9)

	s.SetBankroll(1000)
	assert.Equal(t, 250, s.BetAmount(10), "capped at a quarter of the bankroll")

	s.SetBankroll(20)
	assert.Equal(t, 10, s.BetAmount(10), "never below one unit")
}

func TestFlat(t *testing.T) {
	t.Parallel()

	s := New(MustPreset("basic"), 6, quietLogger())
	for _, c := range deck.MustParseCards("2s3s4s5s6s2h3h4h5h6h") {
		s.ObserveCard(c)
	}
	assert.Equal(t, 10, s.BetAmount(10))
	settle(s, -10, 990)
	assert.Equal(t, 10, s.BetAmount(10))
}
