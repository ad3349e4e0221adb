package game

import (
	"math/rand"
	"testing"

	"github.com/lox/blackjacksim/internal/deck"
	"github.com/stretchr/testify/assert"
)

func TestHandValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cards     string
		value     int
		hard      int
		soft      bool
		bust      bool
		blackjack bool
	}{
		{"Ts6h", 16, 16, false, false, false},
		{"As6h", 17, 7, true, false, false},
		{"AsAh", 12, 2, true, false, false},
		{"AsKh", 21, 11, true, false, true},
		{"As6h9d", 16, 16, false, false, false},
		{"AsAhAdAc", 14, 4, true, false, false},
		{"AsAh9dKc", 21, 21, false, false, false},
		{"TsKhQd", 30, 30, false, true, false},
		{"As5h5d", 21, 11, true, false, false},
		{"5s5h", 10, 10, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.cards, func(t *testing.T) {
			h := NewHand(deck.MustParseCards(tt.cards)...)
			assert.Equal(t, tt.value, h.Value(), "value")
			assert.Equal(t, tt.hard, h.HardValue(), "hard value")
			assert.Equal(t, tt.soft, h.IsSoft(), "soft")
			assert.Equal(t, tt.bust, h.IsBust(), "bust")
			assert.Equal(t, tt.blackjack, h.IsBlackjack(), "blackjack")
		})
	}
}

func TestHandSplitNeverBlackjack(t *testing.T) {
	t.Parallel()

	h := NewHand(deck.MustParseCards("AsKh")...)
	h.IsSplit = true
	assert.False(t, h.IsBlackjack())
	assert.Equal(t, 21, h.Value())
}

func TestHandSoftValue(t *testing.T) {
	t.Parallel()

	soft := NewHand(deck.MustParseCards("As7h")...)
	assert.Equal(t, 18, soft.SoftValue())

	hard := NewHand(deck.MustParseCards("Ts7h")...)
	assert.Equal(t, 0, hard.SoftValue())
	assert.Nil(t, hard.View().SoftValue)
}

func TestHandSplitAndDouble(t *testing.T) {
	t.Parallel()

	pair := NewHand(deck.MustParseCards("KsQh")...)
	assert.True(t, pair.IsPair(), "ten-valued cards form a pair")
	assert.True(t, pair.CanSplit())
	assert.True(t, pair.CanDouble())

	pair.IsSplit = true
	assert.False(t, pair.CanSplit(), "hands created by a split cannot split again")

	three := NewHand(deck.MustParseCards("8s8h2d")...)
	assert.False(t, three.CanSplit())
	assert.False(t, three.CanDouble())

	doubled := NewHand(deck.MustParseCards("5s6h")...)
	doubled.Doubled = true
	assert.False(t, doubled.CanDouble())
}

func TestHandValueProperties(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(99))
	shoe := deck.NewShoe(rng, 6, 0.25)

	for i := 0; i < 2000; i++ {
		h := NewHand()
		n := 2 + rng.Intn(5)
		for j := 0; j < n; j++ {
			c, _ := shoe.Deal()
			h.Add(c)
		}

		v := h.Value()
		if h.IsSoft() {
			assert.Equal(t, h.HardValue()+10, v, "soft hand %s", h)
			assert.LessOrEqual(t, v, 21, "soft hand %s", h)
		} else {
			assert.Equal(t, h.HardValue(), v, "hard hand %s", h)
		}
		assert.Equal(t, v > 21, h.IsBust(), "hand %s", h)
		assert.GreaterOrEqual(t, v, h.HardValue())
	}
}

func TestHandCloneIsIndependent(t *testing.T) {
	t.Parallel()

	h := NewHand(deck.MustParseCards("8s8h")...)
	c := h.Clone()
	c.Add(deck.NewCard(deck.Clubs, deck.Two))
	c.Bet = 50

	assert.Len(t, h.Cards, 2)
	assert.Equal(t, 0, h.Bet)
}
