package strategy

import "github.com/lox/blackjacksim/internal/deck"

// minDecksRemaining floors the true count divisor near the end of a shoe.
const minDecksRemaining = 0.5

// Counter tracks the cards seen since the last shuffle under a configurable
// point count with an ace side count.
type Counter struct {
	values        [deck.Ace + 1]int
	aceAdjustment float64
	numDecks      int

	running int
	seen    int
	aces    int
}

// NewCounter creates a counter for a shoe of numDecks decks.
func NewCounter(values map[deck.Rank]int, aceAdjustment float64, numDecks int) *Counter {
	if numDecks < 1 {
		numDecks = 1
	}
	c := &Counter{aceAdjustment: aceAdjustment, numDecks: numDecks}
	for r, v := range values {
		if r >= deck.Two && r <= deck.Ace {
			c.values[r] = v
		}
	}
	return c
}

// Observe counts one card.
func (c *Counter) Observe(card deck.Card) {
	if card.Rank >= deck.Two && card.Rank <= deck.Ace {
		c.running += c.values[card.Rank]
	}
	c.seen++
	if card.IsAce() {
		c.aces++
	}
}

// Reset clears the count for a fresh shoe.
func (c *Counter) Reset() {
	c.running = 0
	c.seen = 0
	c.aces = 0
}

// RunningCount returns the raw running count.
func (c *Counter) RunningCount() int { return c.running }

// CardsSeen returns the number of cards counted since the last reset.
func (c *Counter) CardsSeen() int { return c.seen }

// AcesSeen returns the number of aces counted since the last reset.
func (c *Counter) AcesSeen() int { return c.aces }

// DecksRemaining returns the unseen cards in decks, floored at half a deck.
func (c *Counter) DecksRemaining() float64 {
	d := float64(c.numDecks*deck.CardsPerDeck-c.seen) / deck.CardsPerDeck
	if d < minDecksRemaining {
		return minDecksRemaining
	}
	return d
}

// ExtraAces returns how many more aces remain than a neutral shoe of the same
// size would hold. Negative when aces have come out early.
func (c *Counter) ExtraAces() float64 {
	remaining := float64(c.numDecks*4 - c.aces)
	return remaining - c.DecksRemaining()*4
}

// TrueCount returns the ace-adjusted running count per remaining deck.
func (c *Counter) TrueCount() float64 {
	adjusted := float64(c.running) + c.aceAdjustment*c.ExtraAces()
	return adjusted / c.DecksRemaining()
}

// AceExcessPerDeck returns extra aces per remaining deck.
func (c *Counter) AceExcessPerDeck() float64 {
	return c.ExtraAces() / c.DecksRemaining()
}
