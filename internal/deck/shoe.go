package deck

import (
	"fmt"
	"math/rand"
	"time"
)

// CardsPerDeck is the size of one standard deck.
const CardsPerDeck = 52

// minDecksRemaining floors the divisor of the true count so a nearly exhausted
// shoe cannot blow it up.
const minDecksRemaining = 0.5

// Shoe is a multi-deck pool of cards. Cards move from the undealt pile to the
// dealt pile one at a time and are recombined by Shuffle; the union of both piles
// is always the full 52*NumDecks multiset.
type Shoe struct {
	undealt   []Card // next card to deal is the last element
	dealt     []Card
	numDecks  int
	threshold float64
	rng       *rand.Rand
	running   int
	shuffles  int
}

// NewShoe creates a shuffled shoe of numDecks decks that reshuffles itself once
// the fraction of undealt cards falls to shuffleThreshold or below.
func NewShoe(rng *rand.Rand, numDecks int, shuffleThreshold float64) *Shoe {
	s := newShoe(rng, numDecks, shuffleThreshold)
	s.Shuffle()
	return s
}

// NewStackedShoe creates an unshuffled shoe whose first cards are top, in order,
// followed by the rest of the multiset in a fixed order. It is used to replay or
// test specific deals. The top cards must exist in a numDecks shoe.
func NewStackedShoe(rng *rand.Rand, numDecks int, shuffleThreshold float64, top ...Card) (*Shoe, error) {
	s := newShoe(rng, numDecks, shuffleThreshold)

	rest := s.undealt
	for _, want := range top {
		idx := -1
		for i, c := range rest {
			if c == want {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("card %s not available in a %d-deck shoe", want, numDecks)
		}
		rest = append(rest[:idx], rest[idx+1:]...)
	}

	ordered := make([]Card, 0, s.Total())
	for i := len(rest) - 1; i >= 0; i-- {
		ordered = append(ordered, rest[i])
	}
	for i := len(top) - 1; i >= 0; i-- {
		ordered = append(ordered, top[i])
	}
	s.undealt = ordered
	return s, nil
}

func newShoe(rng *rand.Rand, numDecks int, shuffleThreshold float64) *Shoe {
	if numDecks < 1 {
		numDecks = 1
	}
	if shuffleThreshold < 0 {
		shuffleThreshold = 0
	}
	if shuffleThreshold > 1 {
		shuffleThreshold = 1
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	s := &Shoe{
		undealt:   make([]Card, 0, numDecks*CardsPerDeck),
		dealt:     make([]Card, 0, numDecks*CardsPerDeck),
		numDecks:  numDecks,
		threshold: shuffleThreshold,
		rng:       rng,
	}
	for d := 0; d < numDecks; d++ {
		for _, suit := range Suits {
			for _, rank := range Ranks {
				s.undealt = append(s.undealt, NewCard(suit, rank))
			}
		}
	}
	return s
}

// Shuffle recombines dealt and undealt cards and randomizes their order.
func (s *Shoe) Shuffle() {
	s.undealt = append(s.undealt, s.dealt...)
	s.dealt = s.dealt[:0]
	s.running = 0
	s.rng.Shuffle(len(s.undealt), func(i, j int) {
		s.undealt[i], s.undealt[j] = s.undealt[j], s.undealt[i]
	})
	s.shuffles++
}

// Deal removes and returns the top card. If the deal leaves the shoe at or below
// its shuffle threshold the shoe reshuffles before returning. Dealing from an
// empty shoe returns false.
func (s *Shoe) Deal() (Card, bool) {
	n := len(s.undealt)
	if n == 0 {
		return Card{}, false
	}

	card := s.undealt[n-1]
	s.undealt = s.undealt[:n-1]
	s.dealt = append(s.dealt, card)
	s.running += card.CountValue()

	if s.NeedsShuffle() {
		s.Shuffle()
	}
	return card, true
}

// NeedsShuffle reports whether the undealt fraction is at or below the threshold.
func (s *Shoe) NeedsShuffle() bool {
	total := s.Total()
	if total == 0 {
		return false
	}
	return float64(len(s.undealt))/float64(total) <= s.threshold
}

// Remaining returns the number of undealt cards.
func (s *Shoe) Remaining() int {
	return len(s.undealt)
}

// DealtCount returns the number of cards dealt since the last shuffle.
func (s *Shoe) DealtCount() int {
	return len(s.dealt)
}

// Total returns the size of the full multi-deck shoe.
func (s *Shoe) Total() int {
	return len(s.undealt) + len(s.dealt)
}

// NumDecks returns the number of decks in the shoe.
func (s *Shoe) NumDecks() int {
	return s.numDecks
}

// ShuffleThreshold returns the undealt fraction that triggers a reshuffle.
func (s *Shoe) ShuffleThreshold() float64 {
	return s.threshold
}

// Shuffles returns how many times the shoe has been shuffled.
func (s *Shoe) Shuffles() int {
	return s.shuffles
}

// Penetration returns the fraction of the shoe dealt since the last shuffle.
func (s *Shoe) Penetration() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return float64(len(s.dealt)) / float64(total)
}

// RunningCount returns the Hi-Lo running count of the dealt cards.
func (s *Shoe) RunningCount() int {
	return s.running
}

// DecksRemaining returns undealt cards expressed in decks.
func (s *Shoe) DecksRemaining() float64 {
	return float64(len(s.undealt)) / CardsPerDeck
}

// TrueCount returns the running count divided by the decks remaining.
func (s *Shoe) TrueCount() float64 {
	decks := s.DecksRemaining()
	if decks < minDecksRemaining {
		decks = minDecksRemaining
	}
	return float64(s.running) / decks
}
