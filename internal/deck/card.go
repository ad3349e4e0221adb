package deck

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Suit represents a card suit. Suits carry no meaning in blackjack beyond display.
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// Suits lists every suit in shoe-building order.
var Suits = [...]Suit{Spades, Hearts, Diamonds, Clubs}

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank represents a card rank
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// Ranks lists every rank from Two to Ace.
var Ranks = [...]Rank{Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}

// String returns the string representation of a rank
func (r Rank) String() string {
	switch {
	case r >= Two && r <= Ten:
		return fmt.Sprintf("%d", int(r))
	case r == Jack:
		return "J"
	case r == Queen:
		return "Q"
	case r == King:
		return "K"
	case r == Ace:
		return "A"
	default:
		return "?"
	}
}

// Name returns the upper-case rank name used in strategy files ("TWO" ... "ACE").
func (r Rank) Name() string {
	if r < Two || r > Ace {
		return "UNKNOWN"
	}
	return rankNames[r-Two]
}

var rankNames = [...]string{
	"TWO", "THREE", "FOUR", "FIVE", "SIX", "SEVEN", "EIGHT",
	"NINE", "TEN", "JACK", "QUEEN", "KING", "ACE",
}

// Points returns the blackjack point value of the rank. Aces are worth 11 here;
// hands degrade them to 1 when needed.
func (r Rank) Points() int {
	switch {
	case r == Ace:
		return 11
	case r >= Ten:
		return 10
	default:
		return int(r)
	}
}

// HiLo returns the Hi-Lo count contribution of the rank.
func (r Rank) HiLo() int {
	switch p := r.Points(); {
	case p <= 6:
		return 1
	case p >= 10:
		return -1
	default:
		return 0
	}
}

// ParseRank parses a rank symbol ("2".."10", "T", "J", "Q", "K", "A") or a rank
// name ("TWO".."ACE"), case-insensitively.
func ParseRank(s string) (Rank, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "T", "10":
		return Ten, nil
	case "J":
		return Jack, nil
	case "Q":
		return Queen, nil
	case "K":
		return King, nil
	case "A":
		return Ace, nil
	}
	if len(s) == 1 && s[0] >= '2' && s[0] <= '9' {
		return Rank(s[0] - '0'), nil
	}
	for i, name := range rankNames {
		if s == name {
			return Two + Rank(i), nil
		}
	}
	return 0, fmt.Errorf("unknown rank %q", s)
}

// Card represents a playing card
type Card struct {
	Suit Suit
	Rank Rank
}

// NewCard creates a new card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// String returns the string representation of a card (e.g., "A♠")
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// IsRed returns true if the card is red
func (c Card) IsRed() bool {
	return c.Suit.IsRed()
}

// Value returns the blackjack point value of the card (Ace = 11).
func (c Card) Value() int {
	return c.Rank.Points()
}

// CountValue returns the Hi-Lo count contribution of the card.
func (c Card) CountValue() int {
	return c.Rank.HiLo()
}

// IsAce returns true if the card is an Ace
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

// IsZero reports whether c is the zero Card, which Deal returns on failure.
func (c Card) IsZero() bool {
	return c.Rank == 0
}

// MarshalJSON encodes the card in the {rank, suit, value} form used by the API.
func (c Card) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Rank  string `json:"rank"`
		Suit  string `json:"suit"`
		Value int    `json:"value"`
	}{c.Rank.String(), c.Suit.String(), c.Value()})
}

// ParseCard parses a single card such as "As", "10h" or "Td".
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card string: %q", s)
	}
	rank, err := ParseRank(s[:len(s)-1])
	if err != nil {
		return Card{}, fmt.Errorf("invalid card %q: %w", s, err)
	}
	suit, err := parseSuit(s[len(s)-1])
	if err != nil {
		return Card{}, fmt.Errorf("invalid card %q: %w", s, err)
	}
	return NewCard(suit, rank), nil
}

// ParseCards parses a compact card list such as "AsKd10h9c". Whitespace is ignored.
func ParseCards(s string) ([]Card, error) {
	s = strings.Join(strings.Fields(s), "")
	cards := []Card{}
	for i := 0; i < len(s); {
		width := 2
		if s[i] == '1' {
			width = 3 // "10x"
		}
		if i+width > len(s) {
			return nil, fmt.Errorf("incomplete card at position %d", i)
		}
		card, err := ParseCard(s[i : i+width])
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
		i += width
	}
	return cards, nil
}

// MustParseCards parses cards and panics on error (for tests)
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(fmt.Sprintf("failed to parse cards '%s': %v", s, err))
	}
	return cards
}

func parseSuit(c byte) (Suit, error) {
	switch c {
	case 's', 'S':
		return Spades, nil
	case 'h', 'H':
		return Hearts, nil
	case 'd', 'D':
		return Diamonds, nil
	case 'c', 'C':
		return Clubs, nil
	default:
		return 0, fmt.Errorf("invalid suit: %c", c)
	}
}
