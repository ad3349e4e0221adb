package game

import (
	"encoding/json"
	"strings"

	"github.com/lox/blackjacksim/internal/deck"
)

// Hand is one player (or dealer) hand. Cards are only ever appended, except
// when a split moves the second card into a new hand.
type Hand struct {
	Cards       []deck.Card
	Bet         int
	IsSplit     bool
	Doubled     bool
	Surrendered bool
	// SurrenderedBet is the stake held before surrendering; Bet is zero after.
	SurrenderedBet int
}

// NewHand returns a hand holding the given cards.
func NewHand(cards ...deck.Card) *Hand {
	h := &Hand{Cards: make([]deck.Card, 0, 4)}
	h.Cards = append(h.Cards, cards...)
	return h
}

// Add appends a card.
func (h *Hand) Add(c deck.Card) {
	h.Cards = append(h.Cards, c)
}

// totals returns the best value and the number of aces still counted as 11.
func (h *Hand) totals() (value int, softAces int) {
	for _, c := range h.Cards {
		value += c.Value()
		if c.IsAce() {
			softAces++
		}
	}
	for value > 21 && softAces > 0 {
		value -= 10
		softAces--
	}
	return value, softAces
}

// Value returns the best total: aces count 11 until that would bust the hand.
func (h *Hand) Value() int {
	v, _ := h.totals()
	return v
}

// HardValue returns the total with every ace counted as 1.
func (h *Hand) HardValue() int {
	total := 0
	for _, c := range h.Cards {
		if c.IsAce() {
			total++
			continue
		}
		total += c.Value()
	}
	return total
}

// IsSoft reports whether an ace is still counted as 11 without busting.
func (h *Hand) IsSoft() bool {
	v, soft := h.totals()
	return soft > 0 && v <= 21
}

// SoftValue returns the soft total, or 0 when the hand is hard.
func (h *Hand) SoftValue() int {
	if !h.IsSoft() {
		return 0
	}
	return h.Value()
}

// IsBust reports whether the hand is over 21.
func (h *Hand) IsBust() bool {
	return h.Value() > 21
}

// IsBlackjack reports a two card 21. Hands created by a split never qualify.
func (h *Hand) IsBlackjack() bool {
	return len(h.Cards) == 2 && !h.IsSplit && h.Value() == 21
}

// IsPair reports two cards of equal point value.
func (h *Hand) IsPair() bool {
	return len(h.Cards) == 2 && h.Cards[0].Value() == h.Cards[1].Value()
}

// CanSplit reports whether the hand may be split. Hands created by a split
// cannot split again.
func (h *Hand) CanSplit() bool {
	return !h.IsSplit && h.IsPair()
}

// CanDouble reports whether the hand may be doubled.
func (h *Hand) CanDouble() bool {
	return len(h.Cards) == 2 && !h.Doubled
}

// Clone returns a deep copy of the hand.
func (h *Hand) Clone() *Hand {
	c := *h
	c.Cards = append([]deck.Card(nil), h.Cards...)
	return &c
}

func (h *Hand) String() string {
	parts := make([]string, len(h.Cards))
	for i, c := range h.Cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// HandView is the wire form of a hand used in snapshots.
type HandView struct {
	Cards       []deck.Card `json:"cards"`
	Value       int         `json:"value"`
	SoftValue   *int        `json:"soft_value"`
	IsSoft      bool        `json:"is_soft"`
	IsBust      bool        `json:"is_bust"`
	IsBlackjack bool        `json:"is_blackjack"`
	Bet         int         `json:"bet"`
	IsSplit     bool        `json:"is_split_hand"`
	Doubled     bool        `json:"has_doubled"`
	Surrendered bool        `json:"surrendered"`
	Hidden      bool        `json:"hidden,omitempty"`
}

// View returns the serialisable form of the hand.
func (h *Hand) View() HandView {
	out := HandView{
		Cards:       append([]deck.Card{}, h.Cards...),
		Value:       h.Value(),
		IsSoft:      h.IsSoft(),
		IsBust:      h.IsBust(),
		IsBlackjack: h.IsBlackjack(),
		Bet:         h.Bet,
		IsSplit:     h.IsSplit,
		Doubled:     h.Doubled,
		Surrendered: h.Surrendered,
	}
	if out.IsSoft {
		sv := out.Value
		out.SoftValue = &sv
	}
	return out
}

// MarshalJSON encodes the hand with its derived values.
func (h *Hand) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.View())
}
