// Package advisor explains blackjack decisions: bust chances, the dealer's
// likely finish, expected values per action and a short reason for the
// recommended play.
package advisor

import (
	"errors"
	"fmt"

	"github.com/lox/blackjacksim/internal/deck"
	"github.com/lox/blackjacksim/internal/game"
	"github.com/lox/blackjacksim/internal/strategy"
)

// ErrNoDecision is returned by Analyze outside the player's turn.
var ErrNoDecision = errors.New("no player decision pending")

// HandStrength describes a hand in words.
func HandStrength(hand *game.Hand) string {
	value := hand.Value()
	switch {
	case hand.IsBlackjack():
		return "Blackjack!"
	case value > 21:
		return "Bust"
	case value >= 20:
		return "Very Strong"
	case value >= 18:
		return "Strong"
	case value >= 15:
		return "Moderate"
	case value >= 12:
		return "Weak"
	default:
		return "Very Weak"
	}
}

// Explain gives a one line reason for playing action with hand against up.
func Explain(hand *game.Hand, up deck.Card, action game.Action, hitSoft17 bool) string {
	player := hand.Value()
	dealer := up.Value()
	bust := DealerBustProbability(up, hitSoft17)

	switch action {
	case game.Hit:
		switch {
		case player <= 11:
			return fmt.Sprintf("With %d you cannot bust, improve against the dealer's %d", player, dealer)
		case hand.IsSoft():
			return fmt.Sprintf("Soft %d cannot bust on one card, worth trying to improve", player)
		default:
			return fmt.Sprintf("Dealer showing %d is strong, you need better than %d", dealer, player)
		}
	case game.Stand:
		switch {
		case player >= 17:
			return fmt.Sprintf("%d is strong enough against the dealer's %d", player, dealer)
		case dealer <= 6:
			return fmt.Sprintf("Dealer showing %d busts %.1f%% of the time, let them take the risk", dealer, bust*100)
		default:
			return fmt.Sprintf("Too risky to hit %d (%.1f%% bust chance)", player, BustProbability(hand)*100)
		}
	case game.Double:
		switch {
		case player == 11:
			return "11 is the best doubling hand, any ten makes 21"
		case dealer <= 6:
			return fmt.Sprintf("Double against the weak %d (dealer bust chance %.1f%%)", dealer, bust*100)
		default:
			return fmt.Sprintf("%d against %d is a strong spot for more money", player, dealer)
		}
	case game.Split:
		if len(hand.Cards) == 0 {
			break
		}
		first := hand.Cards[0]
		switch {
		case first.IsAce():
			return "Always split aces, two chances at 21"
		case first.Value() == 8:
			return "Always split eights, a hard 16 is the worst hand in the game"
		case dealer <= 6:
			return fmt.Sprintf("Split against the dealer's weak %d", dealer)
		default:
			return fmt.Sprintf("Two hands starting from %d play better than %d", first.Value(), player)
		}
	case game.Surrender:
		return fmt.Sprintf("%d against %d loses more than half the time, give up half the bet", player, dealer)
	}
	return fmt.Sprintf("Basic strategy recommends %s", action)
}

// Analysis is the advice for the current decision of a game.
type Analysis struct {
	PlayerValue           int                     `json:"player_value"`
	IsSoft                bool                    `json:"is_soft"`
	HandStrength          string                  `json:"hand_strength"`
	BustProbability       float64                 `json:"bust_probability"`
	DealerUpCard          deck.Card               `json:"dealer_up_card"`
	DealerBustProbability float64                 `json:"dealer_bust_probability"`
	DealerOutcomes        DealerOutcomes          `json:"dealer_outcomes"`
	StandOutcomes         Outcomes                `json:"stand_outcomes"`
	TrueCount             float64                 `json:"true_count"`
	Recommended           game.Action             `json:"recommended_action"`
	Explanation           string                  `json:"explanation"`
	ExpectedValues        map[game.Action]float64 `json:"expected_values"`
}

// Analyze advises on the current hand of g. With a nil strategy the
// recommendation is basic strategy and the true count is the shoe's Hi-Lo
// count; otherwise the strategy decides with its own count.
func Analyze(g *game.Game, strat *strategy.Strategy) (*Analysis, error) {
	if g.State() != game.PlayerTurn {
		return nil, fmt.Errorf("analyze in %s: %w", g.State(), ErrNoDecision)
	}
	hand := g.CurrentHand()
	up, ok := g.DealerUpCard()
	if !ok {
		return nil, fmt.Errorf("dealer has no up card: %w", ErrNoDecision)
	}

	valid := g.ValidActions()
	hitSoft17 := g.Rules().HitSoft17

	a := &Analysis{
		PlayerValue:     hand.Value(),
		IsSoft:          hand.IsSoft(),
		HandStrength:    HandStrength(hand),
		BustProbability: BustProbability(hand),
		DealerUpCard:    up,
		ExpectedValues:  make(map[game.Action]float64),
	}

	if strat != nil {
		a.TrueCount = strat.TrueCount()
		a.Recommended = strat.Action(hand, up, valid.Contains(game.Split))
	} else {
		a.TrueCount = g.Shoe().TrueCount()
		a.Recommended = strategy.Basic(hand, up, valid.Contains(game.Split))
	}
	if !valid.Contains(a.Recommended) {
		a.Recommended = game.Hit
	}

	e := newEvaluator(up.Value(), hitSoft17)
	a.DealerOutcomes = e.dealer
	a.DealerBustProbability = e.dealer.Bust
	a.StandOutcomes = standOutcomes(hand.Value(), e.dealer)
	for _, action := range valid.Slice() {
		a.ExpectedValues[action] = float64(hand.Bet) * e.value(action, hand)
	}
	a.Explanation = Explain(hand, up, a.Recommended, hitSoft17)
	return a, nil
}
