package advisor

import (
	"github.com/lox/blackjacksim/internal/deck"
	"github.com/lox/blackjacksim/internal/game"
)

// Probabilities assume an infinite shoe: every draw is 1/13 per rank, so a
// ten-valued card comes 4/13 of the time.
const tenWeight = 4.0 / 13.0

// drawProbability returns the chance of drawing a card worth points (2..11).
func drawProbability(points int) float64 {
	if points == 10 {
		return tenWeight
	}
	return 1.0 / 13.0
}

// addPoints adds a card worth points to a hand total, counting a new ace as 11
// when it fits and demoting a soft ace when the total passes 21.
func addPoints(total int, soft bool, points int) (int, bool) {
	if points == 11 {
		if total+11 <= 21 {
			return total + 11, true
		}
		points = 1
	}
	total += points
	if total > 21 && soft {
		total -= 10
		soft = false
	}
	return total, soft
}

// DealerOutcomes is the distribution of the dealer's final total.
type DealerOutcomes struct {
	Seventeen float64 `json:"17"`
	Eighteen  float64 `json:"18"`
	Nineteen  float64 `json:"19"`
	Twenty    float64 `json:"20"`
	TwentyOne float64 `json:"21"`
	Bust      float64 `json:"bust"`
}

func (d DealerOutcomes) at(total int) float64 {
	switch total {
	case 17:
		return d.Seventeen
	case 18:
		return d.Eighteen
	case 19:
		return d.Nineteen
	case 20:
		return d.Twenty
	case 21:
		return d.TwentyOne
	}
	return 0
}

func (d *DealerOutcomes) addScaled(o DealerOutcomes, p float64) {
	d.Seventeen += o.Seventeen * p
	d.Eighteen += o.Eighteen * p
	d.Nineteen += o.Nineteen * p
	d.Twenty += o.Twenty * p
	d.TwentyOne += o.TwentyOne * p
	d.Bust += o.Bust * p
}

func (d *DealerOutcomes) scale(p float64) {
	d.addScaled(*d, p-1)
}

// Total returns the sum of all outcomes, 1 for a complete distribution.
func (d DealerOutcomes) Total() float64 {
	return d.Seventeen + d.Eighteen + d.Nineteen + d.Twenty + d.TwentyOne + d.Bust
}

type handState struct {
	total int
	soft  bool
}

type dealerModel struct {
	hitSoft17 bool
	memo      map[handState]DealerOutcomes
}

func (m *dealerModel) stands(s handState) bool {
	if s.total > 17 {
		return true
	}
	if s.total == 17 {
		return !(s.soft && m.hitSoft17)
	}
	return false
}

func (m *dealerModel) finish(s handState) DealerOutcomes {
	if s.total > 21 {
		return DealerOutcomes{Bust: 1}
	}
	if m.stands(s) {
		var out DealerOutcomes
		switch s.total {
		case 17:
			out.Seventeen = 1
		case 18:
			out.Eighteen = 1
		case 19:
			out.Nineteen = 1
		case 20:
			out.Twenty = 1
		case 21:
			out.TwentyOne = 1
		}
		return out
	}
	if out, ok := m.memo[s]; ok {
		return out
	}

	var out DealerOutcomes
	for points := 2; points <= 11; points++ {
		total, soft := addPoints(s.total, s.soft, points)
		out.addScaled(m.finish(handState{total, soft}), drawProbability(points))
	}
	m.memo[s] = out
	return out
}

// dealerOutcomes returns the final total distribution for an up card worth
// upPoints, given the dealer does not hold a natural. Rounds with a dealer
// natural end before the player acts, so that is the distribution a deciding
// player faces.
func dealerOutcomes(upPoints int, hitSoft17 bool) DealerOutcomes {
	m := &dealerModel{hitSoft17: hitSoft17, memo: make(map[handState]DealerOutcomes)}
	start := handState{}
	start.total, start.soft = addPoints(0, false, upPoints)

	var out DealerOutcomes
	excluded := 0.0
	for points := 2; points <= 11; points++ {
		p := drawProbability(points)
		if upPoints+points == 21 {
			excluded += p
			continue
		}
		total, soft := addPoints(start.total, start.soft, points)
		out.addScaled(m.finish(handState{total, soft}), p)
	}
	out.scale(1 / (1 - excluded))
	return out
}

// DealerOutcomesFor returns the dealer's final total distribution against up.
func DealerOutcomesFor(up deck.Card, hitSoft17 bool) DealerOutcomes {
	return dealerOutcomes(up.Value(), hitSoft17)
}

// DealerBustProbability returns the chance the dealer busts showing up.
func DealerBustProbability(up deck.Card, hitSoft17 bool) float64 {
	return DealerOutcomesFor(up, hitSoft17).Bust
}

// BustProbability returns the chance that one more card busts hand. A soft
// hand cannot bust on one card; a busted hand returns 1.
func BustProbability(hand *game.Hand) float64 {
	if hand.IsBust() {
		return 1
	}
	if hand.IsSoft() {
		return 0
	}
	bust := 0.0
	for points := 2; points <= 11; points++ {
		total, _ := addPoints(hand.Value(), false, points)
		if total > 21 {
			bust += drawProbability(points)
		}
	}
	return bust
}

// Outcomes are win, lose and push chances for a hand that stands now.
type Outcomes struct {
	Win  float64 `json:"win"`
	Lose float64 `json:"lose"`
	Push float64 `json:"push"`
}

func standOutcomes(total int, dealer DealerOutcomes) Outcomes {
	if total > 21 {
		return Outcomes{Lose: 1}
	}
	out := Outcomes{Win: dealer.Bust}
	for d := 17; d <= 21; d++ {
		p := dealer.at(d)
		switch {
		case total > d:
			out.Win += p
		case total < d:
			out.Lose += p
		default:
			out.Push += p
		}
	}
	return out
}

// OutcomeProbabilities returns the chances for hand standing against up.
func OutcomeProbabilities(hand *game.Hand, up deck.Card, hitSoft17 bool) Outcomes {
	return standOutcomes(hand.Value(), DealerOutcomesFor(up, hitSoft17))
}

// evaluator computes expected values in bets for a fixed dealer up card,
// assuming the player may keep hitting or standing after the first decision.
type evaluator struct {
	dealer DealerOutcomes
	hits   map[handState]float64
}

func newEvaluator(upPoints int, hitSoft17 bool) *evaluator {
	return &evaluator{
		dealer: dealerOutcomes(upPoints, hitSoft17),
		hits:   make(map[handState]float64),
	}
}

func (e *evaluator) stand(total int) float64 {
	o := standOutcomes(total, e.dealer)
	return o.Win - o.Lose
}

// best is the value of s under optimal hit/stand play.
func (e *evaluator) best(s handState) float64 {
	if s.total > 21 {
		return -1
	}
	return max(e.stand(s.total), e.hit(s))
}

func (e *evaluator) hit(s handState) float64 {
	if s.total > 21 {
		return -1
	}
	if ev, ok := e.hits[s]; ok {
		return ev
	}
	ev := 0.0
	for points := 2; points <= 11; points++ {
		total, soft := addPoints(s.total, s.soft, points)
		ev += drawProbability(points) * e.best(handState{total, soft})
	}
	e.hits[s] = ev
	return ev
}

// double takes exactly one card at twice the stake.
func (e *evaluator) double(s handState) float64 {
	ev := 0.0
	for points := 2; points <= 11; points++ {
		total, _ := addPoints(s.total, s.soft, points)
		if total > 21 {
			ev -= drawProbability(points)
			continue
		}
		ev += drawProbability(points) * e.stand(total)
	}
	return 2 * ev
}

// split plays two hands each starting from one card of the pair.
func (e *evaluator) split(cardPoints int) float64 {
	start := handState{}
	start.total, start.soft = addPoints(0, false, cardPoints)
	ev := 0.0
	for points := 2; points <= 11; points++ {
		total, soft := addPoints(start.total, start.soft, points)
		ev += drawProbability(points) * e.best(handState{total, soft})
	}
	return 2 * ev
}

// ExpectedValue returns the expected profit of taking action with hand against
// up, for a stake of bet. After a hit the hand continues with optimal hit or
// stand play; split hands do not double or resplit.
func ExpectedValue(action game.Action, hand *game.Hand, up deck.Card, bet int, hitSoft17 bool) float64 {
	e := newEvaluator(up.Value(), hitSoft17)
	return float64(bet) * e.value(action, hand)
}

func (e *evaluator) value(action game.Action, hand *game.Hand) float64 {
	s := handState{total: hand.Value(), soft: hand.IsSoft()}
	switch action {
	case game.Stand:
		if s.total > 21 {
			return -1
		}
		return e.stand(s.total)
	case game.Hit:
		return e.hit(s)
	case game.Double:
		return e.double(s)
	case game.Split:
		if len(hand.Cards) == 0 {
			return e.stand(s.total)
		}
		return e.split(hand.Cards[0].Value())
	case game.Surrender:
		return -0.5
	}
	return 0
}
