package game

// Outcome is the settlement of a single hand.
type Outcome string

const (
	Win         Outcome = "win"
	Lose        Outcome = "lose"
	Push        Outcome = "push"
	Blackjack   Outcome = "blackjack"
	Surrendered Outcome = "surrender"
)

// Result is the settlement of one player hand. Payout is the amount credited
// to the bankroll at settlement and Net is the hand's profit or loss.
type Result struct {
	Outcome     Outcome `json:"result"`
	Bet         int     `json:"bet"`
	Payout      int     `json:"payout"`
	Net         int     `json:"net"`
	PlayerValue int     `json:"player_value"`
	DealerValue int     `json:"dealer_value"`
	Doubled     bool    `json:"doubled,omitempty"`
	Split       bool    `json:"split,omitempty"`
}

// settle compares one hand with the dealer's final hand.
//
// A surrendered hand has already been refunded half its stake, so it pays
// nothing here and its net is the forfeited half. Summing Net over a round
// therefore equals the bankroll change for the round.
func settle(h, dealer *Hand) Result {
	r := Result{
		Bet:         h.Bet,
		PlayerValue: h.Value(),
		DealerValue: dealer.Value(),
		Doubled:     h.Doubled,
		Split:       h.IsSplit,
	}

	if h.Surrendered {
		r.Outcome = Surrendered
		r.Bet = h.SurrenderedBet
		r.Net = -(h.SurrenderedBet - h.SurrenderedBet/2)
		return r
	}

	switch {
	case h.IsBust():
		r.Outcome = Lose
	case h.IsBlackjack() && !dealer.IsBlackjack():
		r.Outcome = Blackjack
		r.Payout = h.Bet * 5 / 2
	case dealer.IsBlackjack() && !h.IsBlackjack():
		r.Outcome = Lose
	case dealer.IsBust():
		r.Outcome = Win
		r.Payout = 2 * h.Bet
	case r.PlayerValue > r.DealerValue:
		r.Outcome = Win
		r.Payout = 2 * h.Bet
	case r.PlayerValue < r.DealerValue:
		r.Outcome = Lose
	default:
		r.Outcome = Push
		r.Payout = h.Bet
	}
	r.Net = r.Payout - h.Bet
	return r
}

// IsWin reports whether the hand won, naturals included.
func (r Result) IsWin() bool {
	return r.Outcome == Win || r.Outcome == Blackjack
}
