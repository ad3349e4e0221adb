package game

// ShoeInfo summarises the shoe for display.
type ShoeInfo struct {
	Remaining    int     `json:"remaining"`
	Penetration  float64 `json:"penetration"`
	RunningCount int     `json:"running_count"`
	TrueCount    float64 `json:"true_count"`
	NumDecks     int     `json:"num_decks"`
}

// Snapshot is a serialisable view of the table.
type Snapshot struct {
	State            State      `json:"state"`
	DealerHand       HandView   `json:"dealer_hand"`
	PlayerHands      []HandView `json:"player_hands"`
	CurrentHandIndex int        `json:"current_hand_index"`
	Bankroll         int        `json:"bankroll"`
	ValidActions     ActionSet  `json:"valid_actions"`
	ShoeInfo         ShoeInfo   `json:"shoe_info"`
}

// Snapshot captures the table. While the player is acting the dealer's hole
// card is withheld and only the up card's value is shown.
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		State:            g.state,
		DealerHand:       g.dealer.View(),
		PlayerHands:      make([]HandView, len(g.hands)),
		CurrentHandIndex: g.current,
		Bankroll:         g.bankroll,
		ValidActions:     g.ValidActions(),
		ShoeInfo: ShoeInfo{
			Remaining:    g.shoe.Remaining(),
			Penetration:  g.shoe.Penetration(),
			RunningCount: g.shoe.RunningCount(),
			TrueCount:    g.shoe.TrueCount(),
			NumDecks:     g.shoe.NumDecks(),
		},
	}
	for i, h := range g.hands {
		s.PlayerHands[i] = h.View()
	}

	if g.state == PlayerTurn && len(g.dealer.Cards) > 1 {
		up := NewHand(g.dealer.Cards[0])
		s.DealerHand = up.View()
		s.DealerHand.Hidden = true
	}
	return s
}
