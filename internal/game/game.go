package game

import (
	"errors"
	"fmt"
	"io"
	"math/rand"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjacksim/internal/deck"
)

// ErrNotRoundOver is returned when results are requested before the round ends.
var ErrNotRoundOver = errors.New("round is not over")

// CardObserver receives every card the game deals, exactly once and in deal
// order, and is told when the shoe reshuffles.
type CardObserver interface {
	ObserveCard(card deck.Card)
	ResetCount()
}

// Rules are the table limits and shoe parameters of a game.
type Rules struct {
	MinBet           int     `json:"min_bet"`
	MaxBet           int     `json:"max_bet"`
	NumDecks         int     `json:"num_decks"`
	ShuffleThreshold float64 `json:"shuffle_threshold"`
	StartingBankroll int     `json:"starting_bankroll"`
	HitSoft17        bool    `json:"hit_soft_17"`
}

// DefaultRules returns a six deck table with a 10-1000 spread.
func DefaultRules() Rules {
	return Rules{
		MinBet:           10,
		MaxBet:           1000,
		NumDecks:         6,
		ShuffleThreshold: 0.25,
		StartingBankroll: 1000,
	}
}

// Validate checks the rules for consistency.
func (r Rules) Validate() error {
	if r.MinBet <= 0 {
		return fmt.Errorf("min bet must be positive, got %d", r.MinBet)
	}
	if r.MaxBet < r.MinBet {
		return fmt.Errorf("max bet %d is below min bet %d", r.MaxBet, r.MinBet)
	}
	if r.NumDecks < 1 {
		return fmt.Errorf("need at least one deck, got %d", r.NumDecks)
	}
	if r.ShuffleThreshold < 0 || r.ShuffleThreshold >= 1 {
		return fmt.Errorf("shuffle threshold must be in [0, 1), got %g", r.ShuffleThreshold)
	}
	if r.StartingBankroll < 0 {
		return fmt.Errorf("starting bankroll cannot be negative, got %d", r.StartingBankroll)
	}
	return nil
}

// Option configures a Game during creation.
type Option func(*Game)

// WithShoe replaces the shoe built from the rules, e.g. with a stacked shoe.
func WithShoe(shoe *deck.Shoe) Option {
	return func(g *Game) {
		g.shoe = shoe
	}
}

// WithObserver registers the card observer.
func WithObserver(o CardObserver) Option {
	return func(g *Game) {
		g.observer = o
	}
}

// WithLogger sets the logger used for shoe events.
func WithLogger(logger *log.Logger) Option {
	return func(g *Game) {
		g.logger = logger
	}
}

// Game is a single-seat blackjack table running one round at a time.
type Game struct {
	rules    Rules
	shoe     *deck.Shoe
	dealer   *Hand
	hands    []*Hand
	current  int
	bankroll int
	state    State
	observer CardObserver
	logger   *log.Logger

	results []Result // cached once the round is settled
}

// New creates a game in the Betting state. The RNG is required so every shoe
// is reproducible from its seed.
func New(rng *rand.Rand, rules Rules, opts ...Option) *Game {
	if rng == nil {
		panic("rng is required for game creation")
	}

	g := &Game{
		rules:    rules,
		bankroll: rules.StartingBankroll,
		state:    Betting,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.shoe == nil {
		g.shoe = deck.NewShoe(rng, rules.NumDecks, rules.ShuffleThreshold)
	}
	if g.logger == nil {
		g.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	g.resetHands()
	return g
}

func (g *Game) resetHands() {
	g.dealer = NewHand()
	g.hands = []*Hand{NewHand()}
	g.current = 0
	g.results = nil
}

// SetObserver replaces the card observer. A nil observer disables forwarding.
func (g *Game) SetObserver(o CardObserver) {
	g.observer = o
}

// draw is the only path that takes cards from the shoe. Every card is passed to
// the observer, and a reshuffle caused by the deal resets the observer's count.
func (g *Game) draw() deck.Card {
	before := g.shoe.Shuffles()
	card, ok := g.shoe.Deal()
	if !ok {
		g.logger.Warn("Shoe exhausted, reshuffling", "remaining", g.shoe.Remaining())
		g.shoe.Shuffle()
		g.resetCount()
		before = g.shoe.Shuffles()
		card, _ = g.shoe.Deal()
	}

	if g.observer != nil {
		g.observer.ObserveCard(card)
	}
	if g.shoe.Shuffles() != before {
		g.logger.Debug("Shoe reshuffled", "shuffles", g.shoe.Shuffles())
		g.resetCount()
	}
	return card
}

func (g *Game) resetCount() {
	if g.observer != nil {
		g.observer.ResetCount()
	}
}

// ReshuffleIfNeeded shuffles the shoe between rounds when it has reached its
// threshold and resets the observer's count. It reports whether it shuffled.
func (g *Game) ReshuffleIfNeeded() bool {
	if g.state != Betting || !g.shoe.NeedsShuffle() {
		return false
	}
	g.shoe.Shuffle()
	g.resetCount()
	g.logger.Debug("Shoe reshuffled between rounds", "shuffles", g.shoe.Shuffles())
	return true
}

// PlaceBet stakes amount on the next round. Placing a second bet in the same
// Betting phase replaces the first.
func (g *Game) PlaceBet(amount int) bool {
	if g.state != Betting {
		return false
	}
	hand := g.hands[0]
	available := g.bankroll + hand.Bet
	if amount < g.rules.MinBet || amount > g.rules.MaxBet || amount > available {
		return false
	}
	g.bankroll = available - amount
	hand.Bet = amount
	return true
}

// DealInitialCards deals player, dealer, player, dealer and resolves naturals.
func (g *Game) DealInitialCards() bool {
	if g.state != Betting || g.hands[0].Bet <= 0 {
		return false
	}

	bet := g.hands[0].Bet
	g.resetHands()
	player := g.hands[0]
	player.Bet = bet

	player.Add(g.draw())
	g.dealer.Add(g.draw())
	player.Add(g.draw())
	g.dealer.Add(g.draw())

	switch {
	case player.IsBlackjack():
		// Settled against the dealer's two cards, no draw required.
		g.state = DealerTurn
		g.playDealer()
	case g.dealer.IsBlackjack():
		g.state = RoundOver
	default:
		g.state = PlayerTurn
	}
	return true
}

// ValidActions returns the actions available on the current hand. Outside
// PlayerTurn the set is empty.
func (g *Game) ValidActions() ActionSet {
	if g.state != PlayerTurn || g.current >= len(g.hands) {
		return 0
	}
	hand := g.hands[g.current]

	set := NewActionSet(Hit, Stand)
	if hand.CanDouble() && hand.Bet <= g.bankroll {
		set = set.With(Double)
	}
	if hand.CanSplit() && hand.Bet <= g.bankroll {
		set = set.With(Split)
	}
	if len(hand.Cards) == 2 && !hand.IsSplit {
		set = set.With(Surrender)
	}
	return set
}

// PlayerAction applies a to the current hand. It returns false, leaving the
// game untouched, when a is not currently valid.
func (g *Game) PlayerAction(a Action) bool {
	if !g.ValidActions().Contains(a) {
		return false
	}
	hand := g.hands[g.current]

	switch a {
	case Hit:
		hand.Add(g.draw())
		if hand.IsBust() {
			g.advance()
		}
	case Stand:
		g.advance()
	case Double:
		g.bankroll -= hand.Bet
		hand.Bet *= 2
		hand.Doubled = true
		hand.Add(g.draw())
		g.advance()
	case Split:
		g.split(hand)
	case Surrender:
		g.bankroll += hand.Bet / 2
		hand.SurrenderedBet = hand.Bet
		hand.Bet = 0
		hand.Surrendered = true
		g.advance()
	}
	return true
}

// split moves the second card into a new hand placed right after the current
// one. Only the new hand is marked split, so the hand left in place may still
// draw to a natural.
func (g *Game) split(hand *Hand) {
	g.bankroll -= hand.Bet

	second := hand.Cards[1]
	hand.Cards = hand.Cards[:1]

	sibling := NewHand(second)
	sibling.Bet = hand.Bet
	sibling.IsSplit = true

	g.hands = append(g.hands, nil)
	copy(g.hands[g.current+2:], g.hands[g.current+1:])
	g.hands[g.current+1] = sibling

	hand.Add(g.draw())
	sibling.Add(g.draw())
}

func (g *Game) advance() {
	g.current++
	if g.current >= len(g.hands) {
		g.state = DealerTurn
		g.playDealer()
	}
}

// playDealer draws the dealer's hand. The dealer skips drawing when no player
// hand is still waiting on the dealer's total.
func (g *Game) playDealer() {
	if g.state != DealerTurn {
		return
	}
	if g.needsDealerDraw() {
		for g.dealerShouldHit() {
			g.dealer.Add(g.draw())
		}
	}
	g.state = RoundOver
}

func (g *Game) needsDealerDraw() bool {
	for _, h := range g.hands {
		if !h.IsBust() && !h.Surrendered && !h.IsBlackjack() {
			return true
		}
	}
	return false
}

func (g *Game) dealerShouldHit() bool {
	v := g.dealer.Value()
	if v < 17 {
		return true
	}
	return g.rules.HitSoft17 && v == 17 && g.dealer.IsSoft()
}

// RoundResults settles the round. Payouts are credited to the bankroll the
// first time it is called; later calls return the same results.
func (g *Game) RoundResults() ([]Result, error) {
	if g.state != RoundOver {
		return nil, fmt.Errorf("round results in state %s: %w", g.state, ErrNotRoundOver)
	}
	if g.results == nil {
		g.results = make([]Result, 0, len(g.hands))
		for _, h := range g.hands {
			r := settle(h, g.dealer)
			g.bankroll += r.Payout
			g.results = append(g.results, r)
		}
	}
	return append([]Result(nil), g.results...), nil
}

// ResetRound clears the hands and returns to Betting. The shoe and bankroll
// are not touched.
func (g *Game) ResetRound() {
	g.resetHands()
	g.state = Betting
}

// State returns the current round state.
func (g *Game) State() State { return g.state }

// Rules returns the table rules.
func (g *Game) Rules() Rules { return g.rules }

// Bankroll returns the player's bankroll, excluding money on the table.
func (g *Game) Bankroll() int { return g.bankroll }

// SetBankroll overrides the bankroll. Only allowed between rounds.
func (g *Game) SetBankroll(amount int) bool {
	if g.state != Betting || amount < 0 {
		return false
	}
	g.bankroll = amount
	return true
}

// Shoe returns the game's shoe. Callers must not deal from it directly.
func (g *Game) Shoe() *deck.Shoe { return g.shoe }

// CurrentHandIndex returns the index of the hand being played.
func (g *Game) CurrentHandIndex() int { return g.current }

// CurrentHand returns a copy of the hand being played, or nil once every hand
// has been played.
func (g *Game) CurrentHand() *Hand {
	if g.current >= len(g.hands) {
		return nil
	}
	return g.hands[g.current].Clone()
}

// Hands returns copies of the player's hands.
func (g *Game) Hands() []*Hand {
	out := make([]*Hand, len(g.hands))
	for i, h := range g.hands {
		out[i] = h.Clone()
	}
	return out
}

// DealerHand returns a copy of the dealer's hand, hole card included.
func (g *Game) DealerHand() *Hand {
	return g.dealer.Clone()
}

// DealerUpCard returns the dealer's face-up card.
func (g *Game) DealerUpCard() (deck.Card, bool) {
	if len(g.dealer.Cards) == 0 {
		return deck.Card{}, false
	}
	return g.dealer.Cards[0], true
}
