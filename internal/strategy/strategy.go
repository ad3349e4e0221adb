package strategy

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjacksim/internal/deck"
	"github.com/lox/blackjacksim/internal/game"
)

type deviationAction int

const (
	devHit deviationAction = iota
	devStand
	devDouble
	devSurrender
	devNoSplit
)

func parseDeviationAction(s string) (deviationAction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case DeviationHit:
		return devHit, nil
	case DeviationStand:
		return devStand, nil
	case DeviationDouble:
		return devDouble, nil
	case DeviationSurrender:
		return devSurrender, nil
	case DeviationNoSplit:
		return devNoSplit, nil
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

type comparison func(trueCount, threshold float64) bool

func parseComparison(s string) (comparison, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case Greater:
		return func(tc, th float64) bool { return tc > th }, nil
	case GreaterEqual:
		return func(tc, th float64) bool { return tc >= th }, nil
	case Less:
		return func(tc, th float64) bool { return tc < th }, nil
	case LessEqual:
		return func(tc, th float64) bool { return tc <= th }, nil
	case Always:
		return func(float64, float64) bool { return true }, nil
	}
	return nil, fmt.Errorf("unknown comparison %q", s)
}

// rule is a compiled Deviation.
type rule struct {
	name        string
	playerTotal int
	dealerCard  int
	action      deviationAction
	threshold   float64
	matches     comparison
}

// Strategy is a table-driven blackjack player: basic strategy, count-triggered
// deviations and count-based bet sizing, all driven by a Config.
//
// A Strategy is a game.CardObserver; register it with the game so its count
// follows the shoe.
type Strategy struct {
	cfg     Config
	counter *Counter
	rules   []rule
	bets    *bettor
	logger  *log.Logger
}

// New builds a strategy for a shoe of numDecks decks. Entries of cfg that
// cannot be used are skipped with a warning and bad betting values fall back
// to one flat unit.
func New(cfg Config, numDecks int, logger *log.Logger) *Strategy {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	name := cfg.Name
	if name == "" {
		name = "custom"
	}
	logger = logger.WithPrefix("strategy").With("name", name)

	s := &Strategy{
		cfg:    cfg.Clone(),
		logger: logger,
	}
	s.counter = NewCounter(s.compileCardValues(), cfg.Counting.AceAdjustment, numDecks)
	s.rules = s.compileDeviations()
	s.cfg.Betting = s.normalizeBetting(cfg.Betting)
	s.bets = newBettor(s.cfg.Betting)
	return s
}

func (s *Strategy) compileCardValues() map[deck.Rank]int {
	values := make(map[deck.Rank]int, len(deck.Ranks))
	if len(s.cfg.Counting.CardValues) == 0 {
		for _, r := range deck.Ranks {
			values[r] = r.HiLo()
		}
		return values
	}
	for name, v := range s.cfg.Counting.CardValues {
		r, err := deck.ParseRank(name)
		if err != nil {
			s.logger.Warn("Skipping card value", "rank", name, "error", err)
			continue
		}
		values[r] = v
	}
	return values
}

func (s *Strategy) compileDeviations() []rule {
	rules := make([]rule, 0, len(s.cfg.Deviations))
	for _, name := range s.cfg.DeviationNames() {
		d := s.cfg.Deviations[name]
		if err := d.validate(); err != nil {
			s.logger.Warn("Skipping deviation", "deviation", name, "error", err)
			continue
		}
		action, _ := parseDeviationAction(d.Action)
		cmp, _ := parseComparison(d.Comparison)
		rules = append(rules, rule{
			name:        name,
			playerTotal: d.PlayerTotal,
			dealerCard:  d.DealerCard,
			action:      action,
			threshold:   d.CountThreshold,
			matches:     cmp,
		})
	}
	return rules
}

func (s *Strategy) normalizeBetting(b BettingConfig) BettingConfig {
	switch b.System {
	case "":
		b.System = SystemCount
	case SystemCount, SystemFlat, SystemMartingale, SystemReverseMartingale, SystemOneThreeTwoSix, SystemKelly:
	default:
		s.logger.Warn("Unknown betting system, betting flat", "system", b.System)
		b.System = SystemFlat
	}
	switch b.Ramp {
	case "":
		b.Ramp = RampThreshold
	case RampThreshold, RampAbsolute:
	default:
		s.logger.Warn("Unknown bet ramp, using threshold ramp", "ramp", b.Ramp)
		b.Ramp = RampThreshold
	}
	if b.CountIncrement <= 0 {
		if b.System == SystemCount {
			s.logger.Warn("Invalid count increment, using 1", "increment", b.CountIncrement)
		}
		b.CountIncrement = 1
	}
	if b.MaxBetUnits < 1 {
		s.logger.Warn("Invalid max bet units, using 1", "max_bet_units", b.MaxBetUnits)
		b.MaxBetUnits = 1
	}
	return b
}

// Config returns a copy of the configuration the strategy was built from, with
// betting fallbacks applied.
func (s *Strategy) Config() Config { return s.cfg.Clone() }

// Name returns the strategy name.
func (s *Strategy) Name() string { return s.cfg.Name }

// Counter exposes the count state.
func (s *Strategy) Counter() *Counter { return s.counter }

// ObserveCard implements game.CardObserver.
func (s *Strategy) ObserveCard(card deck.Card) {
	s.counter.Observe(card)
}

// ResetCount implements game.CardObserver.
func (s *Strategy) ResetCount() {
	s.counter.Reset()
}

// TrueCount returns the current ace-adjusted true count.
func (s *Strategy) TrueCount() float64 {
	return s.counter.TrueCount()
}

// Decide returns the action for hand against the dealer's up card at the given
// true count. Deviations are checked in name order before basic strategy.
func (s *Strategy) Decide(hand *game.Hand, up deck.Card, canSplit bool, trueCount float64) game.Action {
	total := hand.Value()
	dealer := up.Value()

	for _, r := range s.rules {
		if r.playerTotal != total || r.dealerCard != dealer || !r.matches(trueCount, r.threshold) {
			continue
		}
		switch r.action {
		case devHit:
			return game.Hit
		case devStand:
			return game.Stand
		case devDouble:
			if hand.CanDouble() {
				return game.Double
			}
		case devSurrender:
			if len(hand.Cards) == 2 && !hand.IsSplit {
				return game.Surrender
			}
		case devNoSplit:
			if canSplit && wouldSplit(hand, up) {
				return game.Stand
			}
		}
	}
	return Basic(hand, up, canSplit)
}

// Action decides using the strategy's own true count.
func (s *Strategy) Action(hand *game.Hand, up deck.Card, canSplit bool) game.Action {
	return s.Decide(hand, up, canSplit, s.counter.TrueCount())
}

// BetUnits returns the count system's bet in table minimums at trueCount.
func (s *Strategy) BetUnits(trueCount float64) int {
	b := s.cfg.Betting
	if trueCount < b.CountThreshold {
		return 1
	}

	var units int
	switch b.Ramp {
	case RampAbsolute:
		units = 1 + int(math.Floor(trueCount/b.CountIncrement))
	default:
		units = 1 + int(math.Floor((trueCount-b.CountThreshold)/b.CountIncrement))
	}
	if units < 1 {
		units = 1
	}
	if units > b.MaxBetUnits {
		units = b.MaxBetUnits
	}
	return units
}

// BetAmount returns the next bet for a table with the given minimum.
func (s *Strategy) BetAmount(minBet int) int {
	if s.cfg.Betting.System == SystemCount {
		return s.bets.remember(s.BetUnits(s.counter.TrueCount()) * minBet)
	}
	return s.bets.next(minBet, s.counter.TrueCount())
}

// SettleRound feeds the last round into progression betting systems.
func (s *Strategy) SettleRound(results []game.Result, bankroll int) {
	net := 0
	for _, r := range results {
		net += r.Net
	}
	s.bets.settle(net, bankroll)
}

// ShouldTakeInsurance reports whether to insure against a dealer ace. A zero
// threshold disables insurance.
func (s *Strategy) ShouldTakeInsurance(up deck.Card) bool {
	threshold := s.cfg.Insurance.AceExcessThreshold
	if !up.IsAce() || threshold <= 0 {
		return false
	}
	return s.counter.AceExcessPerDeck() >= threshold
}

// SetBankroll tells bankroll-proportional systems the starting bankroll.
func (s *Strategy) SetBankroll(bankroll int) {
	s.bets.bankroll = bankroll
}
