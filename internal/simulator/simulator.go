package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjacksim/internal/game"
	"github.com/lox/blackjacksim/internal/statistics"
	"github.com/lox/blackjacksim/internal/strategy"
)

// ErrRoundStuck is returned when the game rejects every action the simulator
// can offer, which means the game and strategy disagree about the rules.
var ErrRoundStuck = errors.New("round cannot progress")

// DefaultProgressEvery is how often Progress is called when no interval is set.
const DefaultProgressEvery = 1000

// Config holds configuration for running simulations
type Config struct {
	Rules         game.Rules
	Hands         int
	Seed          int64
	Logger        *log.Logger
	Clock         quartz.Clock
	Progress      func(done, total int)
	ProgressEvery int
}

// Result is the outcome of a single simulation run.
type Result struct {
	Strategy string `json:"strategy"`
	Seed     int64  `json:"seed"`

	Hands       int `json:"hands"`        // rounds played
	PlayerHands int `json:"player_hands"` // settled hands including splits
	Wins        int `json:"wins"`
	Losses      int `json:"losses"`
	Pushes      int `json:"pushes"`
	Blackjacks  int `json:"blackjacks"`
	Surrenders  int `json:"surrenders"`
	Doubles     int `json:"doubles"`
	Splits      int `json:"splits"`

	StartingBankroll int  `json:"starting_bankroll"`
	EndingBankroll   int  `json:"ending_bankroll"`
	ProfitLoss       int  `json:"profit_loss"`
	MaxBankroll      int  `json:"max_bankroll"`
	MinBankroll      int  `json:"min_bankroll"`
	BustOut          bool `json:"bust_out"`

	TotalWagered int     `json:"total_wagered"`
	TotalNet     int     `json:"total_net"`
	WinRate      float64 `json:"win_rate"`
	ROI          float64 `json:"roi"`
	BankrollROI  float64 `json:"bankroll_roi"`
	AverageBet   float64 `json:"average_bet"`

	// Rounds opened at each bet size, in units of the table minimum
	BetDistribution map[int]int `json:"bet_distribution"`

	// Per-round net in table minimums
	MeanUnits   float64 `json:"mean_units"`
	StdDevUnits float64 `json:"std_dev_units"`
	CI95Low     float64 `json:"ci95_low"`
	CI95High    float64 `json:"ci95_high"`
	MedianUnits float64 `json:"median_units"`

	HandsPerHour   float64 `json:"hands_per_hour"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// Simulator plays rounds of blackjack with a strategy
type Simulator struct {
	config Config
	logger *log.Logger
	clock  quartz.Clock
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	logger := config.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	clock := config.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}
	if config.ProgressEvery <= 0 {
		config.ProgressEvery = DefaultProgressEvery
	}
	return &Simulator{
		config: config,
		logger: logger.WithPrefix("simulator"),
		clock:  clock,
	}
}

// Config returns the simulator configuration.
func (s *Simulator) Config() Config {
	return s.config
}

// Run plays up to config.Hands rounds with strat, stopping early when the
// bankroll falls below the table minimum. The strategy's count is driven by
// the game as cards are dealt. Cancellation is checked between rounds.
func (s *Simulator) Run(ctx context.Context, strat *strategy.Strategy) (*Result, error) {
	rules := s.config.Rules
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	if s.config.Hands <= 0 {
		return nil, fmt.Errorf("hands must be positive, got %d", s.config.Hands)
	}

	rng := rand.New(rand.NewSource(s.config.Seed))
	g := game.New(rng, rules, game.WithObserver(strat), game.WithLogger(s.logger))
	strat.ResetCount()
	strat.SetBankroll(g.Bankroll())

	stats := &statistics.Statistics{}
	result := &Result{
		Strategy:         strat.Name(),
		Seed:             s.config.Seed,
		StartingBankroll: g.Bankroll(),
		MaxBankroll:      g.Bankroll(),
		MinBankroll:      g.Bankroll(),
	}

	s.logger.Debug("Starting simulation", "strategy", strat.Name(), "hands", s.config.Hands, "seed", s.config.Seed)
	start := s.clock.Now()

	for stats.Rounds < s.config.Hands {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if g.Bankroll() < rules.MinBet {
			s.logger.Debug("Bust out", "round", stats.Rounds, "bankroll", g.Bankroll())
			break
		}

		g.ReshuffleIfNeeded()

		trueCount := strat.TrueCount()
		bet := clampBet(strat.BetAmount(rules.MinBet), rules, g.Bankroll())
		if !g.PlaceBet(bet) {
			return nil, fmt.Errorf("bet %d rejected with bankroll %d: %w", bet, g.Bankroll(), ErrRoundStuck)
		}
		if !g.DealInitialCards() {
			return nil, fmt.Errorf("deal rejected on round %d: %w", stats.Rounds+1, ErrRoundStuck)
		}
		if err := s.playRound(g, strat); err != nil {
			return nil, fmt.Errorf("round %d: %w", stats.Rounds+1, err)
		}

		results, err := g.RoundResults()
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", stats.Rounds+1, err)
		}
		stats.Add(statistics.RoundResult{
			Results:   results,
			Bet:       bet,
			MinBet:    rules.MinBet,
			TrueCount: trueCount,
		})
		strat.SettleRound(results, g.Bankroll())

		result.MaxBankroll = max(result.MaxBankroll, g.Bankroll())
		result.MinBankroll = min(result.MinBankroll, g.Bankroll())
		g.ResetRound()

		if s.config.Progress != nil && (stats.Rounds%s.config.ProgressEvery == 0 || stats.Rounds == s.config.Hands) {
			s.config.Progress(stats.Rounds, s.config.Hands)
		}
	}

	elapsed := s.clock.Since(start)
	result.EndingBankroll = g.Bankroll()
	result.BustOut = g.Bankroll() < rules.MinBet

	if stats.Rounds > 0 {
		if err := stats.Validate(); err != nil {
			return nil, fmt.Errorf("statistics validation failed: %w", err)
		}
	}
	if result.StartingBankroll+stats.TotalNet != result.EndingBankroll {
		return nil, fmt.Errorf("bankroll drifted: start %d + net %d != end %d",
			result.StartingBankroll, stats.TotalNet, result.EndingBankroll)
	}

	result.fill(stats, elapsed)
	s.logger.Debug("Simulation complete",
		"rounds", result.Hands,
		"roi", result.ROI,
		"ending_bankroll", result.EndingBankroll,
		"bust_out", result.BustOut)
	return result, nil
}

// playRound drives every player decision until the round leaves PlayerTurn.
func (s *Simulator) playRound(g *game.Game, strat *strategy.Strategy) error {
	for g.State() == game.PlayerTurn {
		hand := g.CurrentHand()
		up, _ := g.DealerUpCard()
		valid := g.ValidActions()

		action := strat.Action(hand, up, valid.Contains(game.Split))
		if action == game.Split && !valid.Contains(game.Split) {
			action = strat.Action(hand, up, false)
		}
		action = fallback(action, valid)

		if !g.PlayerAction(action) {
			return fmt.Errorf("%s rejected on %s: %w", action, hand, ErrRoundStuck)
		}
	}
	return nil
}

// fallback replaces an action the table will not accept right now.
func fallback(action game.Action, valid game.ActionSet) game.Action {
	if valid.Contains(action) {
		return action
	}
	switch action {
	case game.Double, game.Split, game.Surrender:
		return game.Hit
	default:
		return game.Stand
	}
}

// clampBet limits a requested bet to the table limits and what the player can
// afford.
func clampBet(bet int, rules game.Rules, bankroll int) int {
	bet = min(bet, bankroll, rules.MaxBet)
	return max(bet, rules.MinBet)
}

func (r *Result) fill(stats *statistics.Statistics, elapsed time.Duration) {
	r.Hands = stats.Rounds
	r.PlayerHands = stats.Hands
	r.Wins = stats.Wins
	r.Losses = stats.Losses
	r.Pushes = stats.Pushes
	r.Blackjacks = stats.Blackjacks
	r.Surrenders = stats.Surrenders
	r.Doubles = stats.Doubles
	r.Splits = stats.Splits

	r.ProfitLoss = r.EndingBankroll - r.StartingBankroll
	r.TotalWagered = stats.TotalWagered
	r.TotalNet = stats.TotalNet
	r.WinRate = stats.WinRate()
	r.ROI = stats.ROI()
	if r.StartingBankroll > 0 {
		r.BankrollROI = float64(r.ProfitLoss) / float64(r.StartingBankroll)
	}
	r.AverageBet = stats.AverageBet()

	r.BetDistribution = make(map[int]int, len(stats.BetSizes))
	for units, bs := range stats.BetSizes {
		r.BetDistribution[units] = bs.Rounds
	}

	r.MeanUnits = stats.Mean()
	r.StdDevUnits = stats.StdDev()
	r.CI95Low, r.CI95High = stats.ConfidenceInterval95()
	r.MedianUnits = stats.Median()

	r.ElapsedSeconds = elapsed.Seconds()
	if elapsed > 0 {
		r.HandsPerHour = float64(stats.Rounds) / elapsed.Hours()
	}
}

// RunSimulation is a convenience function that builds a strategy from cfg and
// runs it once.
func RunSimulation(ctx context.Context, config Config, cfg strategy.Config) (*Result, error) {
	sim := New(config)
	strat := strategy.New(cfg, config.Rules.NumDecks, sim.logger)
	return sim.Run(ctx, strat)
}
