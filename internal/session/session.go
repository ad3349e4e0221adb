package session

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/lox/blackjacksim/internal/advisor"
	"github.com/lox/blackjacksim/internal/game"
	"github.com/lox/blackjacksim/internal/strategy"
)

// Errors returned for requests the game rejects.
var (
	ErrNotFound         = errors.New("game session not found")
	ErrNotBetting       = errors.New("not in betting phase")
	ErrInvalidBet       = errors.New("invalid bet amount")
	ErrNotPlayerTurn    = errors.New("not player's turn")
	ErrActionNotAllowed = errors.New("action not allowed")
	ErrRoundNotOver     = errors.New("round not finished")
)

// Entry is one step in a session's history.
type Entry struct {
	Action string        `json:"action"`
	Amount int           `json:"amount,omitempty"`
	State  game.Snapshot `json:"state"`
	At     time.Time     `json:"at"`
}

// Info summarises a session for listings.
type Info struct {
	ID       string     `json:"session_id"`
	State    game.State `json:"state"`
	Bankroll int        `json:"bankroll"`
	Rounds   int        `json:"rounds"`
	Created  time.Time  `json:"created_at"`
	LastUsed time.Time  `json:"last_used_at"`
}

// Session is one interactive game. Card draws are not reentrant, so every
// method holds the session lock for the whole operation.
type Session struct {
	ID string

	mu       sync.Mutex
	game     *game.Game
	history  []Entry
	rounds   int
	clock    quartz.Clock
	created  time.Time
	lastUsed time.Time
}

func newSession(rng *rand.Rand, rules game.Rules, clock quartz.Clock) *Session {
	now := clock.Now()
	return &Session{
		ID:       uuid.NewString(),
		game:     game.New(rng, rules),
		clock:    clock,
		created:  now,
		lastUsed: now,
	}
}

func (s *Session) touch() {
	s.lastUsed = s.clock.Now()
}

func (s *Session) record(action string, amount int) game.Snapshot {
	snap := s.game.Snapshot()
	s.history = append(s.history, Entry{
		Action: action,
		Amount: amount,
		State:  snap,
		At:     s.clock.Now(),
	})
	return snap
}

// Info returns a summary of the session.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:       s.ID,
		State:    s.game.State(),
		Bankroll: s.game.Bankroll(),
		Rounds:   s.rounds,
		Created:  s.created,
		LastUsed: s.lastUsed,
	}
}

// Snapshot returns the current game state.
func (s *Session) Snapshot() game.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.game.Snapshot()
}

// Rules returns the table rules of the session.
func (s *Session) Rules() game.Rules {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Rules()
}

// Bet places a bet and deals the round.
func (s *Session) Bet(amount int) (game.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.game.State() != game.Betting {
		return game.Snapshot{}, ErrNotBetting
	}
	s.game.ReshuffleIfNeeded()
	if !s.game.PlaceBet(amount) {
		return game.Snapshot{}, fmt.Errorf("%w: %d", ErrInvalidBet, amount)
	}
	s.game.DealInitialCards()
	return s.record("bet", amount), nil
}

// Act applies a player action.
func (s *Session) Act(action game.Action) (game.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.game.State() != game.PlayerTurn {
		return game.Snapshot{}, ErrNotPlayerTurn
	}
	if !s.game.PlayerAction(action) {
		return game.Snapshot{}, fmt.Errorf("%w: %s", ErrActionNotAllowed, action)
	}
	return s.record(action.String(), 0), nil
}

// AutoPlay plays the rest of the player's turn with strat. A nil strategy
// plays basic strategy.
func (s *Session) AutoPlay(strat *strategy.Strategy) (game.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.game.State() != game.PlayerTurn {
		return game.Snapshot{}, ErrNotPlayerTurn
	}
	for s.game.State() == game.PlayerTurn {
		hand := s.game.CurrentHand()
		up, _ := s.game.DealerUpCard()
		valid := s.game.ValidActions()

		var action game.Action
		if strat != nil {
			action = strat.Decide(hand, up, valid.Contains(game.Split), s.game.Shoe().TrueCount())
		} else {
			action = strategy.Basic(hand, up, valid.Contains(game.Split))
		}
		if !valid.Contains(action) {
			action = game.Hit
		}
		if !s.game.PlayerAction(action) {
			return game.Snapshot{}, fmt.Errorf("%w: %s", ErrActionNotAllowed, action)
		}
		s.record(action.String(), 0)
	}
	return s.game.Snapshot(), nil
}

// Results returns the settled round. The bankroll is credited on first call.
func (s *Session) Results() ([]game.Result, game.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	results, err := s.game.RoundResults()
	if err != nil {
		return nil, game.Snapshot{}, fmt.Errorf("%w: %w", ErrRoundNotOver, err)
	}
	return results, s.game.Snapshot(), nil
}

// NewRound settles the finished round and returns to betting.
func (s *Session) NewRound() ([]game.Result, game.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	results, err := s.game.RoundResults()
	if err != nil {
		return nil, game.Snapshot{}, fmt.Errorf("%w: %w", ErrRoundNotOver, err)
	}
	s.game.ResetRound()
	s.rounds++
	return results, s.game.Snapshot(), nil
}

// History returns a copy of the session history.
func (s *Session) History() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return append([]Entry(nil), s.history...)
}

// Analyze advises on the pending decision.
func (s *Session) Analyze() (*advisor.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return advisor.Analyze(s.game, nil)
}
