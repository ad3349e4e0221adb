package session

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjacksim/internal/game"
	"github.com/lox/blackjacksim/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, *quartz.Mock) {
	t.Helper()
	clock := quartz.NewMock(t)
	return NewStore(Config{
		TTL:    time.Minute,
		Seed:   7,
		Clock:  clock,
		Logger: log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel}),
	}), clock
}

func finishTurn(t *testing.T, s *Session) {
	t.Helper()
	for s.Snapshot().State == game.PlayerTurn {
		_, err := s.Act(game.Stand)
		require.NoError(t, err)
	}
}

func TestCreateAndGet(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	s, err := store.Create(game.DefaultRules())
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)

	got, err := store.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	bad := game.DefaultRules()
	bad.MinBet = 0
	_, err = store.Create(bad)
	assert.Error(t, err)
}

func TestRoundLifecycle(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	s, err := store.Create(game.DefaultRules())
	require.NoError(t, err)

	_, err = s.Act(game.Hit)
	assert.ErrorIs(t, err, ErrNotPlayerTurn)
	_, _, err = s.NewRound()
	assert.ErrorIs(t, err, ErrRoundNotOver)

	_, err = s.Bet(5)
	assert.ErrorIs(t, err, ErrInvalidBet)

	snap, err := s.Bet(10)
	require.NoError(t, err)
	assert.Contains(t, []game.State{game.PlayerTurn, game.RoundOver}, snap.State)
	assert.Equal(t, 990, snap.Bankroll)

	_, err = s.Bet(10)
	assert.ErrorIs(t, err, ErrNotBetting)

	finishTurn(t, s)
	results, snap, err := s.Results()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, game.RoundOver, snap.State)
	assert.Equal(t, 1000+results[0].Net, snap.Bankroll)

	again, _, err := s.NewRound()
	require.NoError(t, err)
	assert.Equal(t, results, again, "results are settled once")

	info := s.Info()
	assert.Equal(t, game.Betting, info.State)
	assert.Equal(t, 1, info.Rounds)
	assert.Equal(t, 1000+results[0].Net, info.Bankroll)

	history := s.History()
	require.NotEmpty(t, history)
	assert.Equal(t, "bet", history[0].Action)
	assert.Equal(t, 10, history[0].Amount)
	for _, e := range history[1:] {
		assert.Equal(t, "stand", e.Action)
	}
}

func TestAutoPlay(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	s, err := store.Create(game.DefaultRules())
	require.NoError(t, err)

	strat := strategy.New(strategy.MustPreset("hilo"), 6, nil)
	played := 0
	for i := 0; i < 20; i++ {
		snap, err := s.Bet(10)
		require.NoError(t, err)
		if snap.State == game.PlayerTurn {
			var auto *strategy.Strategy
			if i%2 == 0 {
				auto = strat
			}
			snap, err = s.AutoPlay(auto)
			require.NoError(t, err)
			played++
		}
		assert.Equal(t, game.RoundOver, snap.State)
		_, _, err = s.NewRound()
		require.NoError(t, err)
	}
	assert.Positive(t, played)

	_, err = s.AutoPlay(nil)
	assert.ErrorIs(t, err, ErrNotPlayerTurn)
}

func TestAnalyzeNeedsDecision(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	s, err := store.Create(game.DefaultRules())
	require.NoError(t, err)

	_, err = s.Analyze()
	assert.Error(t, err)

	for {
		snap, err := s.Bet(10)
		require.NoError(t, err)
		if snap.State == game.PlayerTurn {
			break
		}
		_, _, err = s.NewRound()
		require.NoError(t, err)
	}
	a, err := s.Analyze()
	require.NoError(t, err)
	assert.NotEmpty(t, a.Explanation)
}

func TestExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, clock := newStore(t)

	old, err := store.Create(game.DefaultRules())
	require.NoError(t, err)
	clock.Advance(40 * time.Second).MustWait(ctx)

	fresh, err := store.Create(game.DefaultRules())
	require.NoError(t, err)

	infos := store.List()
	require.Len(t, infos, 2)
	assert.Equal(t, fresh.ID, infos[0].ID, "newest first")

	clock.Advance(30 * time.Second).MustWait(ctx)
	_, err = store.Get(old.ID)
	assert.ErrorIs(t, err, ErrNotFound, "idle for 70s")

	// using a session keeps it alive
	fresh.Snapshot()
	clock.Advance(50 * time.Second).MustWait(ctx)
	_, err = store.Get(fresh.ID)
	assert.NoError(t, err)

	clock.Advance(61 * time.Second).MustWait(ctx)
	assert.Equal(t, 1, store.Len())
	assert.Empty(t, store.List())
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 0, store.Len())
}

func TestDelete(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	s, err := store.Create(game.DefaultRules())
	require.NoError(t, err)

	require.NoError(t, store.Delete(s.ID))
	assert.ErrorIs(t, store.Delete(s.ID), ErrNotFound)
	_, err = store.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	s, err := store.Create(game.DefaultRules())
	require.NoError(t, err)
	_, err = s.Bet(10)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				s.Snapshot()
				s.History()
				_, _ = s.Act(game.Stand)
				store.List()
			}
		}()
	}
	wg.Wait()
	assert.NotEqual(t, game.PlayerTurn, s.Snapshot().State)
}
