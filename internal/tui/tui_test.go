package tui

import (
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/lox/blackjacksim/internal/game"
	"github.com/lox/blackjacksim/internal/session"
	"github.com/lox/blackjacksim/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newModel(t *testing.T, opts ...Option) (*Model, *session.Session) {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	store := session.NewStore(session.Config{Seed: 11, Logger: logger})
	sess, err := store.Create(game.DefaultRules())
	require.NoError(t, err)
	return New(sess, append([]Option{WithLogger(logger)}, opts...)...), sess
}

func logContains(m *Model, substr string) bool {
	for _, line := range m.Log() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func TestPlayRound(t *testing.T) {
	t.Parallel()

	m, sess := newModel(t)
	start := sess.Snapshot().Bankroll

	require.True(t, m.Execute("bet 20"))
	assert.True(t, logContains(m, "Bet $20"))
	assert.True(t, logContains(m, "Dealer: "))

	for sess.Snapshot().State == game.PlayerTurn {
		require.True(t, m.Execute("s"))
	}
	require.Equal(t, game.RoundOver, sess.Snapshot().State)
	assert.True(t, logContains(m, "Enter for next round"))

	results, snap, err := sess.Results()
	require.NoError(t, err)
	net := 0
	for _, r := range results {
		net += r.Net
	}
	assert.Equal(t, start+net, snap.Bankroll)

	// bare enter deals on, then repeats the last bet
	require.True(t, m.Execute(""))
	assert.Equal(t, game.Betting, sess.Snapshot().State)
	require.True(t, m.Execute(""))
	assert.NotEqual(t, game.Betting, sess.Snapshot().State)
	assert.Equal(t, 2, strings.Count(strings.Join(m.Log(), "\n"), "Bet $20"))
}

func TestCommandErrors(t *testing.T) {
	t.Parallel()

	m, sess := newModel(t)

	m.Execute("bet 0")
	assert.True(t, logContains(m, "invalid bet amount"))

	m.Execute("bet lots")
	assert.True(t, logContains(m, `invalid bet "lots"`))

	m.Execute("bet")
	assert.True(t, logContains(m, "usage: bet <amount>"))

	m.Execute("hit")
	assert.True(t, logContains(m, "not player's turn"))

	m.Execute("fold")
	assert.True(t, logContains(m, `unknown command "fold"`))

	m.Execute("hint")
	assert.True(t, logContains(m, "No decision to advise on"))

	m.Execute("next")
	assert.True(t, logContains(m, "Place a bet to deal"))

	assert.Equal(t, game.Betting, sess.Snapshot().State)
	assert.False(t, m.Execute("quit"))
}

// playerTurn bets until a round deals without a natural.
func playerTurn(t *testing.T, m *Model, sess *session.Session) {
	t.Helper()
	for range 20 {
		m.Execute("10")
		if sess.Snapshot().State == game.PlayerTurn {
			return
		}
		m.Execute("next")
	}
	t.Fatal("no playable round dealt")
}

func TestHintsAndAuto(t *testing.T) {
	t.Parallel()

	m, sess := newModel(t, WithHints(true))
	playerTurn(t, m, sess)
	assert.True(t, logContains(m, "Hint: "))

	require.True(t, m.Execute("auto"))
	assert.Equal(t, game.RoundOver, sess.Snapshot().State)
	assert.True(t, logContains(m, "Hand 1: "))

	m.Execute("hints off")
	assert.True(t, logContains(m, "hints off"))
}

func TestAutoWithStrategy(t *testing.T) {
	t.Parallel()

	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	strat := strategy.New(strategy.MustPreset("hilo"), game.DefaultRules().NumDecks, logger)
	m, sess := newModel(t, WithStrategy(strat))
	playerTurn(t, m, sess)

	require.True(t, m.Execute("a"))
	assert.Equal(t, game.RoundOver, sess.Snapshot().State)
}

func TestKeys(t *testing.T) {
	t.Parallel()

	m, sess := newModel(t)
	assert.Equal(t, "Loading...", m.View())

	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	view := m.View()
	assert.Contains(t, view, "Bankroll: $")
	assert.Contains(t, view, "Place your bet")

	m.actionInput.SetValue("bet 15")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.NotEqual(t, game.Betting, sess.Snapshot().State)
	assert.Empty(t, m.actionInput.Value())

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 0, m.focusedPane)
	assert.Contains(t, m.View(), "Log focused")
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, m.focusedPane)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.NotNil(t, cmd)
	assert.Empty(t, m.View())
}
