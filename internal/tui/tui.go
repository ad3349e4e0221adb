package tui

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/blackjacksim/internal/deck"
	"github.com/lox/blackjacksim/internal/game"
	"github.com/lox/blackjacksim/internal/session"
	"github.com/lox/blackjacksim/internal/strategy"
)

const helpText = "Commands: bet <n>, hit (h), stand (s), double (d), split (p), surrender (r), " +
	"auto, hint, hints on|off, next, quit. Enter repeats the last bet or deals the next round."

// Model is the Bubble Tea model for an interactive blackjack session.
type Model struct {
	sess   *session.Session
	auto   *strategy.Strategy // nil plays basic strategy
	logger *log.Logger

	// UI components
	logViewport viewport.Model
	actionInput textinput.Model

	// log holds rendered lines, plain the same lines unstyled
	log   []string
	plain []string

	lastBet     int
	hints       bool
	focusedPane int // 0 = log, 1 = input
	quitting    bool

	// Dimensions
	width       int
	height      int
	initialized bool
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger.WithPrefix("tui")
		}
	}
}

// WithStrategy sets the strategy used by the auto command. It should track
// the same shoe as the session it plays.
func WithStrategy(s *strategy.Strategy) Option {
	return func(m *Model) { m.auto = s }
}

// WithHints logs advice whenever a decision is pending.
func WithHints(on bool) Option {
	return func(m *Model) { m.hints = on }
}

// New creates a model playing sess.
func New(sess *session.Session, opts ...Option) *Model {
	// sized properly when WindowSizeMsg arrives
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "bet 10"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.PromptStyle = promptStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	m := &Model{
		sess:        sess,
		logger:      log.NewWithOptions(io.Discard, log.Options{}),
		logViewport: vp,
		actionInput: ti,
		focusedPane: 1,
	}
	for _, opt := range opts {
		opt(m)
	}

	snap := sess.Snapshot()
	m.lastBet = sess.Rules().MinBet
	m.addLog(HeaderStyle, fmt.Sprintf(" Blackjack: %d decks, bankroll $%d ", snap.ShoeInfo.NumDecks, snap.Bankroll))
	m.addLog(InfoStyle, helpText)
	return m
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.logger.Debug("Updating dimensions", "width", msg.Width, "height", msg.Height)
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.actionInput.Focus()
			} else {
				m.focusedPane = 0
				m.actionInput.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				input := m.actionInput.Value()
				m.actionInput.SetValue("")
				if !m.Execute(input) {
					m.quitting = true
					return m, tea.Sequence(tea.ClearScreen, tea.Quit)
				}
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "pgup", "b":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageUp()
			}
		case "pgdown", "f":
			if m.focusedPane == 0 {
				m.logViewport.HalfPageDown()
			}
		case "home", "g":
			if m.focusedPane == 0 {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.actionInput, cmd = m.actionInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// Execute runs one typed command against the session. It returns false
// when the player asked to quit.
func (m *Model) Execute(input string) bool {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(input)))
	if len(fields) == 0 {
		m.continueRound()
		return true
	}

	cmd, args := fields[0], fields[1:]
	m.logger.Debug("Command", "command", cmd, "args", args)

	switch cmd {
	case "quit", "q", "exit":
		return false
	case "help", "?":
		m.addLog(InfoStyle, helpText)
	case "bet", "b":
		if len(args) != 1 {
			m.addLog(LossStyle, "usage: bet <amount>")
			return true
		}
		m.bet(args[0])
	case "auto", "a":
		snap, err := m.sess.AutoPlay(m.auto)
		if err != nil {
			m.addLog(LossStyle, err.Error())
			return true
		}
		m.afterAction(snap)
	case "hint":
		m.hint()
	case "hints":
		m.hints = len(args) == 0 || args[0] != "off"
		m.addLog(InfoStyle, fmt.Sprintf("hints %s", onOff(m.hints)))
	case "next", "n", "deal":
		m.nextRound()
	default:
		if _, err := strconv.Atoi(cmd); err == nil {
			m.bet(cmd)
			return true
		}
		action, err := game.ParseAction(cmd)
		if err != nil {
			m.addLog(LossStyle, fmt.Sprintf("unknown command %q, type help", cmd))
			return true
		}
		snap, err := m.sess.Act(action)
		if err != nil {
			m.addLog(LossStyle, err.Error())
			return true
		}
		m.addLog(ActionsStyle, fmt.Sprintf("You %s", action))
		m.afterAction(snap)
	}
	return true
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// continueRound handles a bare enter: repeat the last bet, or deal on.
func (m *Model) continueRound() {
	switch m.sess.Snapshot().State {
	case game.Betting:
		m.bet(strconv.Itoa(m.lastBet))
	case game.RoundOver:
		m.nextRound()
	default:
		m.addLog(InfoStyle, "Your move: "+m.validActions(m.sess.Snapshot()))
	}
}

func (m *Model) bet(arg string) {
	amount, err := strconv.Atoi(arg)
	if err != nil {
		m.addLog(LossStyle, fmt.Sprintf("invalid bet %q", arg))
		return
	}
	snap, err := m.sess.Bet(amount)
	if err != nil {
		m.addLog(LossStyle, err.Error())
		return
	}
	m.lastBet = amount
	m.addLog(ActionsStyle, fmt.Sprintf("Bet $%d", amount))
	m.afterAction(snap)
}

func (m *Model) nextRound() {
	snap := m.sess.Snapshot()
	if snap.State == game.Betting {
		m.addLog(InfoStyle, "Place a bet to deal")
		return
	}
	if _, _, err := m.sess.NewRound(); err != nil {
		m.addLog(LossStyle, err.Error())
		return
	}
	m.addLog(InfoStyle, fmt.Sprintf("Bankroll $%d, bet or press enter for $%d", m.sess.Snapshot().Bankroll, m.lastBet))
}

func (m *Model) hint() {
	a, err := m.sess.Analyze()
	if err != nil {
		m.addLog(InfoStyle, "No decision to advise on")
		return
	}
	m.addLog(HintStyle, fmt.Sprintf("Hint: %s (bust %.0f%%, dealer bust %.0f%%, true count %+.1f)",
		a.Explanation, a.BustProbability*100, a.DealerBustProbability*100, a.TrueCount))
}

// afterAction logs the table and settles the round once it is over.
func (m *Model) afterAction(snap game.Snapshot) {
	m.addLog(lipgloss.NewStyle(), "Dealer: "+m.formatHand(snap.DealerHand))
	for i, h := range snap.PlayerHands {
		label := "You"
		if len(snap.PlayerHands) > 1 {
			label = fmt.Sprintf("Hand %d", i+1)
		}
		m.addLog(lipgloss.NewStyle(), fmt.Sprintf("%s: %s", label, m.formatHand(h)))
	}

	switch snap.State {
	case game.PlayerTurn:
		if m.hints {
			m.hint()
		}
	case game.RoundOver:
		m.settle()
	}
}

func (m *Model) settle() {
	results, snap, err := m.sess.Results()
	if err != nil {
		if !errors.Is(err, session.ErrRoundNotOver) {
			m.logger.Error("Failed to settle round", "error", err)
		}
		m.addLog(LossStyle, err.Error())
		return
	}
	net := 0
	for i, r := range results {
		net += r.Net
		style := InfoStyle
		switch {
		case r.Net > 0:
			style = WinStyle
		case r.Net < 0:
			style = LossStyle
		}
		m.addLog(style, fmt.Sprintf("Hand %d: %s %s (%d vs %d)", i+1, r.Outcome, signedMoney(r.Net), r.PlayerValue, r.DealerValue))
	}
	m.addLog(InfoStyle, fmt.Sprintf("Round %s, bankroll $%d. Enter for next round", signedMoney(net), snap.Bankroll))
}

func signedMoney(n int) string {
	if n < 0 {
		return fmt.Sprintf("-$%d", -n)
	}
	return fmt.Sprintf("+$%d", n)
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	snap := m.sess.Snapshot()

	actionContent := m.renderActionPane(snap)
	actionHeight := lipgloss.Height(actionContent)
	actionPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(focusColor).
		Width(max(m.width-2, 1)).
		Height(max(actionHeight, 1)).
		Render(actionContent)

	sidebarContent := m.renderSidebarPane(snap)
	sidebarWidth := max(lipgloss.Width(sidebarContent), 25)
	paneHeight := max(m.height-lipgloss.Height(actionPane)-2, 1)

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	logWidth := max(m.width-sidebarWidth-4, 1)
	m.logViewport.Width = logWidth
	m.logViewport.Height = paneHeight
	m.logViewport.SetContent(strings.Join(m.log, "\n"))
	if !m.initialized && logWidth > 1 && paneHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logBorder := borderColor
	if m.focusedPane == 0 {
		logBorder = focusColor
	}
	logPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(logBorder).
		Width(logWidth).
		Height(paneHeight).
		Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

func (m *Model) renderSidebarPane(snap game.Snapshot) string {
	var b strings.Builder
	b.WriteString(HintStyle.Render(fmt.Sprintf("Bankroll: $%d", snap.Bankroll)))
	b.WriteString("\n\n")
	b.WriteString(InfoStyle.Render("Shoe"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "  Decks:       %d\n", snap.ShoeInfo.NumDecks)
	fmt.Fprintf(&b, "  Remaining:   %d\n", snap.ShoeInfo.Remaining)
	fmt.Fprintf(&b, "  Penetration: %.0f%%\n", snap.ShoeInfo.Penetration*100)
	fmt.Fprintf(&b, "  Running:     %+d\n", snap.ShoeInfo.RunningCount)
	fmt.Fprintf(&b, "  True:        %+.1f\n", snap.ShoeInfo.TrueCount)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Hints: %s", onOff(m.hints))
	return b.String()
}

func (m *Model) renderActionPane(snap game.Snapshot) string {
	var b strings.Builder

	switch snap.State {
	case game.PlayerTurn:
		hand := snap.PlayerHands[snap.CurrentHandIndex]
		b.WriteString(HandInfoStyle.Render(fmt.Sprintf("Hand: %s  Dealer: %s",
			m.formatHand(hand), m.formatHand(snap.DealerHand))))
		b.WriteString("\n")
		b.WriteString(ActionsStyle.Render("Actions: " + m.validActions(snap)))
		m.actionInput.Placeholder = "hit, stand, double, split, surrender, auto or hint"
	case game.RoundOver:
		b.WriteString(HandInfoStyle.Render("Round over"))
		m.actionInput.Placeholder = "Enter for next round, 'quit' to exit"
	default:
		b.WriteString(HandInfoStyle.Render(fmt.Sprintf("Place your bet ($%d-$%d)",
			m.sess.Rules().MinBet, m.sess.Rules().MaxBet)))
		m.actionInput.Placeholder = fmt.Sprintf("bet %d", m.lastBet)
	}
	b.WriteString("\n")
	b.WriteString(m.actionInput.View())
	b.WriteString("\n")

	if m.focusedPane == 0 {
		b.WriteString(InfoStyle.Render("Log focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"))
	} else {
		b.WriteString(InfoStyle.Render("Tab to scroll log • Enter to submit • Ctrl+C to quit"))
	}
	return b.String()
}

func (m *Model) validActions(snap game.Snapshot) string {
	var actions []string
	for _, a := range snap.ValidActions.Slice() {
		actions = append(actions, "["+a.String()+"]")
	}
	if len(actions) == 0 {
		return "[none]"
	}
	return strings.Join(actions, " ")
}

// formatHand renders cards with colors and the hand's value.
func (m *Model) formatHand(h game.HandView) string {
	cards := make([]string, 0, len(h.Cards)+1)
	for _, c := range h.Cards {
		cards = append(cards, formatCard(c))
	}
	if h.Hidden {
		cards = append(cards, InfoStyle.Render("??"))
	}

	value := strconv.Itoa(h.Value)
	switch {
	case h.IsBlackjack:
		value = "blackjack"
	case h.IsBust:
		value += " bust"
	case h.IsSoft:
		value = "soft " + value
	}
	if h.Doubled {
		value += ", doubled"
	}
	if h.Surrendered {
		value += ", surrendered"
	}
	if h.Bet > 0 {
		value += fmt.Sprintf(", $%d", h.Bet)
	}
	return "[" + strings.Join(cards, " ") + "] " + value
}

func formatCard(c deck.Card) string {
	if c.IsRed() {
		return RedCardStyle.Render(c.String())
	}
	return BlackCardStyle.Render(c.String())
}

// addLog appends a line to the game log and scrolls to it.
func (m *Model) addLog(style lipgloss.Style, line string) {
	m.plain = append(m.plain, line)
	m.log = append(m.log, style.Render(line))

	m.logViewport.SetContent(strings.Join(m.log, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// Log returns the unstyled game log.
func (m *Model) Log() []string {
	return append([]string(nil), m.plain...)
}
