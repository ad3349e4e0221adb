// Package report renders simulation output for the terminal.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lox/blackjacksim/internal/deck"
	"github.com/lox/blackjacksim/internal/results"
	"github.com/lox/blackjacksim/internal/simulator"
	"github.com/lox/blackjacksim/internal/strategy"
	"github.com/muesli/termenv"
)

// Printer writes styled tables to a writer.
type Printer struct {
	w io.Writer

	header lipgloss.Style
	title  lipgloss.Style
	gain   lipgloss.Style
	loss   lipgloss.Style
	muted  lipgloss.Style
}

// New returns a printer for w. Without color every style renders plain
// text, which keeps piped output and tests free of escape codes.
func New(w io.Writer, color bool) *Printer {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{
		w:      w,
		header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1),
		gain:  r.NewStyle().Foreground(lipgloss.Color("10")),
		loss:  r.NewStyle().Foreground(lipgloss.Color("9")),
		muted: r.NewStyle().Foreground(lipgloss.Color("#626262")),
	}
}

func (p *Printer) signed(v float64, text string) string {
	if v < 0 {
		return p.loss.Render(text)
	}
	return p.gain.Render(text)
}

func pct(v float64) string {
	return fmt.Sprintf("%.3f%%", v*100)
}

func money(v int) string {
	if v < 0 {
		return fmt.Sprintf("-$%d", -v)
	}
	return fmt.Sprintf("$%d", v)
}

// Result prints a single simulation.
func (p *Printer) Result(r *simulator.Result) {
	fmt.Fprintln(p.w, p.title.Render(r.Strategy))
	w := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)

	row := func(label, value string) {
		fmt.Fprintf(w, "%s\t%s\n", p.header.Render(label), value)
	}
	row("hands", fmt.Sprintf("%d (%d player hands)", r.Hands, r.PlayerHands))
	row("outcomes", fmt.Sprintf("%d won, %d lost, %d pushed, %d blackjacks, %d surrendered",
		r.Wins, r.Losses, r.Pushes, r.Blackjacks, r.Surrenders))
	row("doubles / splits", fmt.Sprintf("%d / %d", r.Doubles, r.Splits))
	row("win rate", pct(r.WinRate))
	row("roi", p.signed(r.ROI, pct(r.ROI)))
	row("bankroll roi", p.signed(r.BankrollROI, pct(r.BankrollROI)))
	row("bankroll", fmt.Sprintf("%s -> %s (%s)", money(r.StartingBankroll), money(r.EndingBankroll),
		p.signed(float64(r.ProfitLoss), money(r.ProfitLoss))))
	row("bankroll range", fmt.Sprintf("%s .. %s", money(r.MinBankroll), money(r.MaxBankroll)))
	row("wagered", money(r.TotalWagered))
	row("average bet", fmt.Sprintf("$%.2f", r.AverageBet))
	row("units / round", fmt.Sprintf("%.4f ± %.4f (95%% CI %.4f .. %.4f)",
		r.MeanUnits, r.StdDevUnits, r.CI95Low, r.CI95High))
	if r.BustOut {
		row("bust out", p.loss.Render("yes"))
	}
	_ = w.Flush()

	if len(r.BetDistribution) > 0 {
		fmt.Fprintln(p.w)
		p.betDistribution(r)
	}

	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.muted.Render(fmt.Sprintf("seed %d, %d hands in %v (%.0f hands/hour)",
		r.Seed, r.Hands, (time.Duration(r.ElapsedSeconds*float64(time.Second))).Truncate(time.Millisecond),
		r.HandsPerHour)))
}

func (p *Printer) betDistribution(r *simulator.Result) {
	units := make([]int, 0, len(r.BetDistribution))
	for u := range r.BetDistribution {
		units = append(units, u)
	}
	sort.Ints(units)

	w := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "%s\t%s\t%s\t\n", p.header.Render("units"), p.header.Render("rounds"), p.header.Render("share"))
	for _, u := range units {
		n := r.BetDistribution[u]
		fmt.Fprintf(w, "%d\t%d\t%.1f%%\t\n", u, n, float64(n)/float64(max(r.Hands, 1))*100)
	}
	_ = w.Flush()
}

// Trials prints the summary of repeated runs of one strategy.
func (p *Printer) Trials(s *simulator.TrialSummary) {
	fmt.Fprintln(p.w, p.title.Render(fmt.Sprintf("%s x %d", s.Strategy, s.Trials)))
	w := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", p.header.Render("avg roi"), p.signed(s.AvgROI, pct(s.AvgROI)))
	fmt.Fprintf(w, "%s\t%s\n", p.header.Render("std roi"), pct(s.StdROI))
	fmt.Fprintf(w, "%s\t%s\n", p.header.Render("avg bankroll roi"), p.signed(s.AvgBankrollROI, pct(s.AvgBankrollROI)))
	fmt.Fprintf(w, "%s\t$%.2f\n", p.header.Render("avg final bankroll"), s.AvgFinalBankroll)
	fmt.Fprintf(w, "%s\t%.1f%%\n", p.header.Render("bust rate"), s.BustRate*100)
	_ = w.Flush()
}

// Comparison prints ranked trial summaries as a table.
func (p *Printer) Comparison(summaries []*simulator.TrialSummary) {
	w := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		p.header.Render("#"),
		p.header.Render("strategy"),
		p.header.Render("avg roi"),
		p.header.Render("std dev"),
		p.header.Render("avg final"),
		p.header.Render("bust rate"))
	for i, s := range summaries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t$%.2f\t%.1f%%\n",
			i+1, s.Strategy, p.signed(s.AvgROI, pct(s.AvgROI)), pct(s.StdROI),
			s.AvgFinalBankroll, s.BustRate*100)
	}
	_ = w.Flush()
}

// cardWeights renders the count weights in rank order, e.g. "2=1 3=1 ... A=-1".
func cardWeights(values map[string]int) string {
	var parts []string
	for _, r := range deck.Ranks {
		if v, ok := values[r.Name()]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d", r, v))
		}
	}
	return strings.Join(parts, " ")
}

// Candidates prints the best top optimisation candidates.
func (p *Printer) Candidates(candidates []simulator.Candidate, top int) {
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	for _, c := range candidates[:top] {
		fmt.Fprintf(p.w, "%s %s  roi %s  bust %.1f%%\n",
			p.header.Render(fmt.Sprintf("%d.", c.Rank)),
			c.Config.Name,
			p.signed(c.Summary.AvgROI, pct(c.Summary.AvgROI)),
			c.Summary.BustRate*100)
		fmt.Fprintf(p.w, "   cards: %s\n", cardWeights(c.Config.Counting.CardValues))
		fmt.Fprintf(p.w, "   ace adjustment %g, threshold %g, increment %g\n",
			c.Config.Counting.AceAdjustment, c.Config.Betting.CountThreshold, c.Config.Betting.CountIncrement)
	}
}

// CandidatesCSV writes every candidate as one CSV row.
func CandidatesCSV(w io.Writer, candidates []simulator.Candidate) error {
	cw := csv.NewWriter(w)
	header := []string{"rank", "name"}
	for _, r := range deck.Ranks {
		header = append(header, r.Name())
	}
	header = append(header, "ace_adjustment", "count_threshold", "count_increment",
		"avg_roi", "std_roi", "avg_final_bankroll", "bust_rate")
	if err := cw.Write(header); err != nil {
		return err
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	for _, c := range candidates {
		row := []string{strconv.Itoa(c.Rank), c.Config.Name}
		for _, r := range deck.Ranks {
			row = append(row, strconv.Itoa(c.Config.Counting.CardValues[r.Name()]))
		}
		row = append(row,
			f(c.Config.Counting.AceAdjustment),
			f(c.Config.Betting.CountThreshold),
			f(c.Config.Betting.CountIncrement),
			f(c.Summary.AvgROI),
			f(c.Summary.StdROI),
			f(c.Summary.AvgFinalBankroll),
			f(c.Summary.BustRate))
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Runs lists stored simulations.
func (p *Printer) Runs(runs []results.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(p.w, p.muted.Render("no stored runs"))
		return
	}
	w := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		p.header.Render("id"),
		p.header.Render("name"),
		p.header.Render("hands"),
		p.header.Render("roi"),
		p.header.Render("created"))
	for _, run := range runs {
		trials := ""
		if run.Trials != nil {
			trials = fmt.Sprintf(" x%d", run.Trials.Trials)
		}
		fmt.Fprintf(w, "%s\t%s%s\t%d\t%s\t%s\n",
			run.ID, run.Name, trials, run.Result.Hands,
			p.signed(run.Result.ROI, pct(run.Result.ROI)),
			run.CreatedAt.Local().Format(time.DateTime))
	}
	_ = w.Flush()
}

// Strategies lists strategy configurations.
func (p *Printer) Strategies(cfgs []strategy.Config) {
	w := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		p.header.Render("name"),
		p.header.Render("betting"),
		p.header.Render("deviations"),
		p.header.Render("description"))
	for _, cfg := range cfgs {
		system := cfg.Betting.System
		if system == "" {
			system = strategy.SystemFlat
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", cfg.Name, system, len(cfg.Deviations), cfg.Description)
	}
	_ = w.Flush()
}

// Strategy prints one configuration in detail.
func (p *Printer) Strategy(cfg strategy.Config) {
	fmt.Fprintln(p.w, p.title.Render(cfg.Name))
	if cfg.Description != "" {
		fmt.Fprintln(p.w, cfg.Description)
	}
	w := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", p.header.Render("card values"), cardWeights(cfg.Counting.CardValues))
	fmt.Fprintf(w, "%s\t%g\n", p.header.Render("ace adjustment"), cfg.Counting.AceAdjustment)
	fmt.Fprintf(w, "%s\t%s (threshold %g, increment %g, max %d units)\n", p.header.Render("betting"),
		cfg.Betting.System, cfg.Betting.CountThreshold, cfg.Betting.CountIncrement, cfg.Betting.MaxBetUnits)
	fmt.Fprintf(w, "%s\tace excess %g\n", p.header.Render("insurance"), cfg.Insurance.AceExcessThreshold)
	_ = w.Flush()

	names := cfg.DeviationNames()
	if len(names) == 0 {
		return
	}
	fmt.Fprintln(p.w)
	w = tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		p.header.Render("deviation"),
		p.header.Render("hand"),
		p.header.Render("action"),
		p.header.Render("when"))
	for _, name := range names {
		d := cfg.Deviations[name]
		fmt.Fprintf(w, "%s\t%d v %d\t%s\tcount %s %g\n",
			name, d.PlayerTotal, d.DealerCard, d.Action, d.Comparison, d.CountThreshold)
	}
	_ = w.Flush()
}
