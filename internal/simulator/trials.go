package simulator

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/lox/blackjacksim/internal/deck"
	"github.com/lox/blackjacksim/internal/strategy"
	"golang.org/x/sync/errgroup"
)

// TrialSummary aggregates independent runs of one strategy.
type TrialSummary struct {
	Strategy         string    `json:"strategy"`
	Trials           int       `json:"trials"`
	AvgROI           float64   `json:"avg_roi"`
	StdROI           float64   `json:"std_roi"`
	AvgBankrollROI   float64   `json:"avg_bankroll_roi"`
	AvgFinalBankroll float64   `json:"avg_final_bankroll"`
	BustRate         float64   `json:"bust_rate"`
	Results          []*Result `json:"results"`
}

func summarize(name string, results []*Result) *TrialSummary {
	summary := &TrialSummary{
		Strategy: name,
		Trials:   len(results),
		Results:  results,
	}
	if len(results) == 0 {
		return summary
	}

	n := float64(len(results))
	busts := 0
	for _, r := range results {
		summary.AvgROI += r.ROI
		summary.AvgBankrollROI += r.BankrollROI
		summary.AvgFinalBankroll += float64(r.EndingBankroll)
		if r.BustOut {
			busts++
		}
	}
	summary.AvgROI /= n
	summary.AvgBankrollROI /= n
	summary.AvgFinalBankroll /= n
	summary.BustRate = float64(busts) / n

	// population deviation across trials
	var ss float64
	for _, r := range results {
		d := r.ROI - summary.AvgROI
		ss += d * d
	}
	summary.StdROI = math.Sqrt(ss / n)
	return summary
}

type job struct {
	cfg  strategy.Config
	seed int64
}

// runJobs runs every job on its own game and strategy, at most workers at a
// time. Results are returned in job order so output does not depend on
// scheduling.
func runJobs(ctx context.Context, config Config, jobs []job, workers int) ([]*Result, error) {
	if workers <= 0 {
		workers = 1
	}

	progress := config.Progress
	config.Progress = nil
	var (
		mu   sync.Mutex
		done int
	)

	results := make([]*Result, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, j := range jobs {
		g.Go(func() error {
			runConfig := config
			runConfig.Seed = j.seed
			sim := New(runConfig)
			strat := strategy.New(j.cfg, runConfig.Rules.NumDecks, sim.logger)

			result, err := sim.Run(ctx, strat)
			if err != nil {
				return fmt.Errorf("%s seed %d: %w", j.cfg.Name, j.seed, err)
			}
			results[i] = result

			if progress != nil {
				mu.Lock()
				done++
				progress(done, len(jobs))
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunTrials runs cfg trials times with seeds config.Seed, config.Seed+1, ...
// Progress, if set, is reported per completed trial.
func RunTrials(ctx context.Context, config Config, cfg strategy.Config, trials, workers int) (*TrialSummary, error) {
	if trials <= 0 {
		return nil, fmt.Errorf("trials must be positive, got %d", trials)
	}

	jobs := make([]job, trials)
	for i := range jobs {
		jobs[i] = job{cfg: cfg, seed: config.Seed + int64(i)}
	}

	results, err := runJobs(ctx, config, jobs, workers)
	if err != nil {
		return nil, err
	}
	return summarize(cfg.Name, results), nil
}

// Compare runs every strategy over the same seeds and returns the summaries
// ranked by average ROI, best first.
func Compare(ctx context.Context, config Config, configs map[string]strategy.Config, trials, workers int) ([]*TrialSummary, error) {
	if trials <= 0 {
		return nil, fmt.Errorf("trials must be positive, got %d", trials)
	}

	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	jobs := make([]job, 0, len(names)*trials)
	for _, name := range names {
		cfg := configs[name].Clone()
		cfg.Name = name
		for i := 0; i < trials; i++ {
			jobs = append(jobs, job{cfg: cfg, seed: config.Seed + int64(i)})
		}
	}

	results, err := runJobs(ctx, config, jobs, workers)
	if err != nil {
		return nil, err
	}

	summaries := make([]*TrialSummary, len(names))
	for i, name := range names {
		summaries[i] = summarize(name, results[i*trials:(i+1)*trials])
	}
	rank(summaries)
	return summaries, nil
}

func rank(summaries []*TrialSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].AvgROI != summaries[j].AvgROI {
			return summaries[i].AvgROI > summaries[j].AvgROI
		}
		return summaries[i].Strategy < summaries[j].Strategy
	})
}

// Grid lists candidate values for an optimisation search. Empty dimensions
// keep the base configuration's value.
type Grid struct {
	CardValues      map[string][]int `json:"card_values,omitempty" yaml:"card_values,omitempty"`
	AceAdjustments  []float64        `json:"ace_adjustments,omitempty" yaml:"ace_adjustments,omitempty"`
	CountThresholds []float64        `json:"count_thresholds,omitempty" yaml:"count_thresholds,omitempty"`
	CountIncrements []float64        `json:"count_increments,omitempty" yaml:"count_increments,omitempty"`
}

// DefaultGrid searches the small and middle card weights, the ace adjustment
// and the bet ramp around the dad count.
func DefaultGrid() Grid {
	return Grid{
		CardValues: map[string][]int{
			"THREE": {2, 3, 4},
			"FOUR":  {3, 4, 5},
			"FIVE":  {4, 5, 6},
			"SIX":   {2, 3, 4},
			"EIGHT": {-2, -1, 0},
			"NINE":  {-3, -2, -1},
		},
		AceAdjustments:  []float64{3, 4, 5},
		CountThresholds: []float64{3, 4, 5, 6},
		CountIncrements: []float64{3, 5, 7},
	}
}

// Validate checks that every card value key is a rank name such as "THREE".
func (g Grid) Validate() error {
	for name, values := range g.CardValues {
		r, err := deck.ParseRank(name)
		if err != nil {
			return fmt.Errorf("grid card value %q: %w", name, err)
		}
		if r.Name() != name {
			return fmt.Errorf("grid card value %q: use the rank name %s", name, r.Name())
		}
		if len(values) == 0 {
			return fmt.Errorf("grid card value %q has no candidates", name)
		}
	}
	return nil
}

// Size returns the number of configurations the grid expands to.
func (g Grid) Size() int {
	size := 1
	for _, values := range g.CardValues {
		size *= len(values)
	}
	size *= max(len(g.AceAdjustments), 1)
	size *= max(len(g.CountThresholds), 1)
	size *= max(len(g.CountIncrements), 1)
	return size
}

// Configs expands the grid over base. Configurations are generated in a fixed
// order and named base.Name-NNNN.
func (g Grid) Configs(base strategy.Config) []strategy.Config {
	base = base.Clone()
	if len(base.Counting.CardValues) == 0 {
		base.Counting.CardValues = strategy.HiLoValues()
	}
	if base.Betting.System == "" || base.Betting.System == strategy.SystemFlat {
		base.Betting.System = strategy.SystemCount
	}

	type dimension struct {
		size  int
		apply func(cfg *strategy.Config, i int)
	}
	var dims []dimension

	for _, r := range deck.Ranks {
		values, ok := g.CardValues[r.Name()]
		if !ok {
			continue
		}
		name := r.Name()
		dims = append(dims, dimension{len(values), func(cfg *strategy.Config, i int) {
			cfg.Counting.CardValues[name] = values[i]
		}})
	}
	if n := len(g.AceAdjustments); n > 0 {
		dims = append(dims, dimension{n, func(cfg *strategy.Config, i int) {
			cfg.Counting.AceAdjustment = g.AceAdjustments[i]
		}})
	}
	if n := len(g.CountThresholds); n > 0 {
		dims = append(dims, dimension{n, func(cfg *strategy.Config, i int) {
			cfg.Betting.CountThreshold = g.CountThresholds[i]
		}})
	}
	if n := len(g.CountIncrements); n > 0 {
		dims = append(dims, dimension{n, func(cfg *strategy.Config, i int) {
			cfg.Betting.CountIncrement = g.CountIncrements[i]
		}})
	}

	total := g.Size()
	configs := make([]strategy.Config, 0, total)
	for n := 0; n < total; n++ {
		cfg := base.Clone()
		cfg.Name = fmt.Sprintf("%s-%04d", base.Name, n+1)
		idx := n
		for d := len(dims) - 1; d >= 0; d-- {
			dims[d].apply(&cfg, idx%dims[d].size)
			idx /= dims[d].size
		}
		configs = append(configs, cfg)
	}
	return configs
}

// Candidate is one evaluated grid configuration.
type Candidate struct {
	Rank    int             `json:"rank"`
	Config  strategy.Config `json:"config"`
	Summary *TrialSummary   `json:"summary"`
}

// Optimize evaluates every grid configuration over the same seeds and returns
// the candidates ranked by average ROI, best first.
func Optimize(ctx context.Context, config Config, base strategy.Config, grid Grid, trials, workers int) ([]Candidate, error) {
	if trials <= 0 {
		return nil, fmt.Errorf("trials must be positive, got %d", trials)
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	configs := grid.Configs(base)
	jobs := make([]job, 0, len(configs)*trials)
	for _, cfg := range configs {
		for i := 0; i < trials; i++ {
			jobs = append(jobs, job{cfg: cfg, seed: config.Seed + int64(i)})
		}
	}

	results, err := runJobs(ctx, config, jobs, workers)
	if err != nil {
		return nil, err
	}

	summaries := make([]*TrialSummary, len(configs))
	byName := make(map[string]strategy.Config, len(configs))
	for i, cfg := range configs {
		summaries[i] = summarize(cfg.Name, results[i*trials:(i+1)*trials])
		byName[cfg.Name] = cfg
	}
	rank(summaries)

	candidates := make([]Candidate, len(summaries))
	for i, s := range summaries {
		candidates[i] = Candidate{Rank: i + 1, Config: byName[s.Strategy], Summary: s}
	}
	return candidates, nil
}
