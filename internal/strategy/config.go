package strategy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lox/blackjacksim/internal/deck"
)

// Betting systems.
const (
	SystemCount             = "count"
	SystemFlat              = "flat"
	SystemMartingale        = "martingale"
	SystemReverseMartingale = "reverse_martingale"
	SystemOneThreeTwoSix    = "1-3-2-6"
	SystemKelly             = "kelly"
)

// Bet ramps for the count system.
const (
	// RampThreshold adds a unit per increment above the threshold.
	RampThreshold = "threshold"
	// RampAbsolute adds a unit per increment of the whole true count once the
	// threshold is reached.
	RampAbsolute = "absolute"
)

// Deviation comparisons.
const (
	Greater      = "greater"
	GreaterEqual = "greater_equal"
	Less         = "less"
	LessEqual    = "less_equal"
	Always       = "always"
)

// Deviation actions.
const (
	DeviationHit       = "HIT"
	DeviationStand     = "STAND"
	DeviationDouble    = "DOUBLE"
	DeviationSurrender = "SURRENDER"
	DeviationNoSplit   = "NO_SPLIT"
)

// Config describes a playing and betting strategy. It is plain data so it can
// be stored, compared and loaded from JSON or YAML files.
type Config struct {
	Name        string               `json:"name" yaml:"name"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Counting    CountingConfig       `json:"counting" yaml:"counting"`
	Betting     BettingConfig        `json:"betting" yaml:"betting"`
	Deviations  map[string]Deviation `json:"deviations,omitempty" yaml:"deviations,omitempty"`
	Insurance   InsuranceConfig      `json:"insurance" yaml:"insurance"`
}

// CountingConfig maps rank names ("TWO".."ACE") to count values. An empty map
// means Hi-Lo. AceAdjustment is added to the running count per extra ace
// remaining in the shoe.
type CountingConfig struct {
	CardValues    map[string]int `json:"card_values,omitempty" yaml:"card_values,omitempty"`
	AceAdjustment float64        `json:"ace_adjustment" yaml:"ace_adjustment"`
}

// BettingConfig controls bet sizing.
type BettingConfig struct {
	System         string  `json:"system,omitempty" yaml:"system,omitempty"`
	CountThreshold float64 `json:"count_threshold" yaml:"count_threshold"`
	CountIncrement float64 `json:"count_increment" yaml:"count_increment"`
	MaxBetUnits    int     `json:"max_bet_units" yaml:"max_bet_units"`
	Ramp           string  `json:"ramp,omitempty" yaml:"ramp,omitempty"`
}

// Deviation overrides basic strategy for one player total against one dealer
// up card when the true count satisfies the comparison.
type Deviation struct {
	PlayerTotal    int     `json:"player_total" yaml:"player_total"`
	DealerCard     int     `json:"dealer_card" yaml:"dealer_card"`
	Action         string  `json:"action" yaml:"action"`
	CountThreshold float64 `json:"count_threshold" yaml:"count_threshold"`
	Comparison     string  `json:"comparison" yaml:"comparison"`
}

// InsuranceConfig sets the extra aces per remaining deck needed to take
// insurance. Zero disables insurance.
type InsuranceConfig struct {
	AceExcessThreshold float64 `json:"ace_excess_threshold" yaml:"ace_excess_threshold"`
}

// HiLoValues returns the Hi-Lo card values keyed by rank name.
func HiLoValues() map[string]int {
	values := make(map[string]int, len(deck.Ranks))
	for _, r := range deck.Ranks {
		values[r.Name()] = r.HiLo()
	}
	return values
}

// Clone returns a deep copy of c.
func (c Config) Clone() Config {
	out := c
	if c.Counting.CardValues != nil {
		out.Counting.CardValues = make(map[string]int, len(c.Counting.CardValues))
		for k, v := range c.Counting.CardValues {
			out.Counting.CardValues[k] = v
		}
	}
	if c.Deviations != nil {
		out.Deviations = make(map[string]Deviation, len(c.Deviations))
		for k, v := range c.Deviations {
			out.Deviations[k] = v
		}
	}
	return out
}

// DeviationNames returns the deviation names in evaluation order.
func (c Config) DeviationNames() []string {
	names := make([]string, 0, len(c.Deviations))
	for name := range c.Deviations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate reports every problem in the configuration. A strategy can still be
// built from an invalid config: bad entries are skipped and bad betting values
// fall back to defaults.
func (c Config) Validate() error {
	var errs []error

	for name := range c.Counting.CardValues {
		if _, err := deck.ParseRank(name); err != nil {
			errs = append(errs, fmt.Errorf("counting: %w", err))
		}
	}

	b := c.Betting
	switch b.System {
	case "", SystemCount, SystemFlat, SystemMartingale, SystemReverseMartingale, SystemOneThreeTwoSix, SystemKelly:
	default:
		errs = append(errs, fmt.Errorf("betting: unknown system %q", b.System))
	}
	switch b.Ramp {
	case "", RampThreshold, RampAbsolute:
	default:
		errs = append(errs, fmt.Errorf("betting: unknown ramp %q", b.Ramp))
	}
	if b.CountIncrement <= 0 && usesCount(b.System) {
		errs = append(errs, fmt.Errorf("betting: count_increment must be positive, got %g", b.CountIncrement))
	}
	if b.MaxBetUnits < 1 {
		errs = append(errs, fmt.Errorf("betting: max_bet_units must be at least 1, got %d", b.MaxBetUnits))
	}

	for _, name := range c.DeviationNames() {
		if err := c.Deviations[name].validate(); err != nil {
			errs = append(errs, fmt.Errorf("deviation %s: %w", name, err))
		}
	}

	if c.Insurance.AceExcessThreshold < 0 {
		errs = append(errs, fmt.Errorf("insurance: ace_excess_threshold cannot be negative"))
	}
	return errors.Join(errs...)
}

func usesCount(system string) bool {
	return system == "" || system == SystemCount
}

func (d Deviation) validate() error {
	if d.PlayerTotal < 4 || d.PlayerTotal > 21 {
		return fmt.Errorf("player_total %d out of range", d.PlayerTotal)
	}
	if d.DealerCard < 2 || d.DealerCard > 11 {
		return fmt.Errorf("dealer_card %d out of range", d.DealerCard)
	}
	if _, err := parseDeviationAction(d.Action); err != nil {
		return err
	}
	if _, err := parseComparison(d.Comparison); err != nil {
		return err
	}
	return nil
}
