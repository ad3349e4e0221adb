package strategy

import (
	"fmt"
	"sort"
)

var presets = map[string]func() Config{
	"basic":        basicPreset,
	"hilo":         hiLoPreset,
	"dad":          dadPreset,
	"optimized":    optimizedPreset,
	"conservative": conservativePreset,
	"aggressive":   aggressivePreset,
	"counting":     countingPreset,
}

// Preset returns a copy of the named built-in configuration.
func Preset(name string) (Config, error) {
	fn, ok := presets[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown strategy preset %q (available: %v)", name, PresetNames())
	}
	return fn(), nil
}

// MustPreset is like Preset but panics on unknown names.
func MustPreset(name string) Config {
	cfg, err := Preset(name)
	if err != nil {
		panic(err)
	}
	return cfg
}

// PresetNames returns the built-in preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func dev(total, dealer int, action string, threshold float64, cmp string) Deviation {
	return Deviation{
		PlayerTotal:    total,
		DealerCard:     dealer,
		Action:         action,
		CountThreshold: threshold,
		Comparison:     cmp,
	}
}

func devName(total, dealer int, action string) string {
	return fmt.Sprintf("%d_vs_%d_%s", total, dealer, lowerAction(action))
}

func lowerAction(action string) string {
	switch action {
	case DeviationNoSplit:
		return "no_split"
	case DeviationHit:
		return "hit"
	case DeviationStand:
		return "stand"
	case DeviationDouble:
		return "double"
	case DeviationSurrender:
		return "surrender"
	}
	return action
}

func flatBetting() BettingConfig {
	return BettingConfig{System: SystemFlat, CountIncrement: 1, MaxBetUnits: 1}
}

func basicPreset() Config {
	return Config{
		Name:        "basic",
		Description: "Basic strategy with flat betting",
		Counting:    CountingConfig{CardValues: HiLoValues()},
		Betting:     flatBetting(),
	}
}

func hiLoPreset() Config {
	d := map[string]Deviation{}
	add := func(total, dealer int, action string, threshold float64, cmp string) {
		d[devName(total, dealer, action)] = dev(total, dealer, action, threshold, cmp)
	}
	add(16, 10, DeviationStand, 0, GreaterEqual)
	add(16, 9, DeviationStand, 5, GreaterEqual)
	add(15, 10, DeviationStand, 4, GreaterEqual)
	add(15, 10, DeviationSurrender, 0, GreaterEqual)
	add(12, 3, DeviationStand, 2, GreaterEqual)
	add(12, 2, DeviationStand, 3, GreaterEqual)
	add(12, 4, DeviationHit, 0, Less)
	add(12, 5, DeviationHit, -2, Less)
	add(12, 6, DeviationHit, -1, Less)
	add(13, 2, DeviationHit, -1, Less)
	add(13, 3, DeviationHit, -2, Less)
	add(11, 11, DeviationDouble, 1, GreaterEqual)
	add(10, 10, DeviationDouble, 4, GreaterEqual)
	add(10, 11, DeviationDouble, 4, GreaterEqual)
	add(9, 2, DeviationDouble, 1, GreaterEqual)
	add(9, 7, DeviationDouble, 3, GreaterEqual)

	return Config{
		Name:        "hilo",
		Description: "Hi-Lo count with common index plays and a 1-8 spread",
		Counting:    CountingConfig{CardValues: HiLoValues()},
		Betting: BettingConfig{
			System:         SystemCount,
			CountThreshold: 1,
			CountIncrement: 1,
			MaxBetUnits:    8,
		},
		Deviations: d,
		Insurance:  InsuranceConfig{AceExcessThreshold: 1},
	}
}

func dadDeviations() map[string]Deviation {
	return map[string]Deviation{
		"16_vs_10_stand":    dev(16, 10, DeviationStand, 0, Greater),
		"12_vs_3_stand":     dev(12, 3, DeviationStand, 5, GreaterEqual),
		"12_vs_2_stand":     dev(12, 2, DeviationStand, 10, GreaterEqual),
		"13_vs_2_hit":       dev(13, 2, DeviationHit, -5, Less),
		"13_vs_3_hit":       dev(13, 3, DeviationHit, -10, Less),
		"11_vs_5_double":    dev(11, 5, DeviationDouble, 10, Greater),
		"11_vs_6_double":    dev(11, 6, DeviationDouble, 10, Greater),
		"88_vs_10_no_split": dev(16, 10, DeviationNoSplit, 0, Greater),
	}
}

func dadPreset() Config {
	return Config{
		Name:        "dad",
		Description: "Custom weighted count with an ace side count",
		Counting: CountingConfig{
			CardValues: map[string]int{
				"TWO": 0, "THREE": 3, "FOUR": 4, "FIVE": 5, "SIX": 3,
				"SEVEN": 0, "EIGHT": -1, "NINE": -2,
				"TEN": -3, "JACK": -3, "QUEEN": -3, "KING": -3, "ACE": -3,
			},
			AceAdjustment: 4,
		},
		Betting: BettingConfig{
			System:         SystemCount,
			CountThreshold: 5,
			CountIncrement: 5,
			MaxBetUnits:    20,
			Ramp:           RampAbsolute,
		},
		Deviations: dadDeviations(),
		Insurance:  InsuranceConfig{AceExcessThreshold: 1},
	}
}

func optimizedPreset() Config {
	return Config{
		Name:        "optimized",
		Description: "Grid search winner over the weighted count",
		Counting: CountingConfig{
			CardValues: map[string]int{
				"TWO": 0, "THREE": 3, "FOUR": 3, "FIVE": 4, "SIX": 4,
				"SEVEN": 0, "EIGHT": 0, "NINE": -3,
				"TEN": -3, "JACK": -3, "QUEEN": -3, "KING": -3, "ACE": -3,
			},
			AceAdjustment: 5,
		},
		Betting: BettingConfig{
			System:         SystemCount,
			CountThreshold: 3,
			CountIncrement: 5,
			MaxBetUnits:    20,
		},
		Deviations: dadDeviations(),
		Insurance:  InsuranceConfig{AceExcessThreshold: 1},
	}
}

// conservativePreset stands on every stiff hand against a weak dealer card.
func conservativePreset() Config {
	d := map[string]Deviation{}
	for total := 12; total <= 18; total++ {
		for dealer := 2; dealer <= 6; dealer++ {
			d[devName(total, dealer, DeviationStand)] = dev(total, dealer, DeviationStand, 0, Always)
		}
	}
	return Config{
		Name:        "conservative",
		Description: "Never risks a stiff hand against a dealer bust card",
		Counting:    CountingConfig{CardValues: HiLoValues()},
		Betting:     flatBetting(),
		Deviations:  d,
	}
}

// aggressivePreset doubles every 9, 10 and 11.
func aggressivePreset() Config {
	d := map[string]Deviation{}
	for total := 9; total <= 11; total++ {
		for dealer := 2; dealer <= 11; dealer++ {
			d[devName(total, dealer, DeviationDouble)] = dev(total, dealer, DeviationDouble, 0, Always)
		}
	}
	return Config{
		Name:        "aggressive",
		Description: "Doubles every 9, 10 and 11",
		Counting:    CountingConfig{CardValues: HiLoValues()},
		Betting:     flatBetting(),
		Deviations:  d,
	}
}

func countingPreset() Config {
	return Config{
		Name:        "counting",
		Description: "Hi-Lo with a few count plays and a Kelly sized bet",
		Counting:    CountingConfig{CardValues: HiLoValues()},
		Betting: BettingConfig{
			System:         SystemKelly,
			CountIncrement: 1,
			MaxBetUnits:    20,
		},
		Deviations: map[string]Deviation{
			"12_vs_2_stand": dev(12, 2, DeviationStand, 3, GreaterEqual),
			"12_vs_3_stand": dev(12, 3, DeviationStand, 3, GreaterEqual),
			"12_vs_4_hit":   dev(12, 4, DeviationHit, -2, LessEqual),
			"13_vs_2_hit":   dev(13, 2, DeviationHit, -2, LessEqual),
		},
	}
}
