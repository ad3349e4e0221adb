package statistics

import (
	"fmt"
	"math"
	"sort"

	"github.com/lox/blackjacksim/internal/game"
)

// RoundResult is one settled round as seen by the player.
type RoundResult struct {
	Results   []game.Result // one per player hand, split hands included
	Bet       int           // initial stake before doubles and splits
	MinBet    int           // table minimum, the unit for normalised results
	TrueCount float64       // strategy true count when the bet was sized
}

// Net returns the round's total profit or loss.
func (r RoundResult) Net() int {
	net := 0
	for _, res := range r.Results {
		net += res.Net
	}
	return net
}

// Wagered returns the total staked on the round, doubles and splits included.
func (r RoundResult) Wagered() int {
	total := 0
	for _, res := range r.Results {
		total += res.Bet
	}
	return total
}

// Units returns the bet in table minimums.
func (r RoundResult) Units() int {
	if r.MinBet <= 0 {
		return 0
	}
	return r.Bet / r.MinBet
}

// BetSizeStats tracks results for rounds opened with one bet size.
type BetSizeStats struct {
	Rounds   int     `json:"rounds"`
	SumUnits float64 `json:"sum_units"`
	Net      int     `json:"net"`
}

// Statistics accumulates per-round results of a simulation. Round results are
// normalised to table minimums so runs at different stakes compare.
//
// Values keeps every round's result for Median and Percentile, one float64 per
// round: about 8MB per million rounds, and Merge concatenates them.
type Statistics struct {
	Rounds    int
	SumUnits  float64
	SumUnits2 float64   // sum of squares for variance
	Values    []float64 // per-round units for median/percentile

	Hands      int // player hands settled, split hands included
	Wins       int
	Losses     int
	Pushes     int
	Blackjacks int
	Surrenders int
	Doubles    int
	Splits     int

	TotalWagered int
	OpeningBets  int // sum of initial stakes
	TotalNet     int
	HandNet      int // sum of per-hand nets, must equal TotalNet

	// Bet spread analytics, keyed by units of the table minimum
	BetSizes map[int]*BetSizeStats
}

// Mean returns the mean result per round in units.
func (s *Statistics) Mean() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.SumUnits / float64(s.Rounds)
}

// Variance returns the sample variance of per-round results.
func (s *Statistics) Variance() float64 {
	if s.Rounds < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumUnits2 - float64(s.Rounds)*mean*mean) / float64(s.Rounds-1)
}

// StdDev returns the sample standard deviation of per-round results.
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(math.Max(s.Variance(), 0))
}

// StdError returns the standard error of the mean.
func (s *Statistics) StdError() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Rounds))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean.
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Add incorporates a settled round.
func (s *Statistics) Add(round RoundResult) {
	net := round.Net()
	units := float64(net)
	if round.MinBet > 0 {
		units /= float64(round.MinBet)
	}

	s.Rounds++
	s.SumUnits += units
	s.SumUnits2 += units * units
	s.Values = append(s.Values, units)
	s.TotalNet += net
	s.TotalWagered += round.Wagered()
	s.OpeningBets += round.Bet

	if len(round.Results) > 1 {
		s.Splits += len(round.Results) - 1
	}
	for _, r := range round.Results {
		s.Hands++
		s.HandNet += r.Net
		if r.Doubled {
			s.Doubles++
		}
		switch r.Outcome {
		case game.Blackjack:
			s.Blackjacks++
			s.Wins++
		case game.Win:
			s.Wins++
		case game.Lose:
			s.Losses++
		case game.Push:
			s.Pushes++
		case game.Surrendered:
			s.Surrenders++
		}
	}

	if s.BetSizes == nil {
		s.BetSizes = make(map[int]*BetSizeStats)
	}
	bs, ok := s.BetSizes[round.Units()]
	if !ok {
		bs = &BetSizeStats{}
		s.BetSizes[round.Units()] = bs
	}
	bs.Rounds++
	bs.SumUnits += units
	bs.Net += net
}

// Merge folds other into s.
func (s *Statistics) Merge(other *Statistics) {
	s.Rounds += other.Rounds
	s.SumUnits += other.SumUnits
	s.SumUnits2 += other.SumUnits2
	s.Values = append(s.Values, other.Values...)
	s.Hands += other.Hands
	s.Wins += other.Wins
	s.Losses += other.Losses
	s.Pushes += other.Pushes
	s.Blackjacks += other.Blackjacks
	s.Surrenders += other.Surrenders
	s.Doubles += other.Doubles
	s.Splits += other.Splits
	s.TotalWagered += other.TotalWagered
	s.OpeningBets += other.OpeningBets
	s.TotalNet += other.TotalNet
	s.HandNet += other.HandNet

	if len(other.BetSizes) > 0 && s.BetSizes == nil {
		s.BetSizes = make(map[int]*BetSizeStats)
	}
	for units, o := range other.BetSizes {
		bs, ok := s.BetSizes[units]
		if !ok {
			bs = &BetSizeStats{}
			s.BetSizes[units] = bs
		}
		bs.Rounds += o.Rounds
		bs.SumUnits += o.SumUnits
		bs.Net += o.Net
	}
}

// Decisions returns the hands that reached a win, loss or push.
func (s *Statistics) Decisions() int {
	return s.Wins + s.Losses + s.Pushes
}

// WinRate returns wins over decided hands, naturals counted as wins.
func (s *Statistics) WinRate() float64 {
	d := s.Decisions()
	if d == 0 {
		return 0
	}
	return float64(s.Wins) / float64(d)
}

// ROI returns net result over total wagered.
func (s *Statistics) ROI() float64 {
	if s.TotalWagered == 0 {
		return 0
	}
	return float64(s.TotalNet) / float64(s.TotalWagered)
}

// AverageBet returns the mean initial stake per round.
func (s *Statistics) AverageBet() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return float64(s.OpeningBets) / float64(s.Rounds)
}

// Median returns the median per-round result in units.
func (s *Statistics) Median() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := s.sortedValues()
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Percentile returns the value at percentile p in [0, 1].
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := s.sortedValues()

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func (s *Statistics) sortedValues() []float64 {
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)
	return sorted
}

// IsLedgerBalanced reports whether per-hand and per-round nets agree.
func (s *Statistics) IsLedgerBalanced() bool {
	return s.HandNet == s.TotalNet
}

// Validate checks the accumulated data for internal consistency.
func (s *Statistics) Validate() error {
	if !s.IsLedgerBalanced() {
		return fmt.Errorf("ledger mismatch: round net %d, hand net %d", s.TotalNet, s.HandNet)
	}
	if s.Rounds <= 0 {
		return fmt.Errorf("invalid rounds count: %d", s.Rounds)
	}
	if len(s.Values) != s.Rounds {
		return fmt.Errorf("values length (%d) does not match rounds (%d)", len(s.Values), s.Rounds)
	}
	if outcomes := s.Wins + s.Losses + s.Pushes + s.Surrenders; outcomes != s.Hands {
		return fmt.Errorf("outcomes (%d) do not match hands (%d)", outcomes, s.Hands)
	}
	if s.Blackjacks > s.Wins {
		return fmt.Errorf("blackjacks (%d) exceed wins (%d)", s.Blackjacks, s.Wins)
	}
	if s.TotalWagered < 0 {
		return fmt.Errorf("negative total wagered: %d", s.TotalWagered)
	}

	bucketed := 0
	for _, bs := range s.BetSizes {
		bucketed += bs.Rounds
	}
	if bucketed != s.Rounds {
		return fmt.Errorf("bet size rounds (%d) do not match rounds (%d)", bucketed, s.Rounds)
	}
	return nil
}
