package strategy

// kellyEdgePerCount is the player edge assumed per point of true count.
const kellyEdgePerCount = 0.005

var oneThreeTwoSix = [...]int{1, 3, 2, 6}

// bettor holds the state of progression betting systems between rounds.
type bettor struct {
	cfg BettingConfig

	lastBet  int
	lastNet  int
	played   bool
	position int // 1-3-2-6 sequence index
	bankroll int // as of the last settled round
}

func newBettor(cfg BettingConfig) *bettor {
	return &bettor{cfg: cfg}
}

func (b *bettor) remember(bet int) int {
	b.lastBet = bet
	return bet
}

// next returns the next progression bet. Martingale style systems double the
// previous stake and are capped at MaxBetUnits; the table limits and bankroll
// are applied by the caller.
func (b *bettor) next(minBet int, trueCount float64) int {
	maxBet := minBet * b.cfg.MaxBetUnits

	switch b.cfg.System {
	case SystemMartingale:
		if b.played && b.lastNet < 0 {
			return b.remember(min(b.lastBet*2, maxBet))
		}
	case SystemReverseMartingale:
		if b.played && b.lastNet > 0 {
			return b.remember(min(b.lastBet*2, maxBet))
		}
	case SystemOneThreeTwoSix:
		return b.remember(minBet * oneThreeTwoSix[b.position])
	case SystemKelly:
		if trueCount <= 0 || b.bankroll <= 0 {
			break
		}
		bet := int(float64(b.bankroll) * trueCount * kellyEdgePerCount)
		bet = min(bet, b.bankroll/4)
		return b.remember(max(bet, minBet))
	}
	return b.remember(minBet)
}

func (b *bettor) settle(net, bankroll int) {
	b.played = true
	b.lastNet = net
	b.bankroll = bankroll

	if b.cfg.System == SystemOneThreeTwoSix {
		if net > 0 {
			b.position = (b.position + 1) % len(oneThreeTwoSix)
		} else {
			b.position = 0
		}
	}
}
