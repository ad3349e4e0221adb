package strategy

import (
	"github.com/lox/blackjacksim/internal/deck"
	"github.com/lox/blackjacksim/internal/game"
)

// Basic strategy for a multi-deck game where the dealer stands on soft 17.
// Each row is indexed by dealer up card 2,3,4,5,6,7,8,9,10,A.
// H = hit, S = stand, D = double (hit when doubling is not allowed).
// Hard 4 and soft 12 only arise from an unsplit pair and have no row, so they
// stand.
var hardTable = map[int]string{
	5:  "HHHHHHHHHH",
	6:  "HHHHHHHHHH",
	7:  "HHHHHHHHHH",
	8:  "HHHHHHHHHH",
	9:  "HDDDDHHHHH",
	10: "DDDDDDDDHH",
	11: "DDDDDDDDDD",
	12: "HHSSSHHHHH",
	13: "SSSSSHHHHH",
	14: "SSSSSHHHHH",
	15: "SSSSSHHHHH",
	16: "SSSSSHHHHH",
	17: "SSSSSSSSSS",
	18: "SSSSSSSSSS",
	19: "SSSSSSSSSS",
	20: "SSSSSSSSSS",
	21: "SSSSSSSSSS",
}

var softTable = map[int]string{
	13: "HHHDDHHHHH",
	14: "HHHDDHHHHH",
	15: "HHDDDHHHHH",
	16: "HHDDDHHHHH",
	17: "HDDDDHHHHH",
	18: "SDDDDSSHHH",
	19: "SSSSSSSSSS",
	20: "SSSSSSSSSS",
	21: "SSSSSSSSSS",
}

// splitTable is keyed by the point value of one card of the pair. Y = split.
var splitTable = map[int]string{
	2:  "YYYYYYNNNN",
	3:  "YYYYYYNNNN",
	4:  "NNNYYNNNNN",
	5:  "NNNNNNNNNN",
	6:  "YYYYYNNNNN",
	7:  "YYYYYYNNNN",
	8:  "YYYYYYYYYY",
	9:  "YYYYYNYYNN",
	10: "NNNNNNNNNN",
	11: "YYYYYYYYYY",
}

// dealerColumn maps an up card to its table column.
func dealerColumn(up deck.Card) int {
	return up.Value() - 2
}

func lookup(table map[int]string, total int, up deck.Card) (byte, bool) {
	row, ok := table[total]
	col := dealerColumn(up)
	if !ok || col < 0 || col >= len(row) {
		return 0, false
	}
	return row[col], true
}

// wouldSplit reports whether basic strategy splits the hand.
func wouldSplit(hand *game.Hand, up deck.Card) bool {
	if !hand.CanSplit() {
		return false
	}
	code, ok := lookup(splitTable, hand.Cards[0].Value(), up)
	return ok && code == 'Y'
}

// Basic returns the basic strategy action. Pairs are checked first when the
// caller allows a split, then the soft table, then the hard table. A missing
// entry stands.
func Basic(hand *game.Hand, up deck.Card, canSplit bool) game.Action {
	if canSplit && wouldSplit(hand, up) {
		return game.Split
	}

	table := hardTable
	if hand.IsSoft() {
		table = softTable
	}
	code, ok := lookup(table, hand.Value(), up)
	if !ok {
		return game.Stand
	}

	switch code {
	case 'H':
		return game.Hit
	case 'D':
		if hand.CanDouble() {
			return game.Double
		}
		return game.Hit
	default:
		return game.Stand
	}
}
