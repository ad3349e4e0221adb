package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Action is a player decision during PlayerTurn.
type Action int

const (
	Hit Action = iota
	Stand
	Double
	Split
	Surrender
)

// Actions lists every action in display order.
var Actions = [...]Action{Hit, Stand, Double, Split, Surrender}

var actionNames = [...]string{"hit", "stand", "double", "split", "surrender"}

func (a Action) String() string {
	if a < Hit || a > Surrender {
		return "unknown"
	}
	return actionNames[a]
}

// ParseAction parses an action name case-insensitively. "d" style single
// letter shortcuts are accepted for the interactive client.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hit", "h":
		return Hit, nil
	case "stand", "s":
		return Stand, nil
	case "double", "d":
		return Double, nil
	case "split", "p":
		return Split, nil
	case "surrender", "r":
		return Surrender, nil
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ActionSet is a small bitset of actions.
type ActionSet uint8

// NewActionSet returns a set holding the given actions.
func NewActionSet(actions ...Action) ActionSet {
	var s ActionSet
	for _, a := range actions {
		s = s.With(a)
	}
	return s
}

// With returns a copy of s that includes a.
func (s ActionSet) With(a Action) ActionSet {
	return s | 1<<uint(a)
}

// Contains reports whether a is in the set.
func (s ActionSet) Contains(a Action) bool {
	return s&(1<<uint(a)) != 0
}

// Without returns a copy of s with a removed.
func (s ActionSet) Without(a Action) ActionSet {
	return s &^ (1 << uint(a))
}

// IsEmpty reports whether the set has no members.
func (s ActionSet) IsEmpty() bool {
	return s == 0
}

// Slice returns the members in display order.
func (s ActionSet) Slice() []Action {
	out := make([]Action, 0, len(Actions))
	for _, a := range Actions {
		if s.Contains(a) {
			out = append(out, a)
		}
	}
	return out
}

func (s ActionSet) String() string {
	names := make([]string, 0, len(Actions))
	for _, a := range s.Slice() {
		names = append(names, a.String())
	}
	return "[" + strings.Join(names, " ") + "]"
}

// MarshalJSON encodes the set as a list of action names.
func (s ActionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// State is the round state of a Game.
type State int

const (
	Betting State = iota
	PlayerTurn
	DealerTurn
	RoundOver
)

func (s State) String() string {
	switch s {
	case Betting:
		return "betting"
	case PlayerTurn:
		return "player_turn"
	case DealerTurn:
		return "dealer_turn"
	case RoundOver:
		return "round_over"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
