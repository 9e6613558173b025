package mines

import "fmt"

type State int

const (
	Empty State = iota
	AwaitingFirstClick
	InPlay
	Won
	Lost
)

var stateNames = [...]string{
	Empty:              "empty",
	AwaitingFirstClick: "awaiting_first_click",
	InPlay:             "in_play",
	Won:                "won",
	Lost:               "lost",
}

func (s State) String() string {
	if 0 <= s && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether the game is over.
func (s State) Terminal() bool {
	return s == Won || s == Lost
}

// [State] implements [encoding.TextMarshaler]
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown game state %q", text)
}
