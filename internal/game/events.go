package game

import (
	"encoding/json"

	"github.com/vancomm/minesweeper-engine/internal/mines"
)

type EventKind int

const (
	EventNewGame EventKind = iota
	EventPlacementPending
	EventPlacementFailed
	EventBoardChanged
	EventWon
	EventLost
	EventTick
)

var eventNames = [...]string{
	EventNewGame:          "new_game",
	EventPlacementPending: "placement_pending",
	EventPlacementFailed:  "placement_failed",
	EventBoardChanged:     "board_changed",
	EventWon:              "won",
	EventLost:             "lost",
	EventTick:             "tick",
}

func (k EventKind) String() string {
	if 0 <= k && int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

func (k EventKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

type Event struct {
	Kind    EventKind    `json:"type"`
	GameID  string       `json:"game_id"`
	Config  mines.Config `json:"config"`
	State   mines.State  `json:"state"`
	Elapsed int          `json:"elapsed"`
	View    View         `json:"view"`
	Err     error        `json:"-"`
}

// Terminal reports whether the event ends the game.
func (e Event) Terminal() bool {
	return e.Kind == EventWon || e.Kind == EventLost
}

// Observer receives controller events. Notify runs with the controller
// locked: it must not call back into the controller.
type Observer interface {
	Notify(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) Notify(e Event) {
	f(e)
}
