package protocol

import (
	"errors"
	"fmt"

	"github.com/sugarlabs/Bridge/geom"
	"github.com/sugarlabs/Bridge/input"
)

var ErrUnknownKind = errors.New("protocol: unknown event kind")

// client -> server

type Hello struct {
	V       int    `json:"v"`                 // version
	Name    string `json:"name,omitempty"`    // optional name
	Session string `json:"session,omitempty"` // session code, empty to create one
}

// InputEvent is the wire form of input.Event. Positions are screen pixels.
type InputEvent struct {
	Kind    string  `json:"kind"`
	Key     string  `json:"key,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	Button  int     `json:"button,omitempty"`
	Primary bool    `json:"primary,omitempty"` // primary button held after the event
	Action  string  `json:"action,omitempty"`  // tool name for toolselect
}

func (e InputEvent) Event() (input.Event, error) {
	k, ok := input.ParseKind(e.Kind)
	if !ok {
		return input.Event{}, fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
	return input.Event{
		Kind:    k,
		Key:     e.Key,
		Pos:     geom.Pt(e.X, e.Y),
		Button:  e.Button,
		Primary: e.Primary,
		Action:  e.Action,
	}, nil
}

func FromEvent(ev input.Event) InputEvent {
	return InputEvent{
		Kind:    ev.Kind.String(),
		Key:     ev.Key,
		X:       ev.Pos.X,
		Y:       ev.Pos.Y,
		Button:  ev.Button,
		Primary: ev.Primary,
		Action:  ev.Action,
	}
}
