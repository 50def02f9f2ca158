package physics

import (
	"errors"
	"fmt"
)

var (
	ErrStaleHandle = errors.New("physics: stale or invalid handle")
	ErrSameBody    = errors.New("physics: joint needs two distinct bodies")
	ErrNoMouse     = errors.New("physics: no mouse joint attached")
)

// BodyID is a generation-checked index into the world's body arena.
// The zero value means "no body", which joint constructors read as the
// implicit static ground.
type BodyID struct {
	Index uint32 `json:"i"`
	Gen   uint32 `json:"g"`
}

func (id BodyID) Valid() bool { return id.Gen != 0 }

func (id BodyID) String() string {
	if !id.Valid() {
		return "ground"
	}
	return fmt.Sprintf("b%d.%d", id.Index, id.Gen)
}

// Ground refers to the world's implicit static body.
var Ground = BodyID{}

type JointID struct {
	Index uint32 `json:"i"`
	Gen   uint32 `json:"g"`
}

func (id JointID) Valid() bool { return id.Gen != 0 }

func (id JointID) String() string {
	return fmt.Sprintf("j%d.%d", id.Index, id.Gen)
}

type BodyKind uint8

const (
	Static BodyKind = iota
	Dynamic
)

func (k BodyKind) String() string {
	if k == Dynamic {
		return "dynamic"
	}
	return "static"
}

type ShapeKind uint8

const (
	Box ShapeKind = iota
	Ball
)

type JointKind uint8

const (
	Revolute JointKind = iota
	Distance
	Motor
	Mouse
)

func (k JointKind) String() string {
	switch k {
	case Revolute:
		return "revolute"
	case Distance:
		return "distance"
	case Motor:
		return "motor"
	case Mouse:
		return "mouse"
	}
	return "unknown"
}
