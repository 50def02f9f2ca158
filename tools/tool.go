package tools

import (
	"github.com/sugarlabs/Bridge/game"
	"github.com/sugarlabs/Bridge/geom"
	"github.com/sugarlabs/Bridge/input"
	"github.com/sugarlabs/Bridge/physics"
	"github.com/sugarlabs/Bridge/render"
)

// Tool is one interactive editing mode. HandleEvent reports whether the event
// was consumed.
type Tool interface {
	Name() string
	HandleEvent(ctx *Context, ev input.Event) bool
	Preview(ctx *Context, c render.Canvas)
	Cancel(ctx *Context)
}

// Ticker is implemented by tools that act every frame, not only on events.
type Ticker interface {
	Tick(ctx *Context)
}

// Info is toolbar metadata for a tool.
type Info struct {
	Name    string `json:"name"`
	Icon    string `json:"icon"`
	Tooltip string `json:"tooltip"`
}

// World is what the tools need from the physics adapter.
type World interface {
	AddBox(center geom.Point, halfWidth, halfHeight, angle float64, opts physics.BodyOptions) physics.BodyID
	AddCircle(center geom.Point, radius float64, opts physics.BodyOptions) physics.BodyID
	AddRevoluteJoint(a, b physics.BodyID, anchor geom.Point) (physics.JointID, error)
	QueryBodiesAt(at geom.Point, includeStatic bool) []physics.BodyID
	TopDynamicAt(at geom.Point) (physics.BodyID, bool)
	BodyKind(id physics.BodyID) (physics.BodyKind, bool)
	BodyJoints(id physics.BodyID) []physics.JointID
	DestroyBody(id physics.BodyID) error
	AttachMouseJoint(body physics.BodyID, at geom.Point) (physics.JointID, error)
	UpdateMouseJoint(at geom.Point) error
	ReleaseMouseJoint()
	SetRunning(run bool)
	Running() bool
}

// Controller is the loop that owns the tools.
type Controller interface {
	Stop()
}

// Context is handed to every tool call. Pointer and Held track the latest
// pointer state seen by the toolbox.
type Context struct {
	World    World
	Bridge   *game.Bridge
	Control  Controller
	Settings Settings

	Pointer geom.Point
	Held    bool
}

type AnchorZone struct {
	MinY      float64 `yaml:"min_y"`
	LeftMaxX  float64 `yaml:"left_max_x"`
	RightMinX float64 `yaml:"right_min_x"`
}

// Settings are the tool limits, in layout pixels where they are lengths.
type Settings struct {
	GirderThickness    float64    `yaml:"girder_thickness"`
	GirderMinLength    float64    `yaml:"girder_min_length"`
	GirderMaxLength    float64    `yaml:"girder_max_length"`
	CircleMinRadius    float64    `yaml:"circle_min_radius"`
	DestroyTrailLength int        `yaml:"destroy_trail_length"`
	AnchorZone         AnchorZone `yaml:"anchor_zone"`
	Density            float64    `yaml:"density"`
	Restitution        float64    `yaml:"restitution"`
	Friction           float64    `yaml:"friction"`
}

func DefaultSettings() Settings {
	return Settings{
		GirderThickness:    30,
		GirderMinLength:    100,
		GirderMaxLength:    300,
		CircleMinRadius:    1,
		DestroyTrailLength: 10,
		AnchorZone:         AnchorZone{MinY: 550, LeftMaxX: 350, RightMinX: 850},
		Density:            1,
		Restitution:        0.16,
		Friction:           0.5,
	}
}

func (s Settings) material() physics.BodyOptions {
	return physics.BodyOptions{
		Dynamic:     true,
		Density:     s.Density,
		Restitution: s.Restitution,
		Friction:    s.Friction,
	}
}

// inAnchorZone reports whether p is near the bottom corners of the canyon,
// where a single body may be pinned to the ground.
func (ctx *Context) inAnchorZone(p geom.Point) bool {
	z := ctx.Settings.AnchorZone
	l := game.Layout{ScaleX: 1, ScaleY: 1}
	if ctx.Bridge != nil {
		l = ctx.Bridge.Layout()
	}
	return p.Y > l.Y(z.MinY) && (p.X < l.X(z.LeftMaxX) || p.X > l.X(z.RightMinX))
}
