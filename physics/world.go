package physics

import (
	"math"

	"github.com/charmbracelet/log"
	"github.com/jakecoffman/cp"

	"github.com/sugarlabs/Bridge/geom"
	"github.com/sugarlabs/Bridge/render"
)

// Settings configure the space and the screen<->world mapping.
type Settings struct {
	Width, Height  int     // display size in pixels
	PixelsPerMeter float64 // screen scale
	Gravity        float64 // m/s^2, pulls toward -y
	Iterations     int
	TickHz         int
	MouseMaxForce  float64
	MotorMaxForce  float64
}

func DefaultSettings() Settings {
	return Settings{
		Width:          1200,
		Height:         900,
		PixelsPerMeter: 50,
		Gravity:        10,
		Iterations:     20,
		TickHz:         30,
		MouseMaxForce:  50000,
		MotorMaxForce:  50000,
	}
}

// BodyOptions are the material and type of a new body.
type BodyOptions struct {
	Dynamic     bool
	Density     float64
	Restitution float64
	Friction    float64
	Color       render.Color
	Tag         string
}

type bodySlot struct {
	gen   uint32
	alive bool
	seq   uint64

	body  *cp.Body
	shape *cp.Shape

	kind   BodyKind
	form   ShapeKind
	halfW  float64 // meters
	halfH  float64
	radius float64
	opts   BodyOptions

	joints []JointID
}

type jointSlot struct {
	gen   uint32
	alive bool

	kind        JointKind
	a, b        BodyID
	anchorA     cp.Vector // local to a
	anchorB     cp.Vector // local to b
	rate        float64
	constraints []*cp.Constraint // first one carries the load
}

// World owns the cp space and every body and joint in it. Callers only hold
// BodyID/JointID handles; a handle stops resolving once its slot is freed.
type World struct {
	set   Settings
	space *cp.Space

	bodies     []bodySlot
	freeBodies []uint32
	joints     []jointSlot
	freeJoints []uint32
	seq        uint64

	running bool
	ticks   int
	lastDt  float64

	mouse     JointID
	mouseBody *cp.Body

	log *log.Logger
}

func NewWorld(set Settings) *World {
	if set.PixelsPerMeter <= 0 {
		set.PixelsPerMeter = DefaultSettings().PixelsPerMeter
	}
	if set.TickHz <= 0 {
		set.TickHz = DefaultSettings().TickHz
	}
	if set.Iterations <= 0 {
		set.Iterations = DefaultSettings().Iterations
	}
	w := &World{
		set: set,
		log: log.Default().WithPrefix("physics"),
	}
	w.reset()
	return w
}

func (w *World) reset() {
	w.space = cp.NewSpace()
	w.space.Iterations = uint(w.set.Iterations)
	w.space.SetGravity(cp.Vector{X: 0, Y: -w.set.Gravity})
	w.bodies = nil
	w.freeBodies = nil
	w.joints = nil
	w.freeJoints = nil
	w.seq = 0
	w.ticks = 0
	w.lastDt = 0
	w.mouse = JointID{}
	w.mouseBody = nil
}

// Clear removes every body and joint and pauses the simulation.
func (w *World) Clear() {
	w.reset()
	w.running = false
}

func (w *World) Settings() Settings { return w.set }

func (w *World) SetRunning(run bool) { w.running = run }
func (w *World) Running() bool       { return w.running }
func (w *World) Ticks() int          { return w.ticks }

// Step advances the space by dt seconds. Does nothing while paused.
func (w *World) Step(dt float64) {
	if !w.running {
		return
	}
	if dt <= 0 {
		dt = 1 / float64(w.set.TickHz)
	}
	w.space.Step(dt)
	w.lastDt = dt
	w.ticks++
}

func (w *World) ScreenToWorld(p geom.Point) cp.Vector {
	ppm := w.set.PixelsPerMeter
	return cp.Vector{X: p.X / ppm, Y: (float64(w.set.Height) - p.Y) / ppm}
}

func (w *World) WorldToScreen(v cp.Vector) geom.Point {
	ppm := w.set.PixelsPerMeter
	return geom.Point{X: v.X * ppm, Y: float64(w.set.Height) - v.Y*ppm}
}

func (w *World) toMeters(px float64) float64 { return px / w.set.PixelsPerMeter }

// AddBox adds a box centred on a screen point. halfWidth and halfHeight are
// in pixels, angle is counter-clockwise in radians.
func (w *World) AddBox(center geom.Point, halfWidth, halfHeight, angle float64, opts BodyOptions) BodyID {
	width := 2 * w.toMeters(halfWidth)
	height := 2 * w.toMeters(halfHeight)

	var body *cp.Body
	if opts.Dynamic {
		mass := density(opts) * width * height
		body = cp.NewBody(mass, cp.MomentForBox(mass, width, height))
	} else {
		body = cp.NewStaticBody()
	}
	body.SetPosition(w.ScreenToWorld(center))
	body.SetAngle(angle)
	w.space.AddBody(body)

	shape := w.space.AddShape(cp.NewBox(body, width, height, 0))
	shape.SetElasticity(opts.Restitution)
	shape.SetFriction(opts.Friction)

	return w.insertBody(bodySlot{
		body:  body,
		shape: shape,
		kind:  kindOf(opts),
		form:  Box,
		halfW: width / 2,
		halfH: height / 2,
		opts:  opts,
	})
}

// AddCircle adds a ball centred on a screen point with a radius in pixels.
func (w *World) AddCircle(center geom.Point, radius float64, opts BodyOptions) BodyID {
	r := w.toMeters(radius)

	var body *cp.Body
	if opts.Dynamic {
		mass := density(opts) * math.Pi * r * r
		body = cp.NewBody(mass, cp.MomentForCircle(mass, 0, r, cp.Vector{}))
	} else {
		body = cp.NewStaticBody()
	}
	body.SetPosition(w.ScreenToWorld(center))
	w.space.AddBody(body)

	shape := w.space.AddShape(cp.NewCircle(body, r, cp.Vector{}))
	shape.SetElasticity(opts.Restitution)
	shape.SetFriction(opts.Friction)

	return w.insertBody(bodySlot{
		body:   body,
		shape:  shape,
		kind:   kindOf(opts),
		form:   Ball,
		radius: r,
		opts:   opts,
	})
}

func density(opts BodyOptions) float64 {
	if opts.Density <= 0 {
		return 1
	}
	return opts.Density
}

func kindOf(opts BodyOptions) BodyKind {
	if opts.Dynamic {
		return Dynamic
	}
	return Static
}

func (w *World) insertBody(s bodySlot) BodyID {
	w.seq++
	s.seq = w.seq
	s.alive = true

	var idx uint32
	if n := len(w.freeBodies); n > 0 {
		idx = w.freeBodies[n-1]
		w.freeBodies = w.freeBodies[:n-1]
		s.gen = w.bodies[idx].gen
	} else {
		idx = uint32(len(w.bodies))
		s.gen = 1
		w.bodies = append(w.bodies, bodySlot{})
	}
	w.bodies[idx] = s
	id := BodyID{Index: idx, Gen: s.gen}
	s.body.UserData = id
	return id
}

func (w *World) slot(id BodyID) *bodySlot {
	if !id.Valid() || int(id.Index) >= len(w.bodies) {
		return nil
	}
	s := &w.bodies[id.Index]
	if !s.alive || s.gen != id.Gen {
		return nil
	}
	return s
}

// Alive reports whether id still refers to a body.
func (w *World) Alive(id BodyID) bool { return w.slot(id) != nil }

// DestroyBody removes a body and every joint attached to it.
func (w *World) DestroyBody(id BodyID) error {
	s := w.slot(id)
	if s == nil {
		return ErrStaleHandle
	}
	for _, j := range append([]JointID(nil), s.joints...) {
		_ = w.DestroyJoint(j)
	}
	w.space.RemoveShape(s.shape)
	w.space.RemoveBody(s.body)
	s.body.UserData = nil

	gen := s.gen + 1
	*s = bodySlot{gen: gen}
	w.freeBodies = append(w.freeBodies, id.Index)
	return nil
}

// Position returns the body's centre in world units (meters, y up).
func (w *World) Position(id BodyID) (geom.Point, bool) {
	s := w.slot(id)
	if s == nil {
		return geom.Point{}, false
	}
	p := s.body.Position()
	return geom.Point{X: p.X, Y: p.Y}, true
}

// ScreenPosition returns the body's centre in screen pixels.
func (w *World) ScreenPosition(id BodyID) (geom.Point, bool) {
	s := w.slot(id)
	if s == nil {
		return geom.Point{}, false
	}
	return w.WorldToScreen(s.body.Position()), true
}

func (w *World) BodyKind(id BodyID) (BodyKind, bool) {
	s := w.slot(id)
	if s == nil {
		return Static, false
	}
	return s.kind, true
}

// Tag returns the label the body was created with.
func (w *World) Tag(id BodyID) (string, bool) {
	s := w.slot(id)
	if s == nil {
		return "", false
	}
	return s.opts.Tag, true
}

func (w *World) BodyJoints(id BodyID) []JointID {
	s := w.slot(id)
	if s == nil {
		return nil
	}
	return append([]JointID(nil), s.joints...)
}

// BodyIDs lists live bodies in creation order.
func (w *World) BodyIDs() []BodyID {
	out := make([]BodyID, 0, len(w.bodies))
	for i := range w.bodies {
		if w.bodies[i].alive {
			out = append(out, BodyID{Index: uint32(i), Gen: w.bodies[i].gen})
		}
	}
	sortBySeq(w, out)
	return out
}

// Counts returns the number of live bodies and joints.
func (w *World) Counts() (bodies, joints int) {
	for i := range w.bodies {
		if w.bodies[i].alive {
			bodies++
		}
	}
	for i := range w.joints {
		if w.joints[i].alive {
			joints++
		}
	}
	return bodies, joints
}

// BodyShape is a render snapshot of one body, in screen pixels.
type BodyShape struct {
	ID     BodyID
	Kind   BodyKind
	Shape  ShapeKind
	Color  render.Color
	Tag    string
	Points []geom.Point // box corners
	Center geom.Point
	Radius float64
	Angle  float64
}

func (w *World) Bodies() []BodyShape {
	ids := w.BodyIDs()
	out := make([]BodyShape, 0, len(ids))
	for _, id := range ids {
		s := w.slot(id)
		bs := BodyShape{
			ID:     id,
			Kind:   s.kind,
			Shape:  s.form,
			Color:  s.opts.Color,
			Tag:    s.opts.Tag,
			Center: w.WorldToScreen(s.body.Position()),
			Angle:  s.body.Angle(),
		}
		switch s.form {
		case Box:
			local := []cp.Vector{
				{X: -s.halfW, Y: -s.halfH},
				{X: s.halfW, Y: -s.halfH},
				{X: s.halfW, Y: s.halfH},
				{X: -s.halfW, Y: s.halfH},
			}
			for _, v := range local {
				bs.Points = append(bs.Points, w.WorldToScreen(s.body.LocalToWorld(v)))
			}
		case Ball:
			bs.Radius = s.radius * w.set.PixelsPerMeter
		}
		out = append(out, bs)
	}
	return out
}

// Draw paints every body onto c.
func (w *World) Draw(c render.Canvas) {
	for _, b := range w.Bodies() {
		switch b.Shape {
		case Box:
			c.Polygon(b.Points, b.Color, 0)
		case Ball:
			c.Circle(b.Center, b.Radius, b.Color, 0)
			// spoke so rotation is visible
			edge := geom.Polar(b.Center, b.Angle, b.Radius)
			c.Line(b.Center, edge, render.White, 1)
		}
	}
	for _, j := range w.Joints() {
		js := &w.joints[j.Index]
		if js.kind != Distance {
			continue
		}
		a, _ := w.anchorWorld(js.a, js.anchorA)
		b, _ := w.anchorWorld(js.b, js.anchorB)
		c.Line(w.WorldToScreen(a), w.WorldToScreen(b), render.Black, 2)
	}
}
