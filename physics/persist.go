package physics

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/jakecoffman/cp"

	"github.com/sugarlabs/Bridge/render"
)

const blobVersion = 1

type vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func toVec(v cp.Vector) vec     { return vec{v.X, v.Y} }
func (v vec) vector() cp.Vector { return cp.Vector{X: v.X, Y: v.Y} }

type bodyRecord struct {
	ID          BodyID       `json:"id"`
	Alive       bool         `json:"alive"`
	Seq         uint64       `json:"seq,omitempty"`
	Dynamic     bool         `json:"dynamic,omitempty"`
	Shape       ShapeKind    `json:"shape"`
	HalfW       float64      `json:"hw,omitempty"`
	HalfH       float64      `json:"hh,omitempty"`
	Radius      float64      `json:"r,omitempty"`
	Pos         vec          `json:"pos"`
	Angle       float64      `json:"angle"`
	Vel         vec          `json:"vel"`
	AngVel      float64      `json:"w"`
	Density     float64      `json:"density"`
	Restitution float64      `json:"restitution"`
	Friction    float64      `json:"friction"`
	Color       render.Color `json:"color"`
	Tag         string       `json:"tag,omitempty"`
}

type jointRecord struct {
	ID      JointID   `json:"id"`
	Alive   bool      `json:"alive"`
	Kind    JointKind `json:"kind"`
	A       BodyID    `json:"a"`
	B       BodyID    `json:"b"`
	AnchorA vec       `json:"anchor_a"`
	AnchorB vec       `json:"anchor_b"`
	Rate    float64   `json:"rate,omitempty"`
}

type worldRecord struct {
	Seq    uint64        `json:"seq"`
	Bodies []bodyRecord  `json:"bodies"`
	Joints []jointRecord `json:"joints"`
}

type blob struct {
	Version        int                        `json:"version"`
	World          worldRecord                `json:"world"`
	AdditionalVars map[string]json.RawMessage `json:"additional_vars,omitempty"`
}

// Serialize writes the body/joint graph together with aux, which must be
// JSON-encodable. Mouse joints are transient and are not written.
func (w *World) Serialize(aux map[string]any) ([]byte, error) {
	rec := worldRecord{Seq: w.seq}
	for i := range w.bodies {
		s := &w.bodies[i]
		r := bodyRecord{ID: BodyID{Index: uint32(i), Gen: s.gen}, Alive: s.alive}
		if s.alive {
			p, v := s.body.Position(), s.body.Velocity()
			r.Seq = s.seq
			r.Dynamic = s.kind == Dynamic
			r.Shape = s.form
			r.HalfW, r.HalfH, r.Radius = s.halfW, s.halfH, s.radius
			r.Pos, r.Vel = toVec(p), toVec(v)
			r.Angle = s.body.Angle()
			r.AngVel = s.body.AngularVelocity()
			r.Density = s.opts.Density
			r.Restitution = s.opts.Restitution
			r.Friction = s.opts.Friction
			r.Color = s.opts.Color
			r.Tag = s.opts.Tag
		}
		rec.Bodies = append(rec.Bodies, r)
	}
	for i := range w.joints {
		s := &w.joints[i]
		r := jointRecord{ID: JointID{Index: uint32(i), Gen: s.gen}, Alive: s.alive && s.kind != Mouse}
		if s.alive && s.kind == Mouse {
			// next load sees the slot as already recycled
			r.ID.Gen++
		}
		if r.Alive {
			r.Kind = s.kind
			r.A, r.B = s.a, s.b
			r.AnchorA, r.AnchorB = toVec(s.anchorA), toVec(s.anchorB)
			r.Rate = s.rate
		}
		rec.Joints = append(rec.Joints, r)
	}

	out := blob{Version: blobVersion, World: rec}
	if len(aux) > 0 {
		out.AdditionalVars = make(map[string]json.RawMessage, len(aux))
		for k, v := range aux {
			b, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encode %q: %w", k, err)
			}
			out.AdditionalVars[k] = b
		}
	}
	return json.Marshal(out)
}

// Deserialize replaces the world's contents with the graph stored in data and
// returns the auxiliary payload. The world is left paused. On error the world
// is left untouched.
func (w *World) Deserialize(data []byte) (map[string]json.RawMessage, error) {
	var in blob
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode world: %w", err)
	}
	if in.Version != blobVersion {
		return nil, fmt.Errorf("unsupported world version %d", in.Version)
	}
	if err := in.World.check(); err != nil {
		return nil, err
	}

	w.Clear()
	w.bodies = make([]bodySlot, len(in.World.Bodies))
	for i, r := range in.World.Bodies {
		if !r.Alive {
			w.bodies[i] = bodySlot{gen: r.ID.Gen}
			w.freeBodies = append(w.freeBodies, uint32(i))
			continue
		}
		w.bodies[i] = w.restoreBody(r)
	}
	w.joints = make([]jointSlot, len(in.World.Joints))
	for i, r := range in.World.Joints {
		if !r.Alive {
			w.joints[i] = jointSlot{gen: r.ID.Gen}
			w.freeJoints = append(w.freeJoints, uint32(i))
			continue
		}
		w.joints[i] = w.restoreJoint(r)
	}
	w.seq = in.World.Seq

	if in.AdditionalVars == nil {
		in.AdditionalVars = map[string]json.RawMessage{}
	}
	w.log.Debug("world restored", "bodies", len(w.bodies), "joints", len(w.joints))
	return in.AdditionalVars, nil
}

// check validates slot indices and joint ends before anything is rebuilt.
func (r worldRecord) check() error {
	alive := map[BodyID]bool{}
	for i, b := range r.Bodies {
		if int(b.ID.Index) != i || b.ID.Gen == 0 {
			return fmt.Errorf("body slot %d: bad id %v", i, b.ID)
		}
		if b.Alive {
			alive[b.ID] = true
		}
	}
	for i, j := range r.Joints {
		if int(j.ID.Index) != i || j.ID.Gen == 0 {
			return fmt.Errorf("joint slot %d: bad id %v", i, j.ID)
		}
		if !j.Alive {
			continue
		}
		if j.Kind == Mouse {
			return fmt.Errorf("joint slot %d: mouse joints are not persistent", i)
		}
		for _, end := range []BodyID{j.A, j.B} {
			if end.Valid() && !alive[end] {
				return fmt.Errorf("joint slot %d: %w (%v)", i, ErrStaleHandle, end)
			}
		}
		if j.A == j.B {
			return fmt.Errorf("joint slot %d: %w", i, ErrSameBody)
		}
	}
	return nil
}

func (w *World) restoreBody(r bodyRecord) bodySlot {
	opts := BodyOptions{
		Dynamic:     r.Dynamic,
		Density:     r.Density,
		Restitution: r.Restitution,
		Friction:    r.Friction,
		Color:       r.Color,
		Tag:         r.Tag,
	}

	var body *cp.Body
	var shape *cp.Shape
	switch r.Shape {
	case Ball:
		if r.Dynamic {
			mass := density(opts) * math.Pi * r.Radius * r.Radius
			body = cp.NewBody(mass, cp.MomentForCircle(mass, 0, r.Radius, cp.Vector{}))
		} else {
			body = cp.NewStaticBody()
		}
		shape = cp.NewCircle(body, r.Radius, cp.Vector{})
	default:
		width, height := 2*r.HalfW, 2*r.HalfH
		if r.Dynamic {
			mass := density(opts) * width * height
			body = cp.NewBody(mass, cp.MomentForBox(mass, width, height))
		} else {
			body = cp.NewStaticBody()
		}
		shape = cp.NewBox(body, width, height, 0)
	}
	body.SetPosition(r.Pos.vector())
	body.SetAngle(r.Angle)
	w.space.AddBody(body)
	w.space.AddShape(shape)
	shape.SetElasticity(r.Restitution)
	shape.SetFriction(r.Friction)
	if r.Dynamic {
		body.SetVelocityVector(r.Vel.vector())
		body.SetAngularVelocity(r.AngVel)
	}
	body.UserData = r.ID

	return bodySlot{
		gen:    r.ID.Gen,
		alive:  true,
		seq:    r.Seq,
		body:   body,
		shape:  shape,
		kind:   kindOf(opts),
		form:   r.Shape,
		halfW:  r.HalfW,
		halfH:  r.HalfH,
		radius: r.Radius,
		opts:   opts,
	}
}

func (w *World) restoreJoint(r jointRecord) jointSlot {
	// ends were checked before the rebuild started
	ba, _ := w.cpBody(r.A)
	bb, _ := w.cpBody(r.B)
	la, lb := r.AnchorA.vector(), r.AnchorB.vector()

	var s jointSlot
	switch r.Kind {
	case Motor:
		s = w.buildMotor(ba, bb, r.A, r.B, la, lb, r.Rate)
	case Distance:
		c := cp.NewPinJoint(ba, bb, la, lb)
		w.space.AddConstraint(c)
		s = jointSlot{kind: Distance, a: r.A, b: r.B, anchorA: la, anchorB: lb, constraints: []*cp.Constraint{c}}
	default:
		c := cp.NewPivotJoint2(ba, bb, la, lb)
		c.SetCollideBodies(false)
		w.space.AddConstraint(c)
		s = jointSlot{kind: Revolute, a: r.A, b: r.B, anchorA: la, anchorB: lb, constraints: []*cp.Constraint{c}}
	}
	s.gen = r.ID.Gen
	s.alive = true
	for _, end := range []BodyID{r.A, r.B} {
		if bs := w.slot(end); bs != nil {
			bs.joints = append(bs.joints, r.ID)
		}
	}
	return s
}
