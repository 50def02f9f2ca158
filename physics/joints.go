package physics

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/sugarlabs/Bridge/geom"
)

// cpBody resolves a handle to an engine body. The zero handle is the space's
// static body.
func (w *World) cpBody(id BodyID) (*cp.Body, error) {
	if !id.Valid() {
		return w.space.StaticBody, nil
	}
	s := w.slot(id)
	if s == nil {
		return nil, ErrStaleHandle
	}
	return s.body, nil
}

func (w *World) pair(a, b BodyID) (*cp.Body, *cp.Body, error) {
	ba, err := w.cpBody(a)
	if err != nil {
		return nil, nil, err
	}
	bb, err := w.cpBody(b)
	if err != nil {
		return nil, nil, err
	}
	if ba == bb {
		return nil, nil, ErrSameBody
	}
	return ba, bb, nil
}

// AddRevoluteJoint pins a and b together at a screen point. Either handle may
// be Ground.
func (w *World) AddRevoluteJoint(a, b BodyID, anchor geom.Point) (JointID, error) {
	ba, bb, err := w.pair(a, b)
	if err != nil {
		return JointID{}, err
	}
	p := w.ScreenToWorld(anchor)
	c := cp.NewPivotJoint(ba, bb, p)
	c.SetCollideBodies(false)
	w.space.AddConstraint(c)
	return w.insertJoint(jointSlot{
		kind:        Revolute,
		a:           a,
		b:           b,
		anchorA:     ba.WorldToLocal(p),
		anchorB:     bb.WorldToLocal(p),
		constraints: []*cp.Constraint{c},
	}), nil
}

// AddDistanceJoint keeps the two screen anchors at their current distance.
func (w *World) AddDistanceJoint(a, b BodyID, anchorA, anchorB geom.Point) (JointID, error) {
	ba, bb, err := w.pair(a, b)
	if err != nil {
		return JointID{}, err
	}
	la := ba.WorldToLocal(w.ScreenToWorld(anchorA))
	lb := bb.WorldToLocal(w.ScreenToWorld(anchorB))
	c := cp.NewPinJoint(ba, bb, la, lb)
	w.space.AddConstraint(c)
	return w.insertJoint(jointSlot{
		kind:        Distance,
		a:           a,
		b:           b,
		anchorA:     la,
		anchorB:     lb,
		constraints: []*cp.Constraint{c},
	}), nil
}

// AddMotorJoint makes b an axle on a at the screen anchor and spins it
// counter-clockwise relative to a at rate rad/s.
func (w *World) AddMotorJoint(a, b BodyID, anchor geom.Point, rate float64) (JointID, error) {
	ba, bb, err := w.pair(a, b)
	if err != nil {
		return JointID{}, err
	}
	p := w.ScreenToWorld(anchor)
	la, lb := ba.WorldToLocal(p), bb.WorldToLocal(p)
	return w.insertJoint(w.buildMotor(ba, bb, a, b, la, lb, rate)), nil
}

func (w *World) buildMotor(ba, bb *cp.Body, a, b BodyID, la, lb cp.Vector, rate float64) jointSlot {
	axle := cp.NewPivotJoint2(ba, bb, la, lb)
	axle.SetCollideBodies(false)
	// cp drives b.w - a.w toward -Rate
	motor := cp.NewSimpleMotor(ba, bb, -rate)
	motor.SetMaxForce(w.set.MotorMaxForce)
	motor.SetCollideBodies(false)
	w.space.AddConstraint(axle)
	w.space.AddConstraint(motor)
	return jointSlot{
		kind:        Motor,
		a:           a,
		b:           b,
		anchorA:     la,
		anchorB:     lb,
		rate:        rate,
		constraints: []*cp.Constraint{axle, motor},
	}
}

// AttachMouseJoint drags body toward the screen point until released.
// Any previous mouse joint is released first.
func (w *World) AttachMouseJoint(body BodyID, at geom.Point) (JointID, error) {
	s := w.slot(body)
	if s == nil {
		return JointID{}, ErrStaleHandle
	}
	w.ReleaseMouseJoint()

	p := w.ScreenToWorld(at)
	mb := cp.NewKinematicBody()
	mb.SetPosition(p)
	c := cp.NewPivotJoint2(mb, s.body, cp.Vector{}, s.body.WorldToLocal(p))
	c.SetMaxForce(w.set.MouseMaxForce)
	c.SetErrorBias(math.Pow(1.0-0.15, 60.0))
	w.space.AddConstraint(c)

	w.mouseBody = mb
	w.mouse = w.insertJoint(jointSlot{
		kind:        Mouse,
		b:           body,
		anchorB:     s.body.WorldToLocal(p),
		constraints: []*cp.Constraint{c},
	})
	return w.mouse, nil
}

// UpdateMouseJoint moves the drag target.
func (w *World) UpdateMouseJoint(at geom.Point) error {
	if w.jointSlot(w.mouse) == nil || w.mouseBody == nil {
		return ErrNoMouse
	}
	p := w.ScreenToWorld(at)
	v := p.Sub(w.mouseBody.Position()).Mult(float64(w.set.TickHz))
	w.mouseBody.SetVelocityVector(v)
	w.mouseBody.SetPosition(p)
	return nil
}

// ReleaseMouseJoint drops the mouse joint if there is one.
func (w *World) ReleaseMouseJoint() {
	if w.jointSlot(w.mouse) != nil {
		_ = w.DestroyJoint(w.mouse)
	}
	w.mouse = JointID{}
	w.mouseBody = nil
}

// MouseJoint returns the active mouse joint, if any.
func (w *World) MouseJoint() (JointID, bool) {
	if w.jointSlot(w.mouse) == nil {
		return JointID{}, false
	}
	return w.mouse, true
}

func (w *World) insertJoint(s jointSlot) JointID {
	s.alive = true
	var idx uint32
	if n := len(w.freeJoints); n > 0 {
		idx = w.freeJoints[n-1]
		w.freeJoints = w.freeJoints[:n-1]
		s.gen = w.joints[idx].gen
	} else {
		idx = uint32(len(w.joints))
		s.gen = 1
		w.joints = append(w.joints, jointSlot{})
	}
	w.joints[idx] = s
	id := JointID{Index: idx, Gen: s.gen}
	for _, b := range []BodyID{s.a, s.b} {
		if bs := w.slot(b); bs != nil {
			bs.joints = append(bs.joints, id)
		}
	}
	return id
}

func (w *World) jointSlot(id JointID) *jointSlot {
	if !id.Valid() || int(id.Index) >= len(w.joints) {
		return nil
	}
	s := &w.joints[id.Index]
	if !s.alive || s.gen != id.Gen {
		return nil
	}
	return s
}

func (w *World) JointAlive(id JointID) bool { return w.jointSlot(id) != nil }

// DestroyJoint removes a joint from the space and from both bodies.
func (w *World) DestroyJoint(id JointID) error {
	s := w.jointSlot(id)
	if s == nil {
		return ErrStaleHandle
	}
	for _, c := range s.constraints {
		w.space.RemoveConstraint(c)
	}
	for _, b := range []BodyID{s.a, s.b} {
		if bs := w.slot(b); bs != nil {
			bs.joints = removeJoint(bs.joints, id)
		}
	}
	if s.kind == Mouse && id == w.mouse {
		w.mouse = JointID{}
		w.mouseBody = nil
	}
	gen := s.gen + 1
	*s = jointSlot{gen: gen}
	w.freeJoints = append(w.freeJoints, id.Index)
	return nil
}

func removeJoint(list []JointID, id JointID) []JointID {
	for i, j := range list {
		if j == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// Joints lists live joints in slot order.
func (w *World) Joints() []JointID {
	out := make([]JointID, 0, len(w.joints))
	for i := range w.joints {
		if w.joints[i].alive {
			out = append(out, JointID{Index: uint32(i), Gen: w.joints[i].gen})
		}
	}
	return out
}

func (w *World) JointKind(id JointID) (JointKind, bool) {
	s := w.jointSlot(id)
	if s == nil {
		return Revolute, false
	}
	return s.kind, true
}

// JointBodies returns the two ends of a joint; Ground stands for the static body.
func (w *World) JointBodies(id JointID) (BodyID, BodyID, bool) {
	s := w.jointSlot(id)
	if s == nil {
		return BodyID{}, BodyID{}, false
	}
	return s.a, s.b, true
}

func (w *World) anchorWorld(b BodyID, local cp.Vector) (cp.Vector, bool) {
	body, err := w.cpBody(b)
	if err != nil {
		return cp.Vector{}, false
	}
	return body.LocalToWorld(local), true
}

// JointAnchor returns the joint's anchor on its second body in screen pixels.
func (w *World) JointAnchor(id JointID) (geom.Point, bool) {
	s := w.jointSlot(id)
	if s == nil {
		return geom.Point{}, false
	}
	v, ok := w.anchorWorld(s.b, s.anchorB)
	if !ok {
		return geom.Point{}, false
	}
	return w.WorldToScreen(v), true
}

// ReactionForce is the magnitude of the force the joint applied during the
// last step. Motor and mouse joints report ok=false: their load is driven,
// not structural.
func (w *World) ReactionForce(id JointID) (float64, bool) {
	s := w.jointSlot(id)
	if s == nil || s.kind == Motor || s.kind == Mouse {
		return 0, false
	}
	dt := w.lastDt
	if dt <= 0 {
		dt = 1 / float64(w.set.TickHz)
	}
	return s.constraints[0].Class.GetImpulse() / dt, true
}
