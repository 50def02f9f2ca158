package tools

import (
	"github.com/sugarlabs/Bridge/geom"
	"github.com/sugarlabs/Bridge/input"
	"github.com/sugarlabs/Bridge/physics"
	"github.com/sugarlabs/Bridge/render"
)

// BridgeJoint pins bodies together, or to the ground near the canyon edges,
// at the release point.
type BridgeJoint struct{}

func (t *BridgeJoint) Name() string { return "bridgejoint" }

func (t *BridgeJoint) HandleEvent(ctx *Context, ev input.Event) bool {
	if !ev.IsPrimaryUp() {
		return false
	}
	a, b, ok := t.pick(ctx, ev.Pos)
	if !ok {
		return true
	}
	j, err := ctx.World.AddRevoluteJoint(a, b, ev.Pos)
	if err != nil {
		return true
	}
	if ctx.Bridge != nil {
		ctx.Bridge.JointAdded(j)
	}
	return true
}

// pick decides which pair of bodies to join at p.
func (t *BridgeJoint) pick(ctx *Context, p geom.Point) (physics.BodyID, physics.BodyID, bool) {
	bodies := ctx.World.QueryBodiesAt(p, true)
	switch len(bodies) {
	case 1:
		if !isDynamic(ctx.World, bodies[0]) || !ctx.inAnchorZone(p) {
			return physics.BodyID{}, physics.BodyID{}, false
		}
		return physics.Ground, bodies[0], true
	case 2:
		d0, d1 := isDynamic(ctx.World, bodies[0]), isDynamic(ctx.World, bodies[1])
		switch {
		case !d0 && !d1:
			return physics.BodyID{}, physics.BodyID{}, false
		case !d0:
			return physics.Ground, bodies[1], true
		case !d1:
			return physics.Ground, bodies[0], true
		}
		return bodies[0], bodies[1], true
	}
	return physics.BodyID{}, physics.BodyID{}, false
}

func isDynamic(w World, id physics.BodyID) bool {
	k, ok := w.BodyKind(id)
	return ok && k == physics.Dynamic
}

func (t *BridgeJoint) Preview(*Context, render.Canvas) {}

func (t *BridgeJoint) Cancel(*Context) {}
