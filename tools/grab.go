package tools

import (
	"github.com/sugarlabs/Bridge/input"
	"github.com/sugarlabs/Bridge/physics"
	"github.com/sugarlabs/Bridge/render"
)

// Grab drags a dynamic body with the mouse joint. It is only available once
// something has been built.
type Grab struct {
	joint    physics.JointID
	dragging bool
}

func (t *Grab) Name() string { return "grab" }

func (t *Grab) HandleEvent(ctx *Context, ev input.Event) bool {
	switch {
	case ev.IsPrimaryDown():
		if ctx.Bridge != nil && ctx.Bridge.Cost <= 0 {
			return false
		}
		t.release(ctx)
		body, ok := ctx.World.TopDynamicAt(ev.Pos)
		if !ok {
			return true
		}
		j, err := ctx.World.AttachMouseJoint(body, ev.Pos)
		if err != nil {
			return true
		}
		t.joint, t.dragging = j, true
		return true
	case ev.Kind == input.PointerMove && ev.Primary && t.dragging:
		if err := ctx.World.UpdateMouseJoint(ev.Pos); err != nil {
			// body was destroyed under us
			t.dragging = false
		}
		return true
	case ev.IsPrimaryUp():
		t.release(ctx)
		return true
	}
	return false
}

// Dragging reports whether a body is attached.
func (t *Grab) Dragging() bool { return t.dragging }

func (t *Grab) release(ctx *Context) {
	ctx.World.ReleaseMouseJoint()
	t.joint, t.dragging = physics.JointID{}, false
}

func (t *Grab) Preview(ctx *Context, c render.Canvas) {
	if t.dragging {
		c.Circle(ctx.Pointer, 4, render.Red, 0)
	}
}

func (t *Grab) Cancel(ctx *Context) {
	t.release(ctx)
}
