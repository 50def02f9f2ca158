package tools

import (
	"github.com/sugarlabs/Bridge/geom"
	"github.com/sugarlabs/Bridge/input"
	"github.com/sugarlabs/Bridge/physics"
	"github.com/sugarlabs/Bridge/render"
)

// Destroy removes dynamic bodies swept by the pointer while the primary
// button is held, leaving a short red trail.
type Destroy struct {
	trail []geom.Point
}

func (t *Destroy) Name() string { return "destroy" }

func (t *Destroy) HandleEvent(ctx *Context, ev input.Event) bool {
	if ev.IsPrimaryUp() {
		t.trail = t.trail[:0]
		return true
	}
	return ev.IsPrimaryDown()
}

// Tick samples the pointer once per frame while the button is held.
func (t *Destroy) Tick(ctx *Context) {
	if !ctx.Held {
		if len(t.trail) > 0 {
			t.trail = t.trail[:0]
		}
		return
	}
	t.trail = append(t.trail, ctx.Pointer)
	if n := ctx.Settings.DestroyTrailLength; n > 0 && len(t.trail) > n {
		t.trail = append(t.trail[:0], t.trail[len(t.trail)-n:]...)
	}

	if body, ok := ctx.World.TopDynamicAt(ctx.Pointer); ok {
		t.kill(ctx, body)
	}
}

func (t *Destroy) kill(ctx *Context, id physics.BodyID) {
	if k, ok := ctx.World.BodyKind(id); !ok || k != physics.Dynamic {
		return
	}
	if ctx.Bridge != nil {
		for _, j := range ctx.World.BodyJoints(id) {
			ctx.Bridge.JointDeleted(j)
		}
	}
	if err := ctx.World.DestroyBody(id); err != nil {
		return
	}
	if ctx.Bridge != nil {
		ctx.Bridge.ObjectDeleted()
	}
}

// Trail returns a copy of the sampled pointer positions, oldest first.
func (t *Destroy) Trail() []geom.Point {
	return append([]geom.Point(nil), t.trail...)
}

func (t *Destroy) Preview(_ *Context, c render.Canvas) {
	c.Lines(t.trail, false, render.Red, 5)
}

func (t *Destroy) Cancel(*Context) {
	t.trail = t.trail[:0]
}
