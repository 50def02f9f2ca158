package tools

import (
	"github.com/sugarlabs/Bridge/geom"
	"github.com/sugarlabs/Bridge/input"
	"github.com/sugarlabs/Bridge/render"
)

// Circle drops a ball centred on the press point; the drag sets the radius.
type Circle struct {
	center  geom.Point
	radius  float64
	placing bool
}

func (t *Circle) Name() string { return "circle" }

func (t *Circle) HandleEvent(ctx *Context, ev input.Event) bool {
	switch {
	case ev.IsPrimaryDown():
		t.center, t.radius = ev.Pos, 0
		t.placing = true
		return true
	case ev.Kind == input.PointerMove && t.placing:
		t.radius = geom.Distance(t.center, ev.Pos)
		return true
	case ev.IsPrimaryUp() && t.placing:
		t.radius = geom.Distance(t.center, ev.Pos)
		t.placing = false
		if t.radius > ctx.Settings.CircleMinRadius {
			opts := ctx.Settings.material()
			opts.Color = render.Grey
			ctx.World.AddCircle(t.center, t.radius, opts)
			if ctx.Bridge != nil {
				ctx.Bridge.CircleAdded()
			}
		}
		t.radius = 0
		return true
	}
	return false
}

func (t *Circle) Preview(_ *Context, c render.Canvas) {
	if t.placing && t.radius > 0 {
		c.Circle(t.center, t.radius, render.Grey, 3)
	}
}

func (t *Circle) Cancel(*Context) {
	t.placing = false
	t.radius = 0
}
