package tools

import (
	"github.com/sugarlabs/Bridge/geom"
	"github.com/sugarlabs/Bridge/input"
	"github.com/sugarlabs/Bridge/render"
)

// Girder draws a beam from the press point toward the release point.
type Girder struct {
	anchor  geom.Point
	end     geom.Point
	angle   float64 // last non-zero drag direction
	placing bool

	// grey shade of the next girder, bouncing between 20 and 200
	shade int
	step  int
}

func NewGirder() *Girder {
	return &Girder{shade: 20, step: 20}
}

func (g *Girder) Name() string { return "girder" }

func (g *Girder) HandleEvent(ctx *Context, ev input.Event) bool {
	s := ctx.Settings
	switch {
	case ev.IsPrimaryDown():
		g.anchor, g.angle = ev.Pos, 0
		g.stretch(ev.Pos, s)
		g.placing = true
		return true
	case ev.Kind == input.PointerMove && g.placing:
		g.stretch(ev.Pos, s)
		return true
	case ev.IsPrimaryUp() && g.placing:
		g.stretch(ev.Pos, s)
		g.placing = false
		g.commit(ctx)
		return true
	}
	return false
}

// stretch points the girder at p, keeping its length within the limits.
// On the anchor itself the previous direction is kept.
func (g *Girder) stretch(p geom.Point, s Settings) {
	if p != g.anchor {
		g.angle = geom.Angle(g.anchor, p)
		g.end = geom.ClampLength(g.anchor, p, s.GirderMinLength, s.GirderMaxLength)
		return
	}
	g.end = geom.Polar(g.anchor, g.angle, s.GirderMinLength)
}

func (g *Girder) commit(ctx *Context) {
	s := ctx.Settings
	opts := s.material()
	opts.Color = g.color()
	ctx.World.AddBox(
		geom.Midpoint(g.anchor, g.end),
		geom.Distance(g.anchor, g.end)/2,
		s.GirderThickness/2,
		geom.Angle(g.anchor, g.end),
		opts,
	)
	if ctx.Bridge != nil {
		ctx.Bridge.BoxAdded()
	}

	g.shade += g.step
	if g.shade > 200 || g.shade < 20 {
		g.step = -g.step
	}
}

func (g *Girder) color() render.Color {
	v := uint8(geom.Clamp(float64(g.shade), 0, 255))
	return render.RGB(v, v, v)
}

// Length of the girder being placed, zero when idle.
func (g *Girder) Length() float64 {
	if !g.placing {
		return 0
	}
	return geom.Distance(g.anchor, g.end)
}

func (g *Girder) Preview(ctx *Context, c render.Canvas) {
	if !g.placing {
		return
	}
	corners := geom.RectCorners(g.anchor, geom.Angle(g.anchor, g.end), geom.Distance(g.anchor, g.end), ctx.Settings.GirderThickness)
	c.Polygon(corners[:], g.color(), 0)
}

func (g *Girder) Cancel(*Context) {
	g.placing = false
}
