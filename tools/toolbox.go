package tools

import (
	"github.com/charmbracelet/log"

	"github.com/sugarlabs/Bridge/input"
	"github.com/sugarlabs/Bridge/render"
)

// Toolbox is the name -> tool registry plus the currently active tool.
type Toolbox struct {
	tools  map[string]Tool
	infos  []Info
	active Tool
	log    *log.Logger
}

func NewToolbox() *Toolbox {
	return &Toolbox{
		tools: make(map[string]Tool),
		log:   log.Default().WithPrefix("tools"),
	}
}

// DefaultRegistry registers the standard tools. Girder starts active.
func DefaultRegistry() *Toolbox {
	tb := NewToolbox()
	tb.Register(Info{Name: "girder", Icon: "box", Tooltip: "Girder"}, NewGirder())
	tb.Register(Info{Name: "circle", Icon: "circle", Tooltip: "Circle"}, &Circle{})
	tb.Register(Info{Name: "grab", Icon: "grab", Tooltip: "Grab"}, &Grab{})
	tb.Register(Info{Name: "destroy", Icon: "destroy", Tooltip: "Destroy"}, &Destroy{})
	tb.Register(Info{Name: "bridgejoint", Icon: "joint", Tooltip: "Bridge Joint"}, &BridgeJoint{})
	return tb
}

// Register adds t under info.Name. The first tool registered becomes active.
func (tb *Toolbox) Register(info Info, t Tool) {
	if _, dup := tb.tools[info.Name]; !dup {
		tb.infos = append(tb.infos, info)
	}
	tb.tools[info.Name] = t
	if tb.active == nil {
		tb.active = t
	}
}

func (tb *Toolbox) Active() Tool { return tb.active }

func (tb *Toolbox) Get(name string) (Tool, bool) {
	t, ok := tb.tools[name]
	return t, ok
}

func (tb *Toolbox) Infos() []Info {
	return append([]Info(nil), tb.infos...)
}

// Select cancels the outgoing tool and activates name. Unknown names are
// ignored and leave the active tool untouched.
func (tb *Toolbox) Select(ctx *Context, name string) bool {
	t, ok := tb.tools[name]
	if !ok {
		return false
	}
	if tb.active != nil {
		tb.active.Cancel(ctx)
	}
	tb.active = t
	tb.log.Debug("tool selected", "tool", name)
	return true
}

// Dispatch routes one event: global commands first, then the active tool.
func (tb *Toolbox) Dispatch(ctx *Context, ev input.Event) bool {
	switch ev.Kind {
	case input.PointerDown:
		ctx.Pointer = ev.Pos
		if ev.Button == input.ButtonPrimary {
			ctx.Held = true
		}
	case input.PointerUp:
		ctx.Pointer = ev.Pos
		if ev.Button == input.ButtonPrimary {
			ctx.Held = false
		}
	case input.PointerMove:
		ctx.Pointer = ev.Pos
		ctx.Held = ev.Primary
	}

	if tb.handleDefault(ctx, ev) {
		return true
	}
	if tb.active == nil {
		return false
	}
	return tb.active.HandleEvent(ctx, ev)
}

var keyTools = map[string]string{
	input.KeyB: "girder",
	input.KeyC: "circle",
	input.KeyJ: "bridgejoint",
	input.KeyG: "grab",
	input.KeyD: "destroy",
}

func (tb *Toolbox) handleDefault(ctx *Context, ev input.Event) bool {
	br := ctx.Bridge
	switch ev.Kind {
	case input.Quit:
		if ctx.Control != nil {
			ctx.Control.Stop()
		}
	case input.KeyDown:
		switch ev.Key {
		case input.KeySpace:
			br.CreateTrain(false)
			ctx.World.SetRunning(!ctx.World.Running())
		case input.KeyR:
			if br.TrainOffScreen {
				br.Restart()
			}
		case input.KeyT:
			// only after the previous train made it out
			if br.TrainExited {
				br.CreateTrain(true)
			}
		default:
			if name, ok := keyTools[ev.Key]; ok {
				tb.Select(ctx, name)
			}
		}
	case input.ToolSelect:
		tb.Select(ctx, ev.Action)
	case input.HostPause:
		ctx.World.SetRunning(!ctx.World.Running())
	case input.HostNewTrain:
		br.CreateTrain(true)
	case input.HostRestart:
		br.Restart()
	default:
		return false
	}
	return true
}

// Tick runs per-frame tool work.
func (tb *Toolbox) Tick(ctx *Context) {
	if t, ok := tb.active.(Ticker); ok {
		t.Tick(ctx)
	}
}

func (tb *Toolbox) Preview(ctx *Context, c render.Canvas) {
	if tb.active != nil {
		tb.active.Preview(ctx, c)
	}
}
