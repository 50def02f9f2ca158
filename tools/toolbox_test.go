package tools

import (
	"testing"

	"github.com/sugarlabs/Bridge/game"
	"github.com/sugarlabs/Bridge/input"
	"github.com/sugarlabs/Bridge/physics"
	"github.com/sugarlabs/Bridge/render"
)

type stopper struct{ stops int }

func (s *stopper) Stop() { s.stops++ }

func newTestContext() (*Context, *physics.World, *stopper) {
	w := physics.NewWorld(physics.DefaultSettings())
	st := &stopper{}
	ctx := &Context{
		World:    w,
		Bridge:   game.New(w, game.Options{Layout: game.Layout{ScaleX: 1, ScaleY: 1}}),
		Control:  st,
		Settings: DefaultSettings(),
	}
	return ctx, w, st
}

// countingTool records how often it was cancelled.
type countingTool struct {
	name    string
	cancels int
	events  int
}

func (c *countingTool) Name() string { return c.name }
func (c *countingTool) HandleEvent(*Context, input.Event) bool {
	c.events++
	return true
}
func (c *countingTool) Preview(*Context, render.Canvas) {}
func (c *countingTool) Cancel(*Context)                 { c.cancels++ }

func TestSelectCancelsOutgoingOnce(t *testing.T) {
	ctx, _, _ := newTestContext()
	a, b := &countingTool{name: "a"}, &countingTool{name: "b"}
	tb := NewToolbox()
	tb.Register(Info{Name: "a"}, a)
	tb.Register(Info{Name: "b"}, b)
	if tb.Active() != a {
		t.Fatalf("first registered tool should be active")
	}

	if !tb.Select(ctx, "b") {
		t.Fatalf("select b failed")
	}
	if a.cancels != 1 || b.cancels != 0 {
		t.Fatalf("cancels a=%d b=%d, want 1/0", a.cancels, b.cancels)
	}
	if tb.Select(ctx, "nope") {
		t.Fatalf("unknown tool selected")
	}
	if tb.Active() != b || b.cancels != 0 {
		t.Fatalf("unknown select disturbed the active tool")
	}
}

func TestUnknownToolSelectEventIgnored(t *testing.T) {
	ctx, _, _ := newTestContext()
	tb := DefaultRegistry()
	before := tb.Active()
	tb.Dispatch(ctx, input.SelectTool("teleport"))
	if tb.Active() != before {
		t.Fatalf("active tool changed to %s", tb.Active().Name())
	}
	tb.Dispatch(ctx, input.SelectTool("grab"))
	if tb.Active().Name() != "grab" {
		t.Fatalf("active = %s, want grab", tb.Active().Name())
	}
}

func TestDefaultRegistryOrder(t *testing.T) {
	tb := DefaultRegistry()
	want := []string{"girder", "circle", "grab", "destroy", "bridgejoint"}
	infos := tb.Infos()
	if len(infos) != len(want) {
		t.Fatalf("infos = %d, want %d", len(infos), len(want))
	}
	for i, n := range want {
		if infos[i].Name != n {
			t.Fatalf("infos[%d] = %s, want %s", i, infos[i].Name, n)
		}
		if tool, ok := tb.Get(n); !ok || tool.Name() != n {
			t.Fatalf("tool %s not registered under its own name", n)
		}
	}
	if tb.Active().Name() != "girder" {
		t.Fatalf("initial tool = %s", tb.Active().Name())
	}
}

func TestLetterKeysSelectTools(t *testing.T) {
	ctx, _, _ := newTestContext()
	tb := DefaultRegistry()
	cases := map[string]string{
		input.KeyC: "circle",
		input.KeyJ: "bridgejoint",
		input.KeyG: "grab",
		input.KeyD: "destroy",
		input.KeyB: "girder",
	}
	for key, name := range cases {
		tb.Dispatch(ctx, input.Key(key))
		if tb.Active().Name() != name {
			t.Fatalf("key %q selected %s, want %s", key, tb.Active().Name(), name)
		}
	}
}

func TestSpaceCreatesTrainOnceAndTogglesPause(t *testing.T) {
	ctx, w, _ := newTestContext()
	tb := DefaultRegistry()

	tb.Dispatch(ctx, input.Key(input.KeySpace))
	if !ctx.Bridge.TrainCreated || !w.Running() {
		t.Fatalf("space should create the train and run: created=%v running=%v", ctx.Bridge.TrainCreated, w.Running())
	}
	bodies, joints := w.Counts()

	tb.Dispatch(ctx, input.Key(input.KeySpace))
	if w.Running() {
		t.Fatalf("second space should pause")
	}
	if b, j := w.Counts(); b != bodies || j != joints {
		t.Fatalf("second space spawned again: %d/%d -> %d/%d", bodies, joints, b, j)
	}
}

func TestRestartOnlyAfterFall(t *testing.T) {
	ctx, w, _ := newTestContext()
	tb := DefaultRegistry()
	tb.Dispatch(ctx, input.Key(input.KeySpace))

	tb.Dispatch(ctx, input.Key(input.KeyR))
	if !w.Running() || !ctx.Bridge.TrainCreated {
		t.Fatalf("r restarted a train that did not fall")
	}

	ctx.Bridge.TrainOffScreen = true
	tb.Dispatch(ctx, input.Key(input.KeyR))
	if w.Running() || ctx.Bridge.TrainOffScreen || ctx.Bridge.TrainCreated {
		t.Fatalf("r after a fall should restart: %+v", ctx.Bridge.Snapshot())
	}
}

func TestNewTrainOnlyAfterExit(t *testing.T) {
	ctx, _, _ := newTestContext()
	tb := DefaultRegistry()
	tb.Dispatch(ctx, input.Key(input.KeySpace))
	first := ctx.Bridge.Train().Lead

	tb.Dispatch(ctx, input.Key(input.KeyT))
	if ctx.Bridge.Train().Lead != first {
		t.Fatalf("t replaced a train that had not exited")
	}

	ctx.Bridge.TrainExited = true
	tb.Dispatch(ctx, input.Key(input.KeyT))
	if ctx.Bridge.Train().Lead == first {
		t.Fatalf("t should send a new train after exit")
	}
}

func TestQuitStopsController(t *testing.T) {
	ctx, _, st := newTestContext()
	tb := DefaultRegistry()
	tb.Dispatch(ctx, input.Event{Kind: input.Quit})
	if st.stops != 1 {
		t.Fatalf("stops = %d, want 1", st.stops)
	}
}

func TestHostCommands(t *testing.T) {
	ctx, w, _ := newTestContext()
	tb := DefaultRegistry()

	tb.Dispatch(ctx, input.Event{Kind: input.HostPause})
	if !w.Running() {
		t.Fatalf("host pause should toggle to running")
	}
	tb.Dispatch(ctx, input.Event{Kind: input.HostNewTrain})
	if !ctx.Bridge.TrainCreated {
		t.Fatalf("host new train did not spawn")
	}
	tb.Dispatch(ctx, input.Event{Kind: input.HostRestart})
	if w.Running() || ctx.Bridge.TrainCreated {
		t.Fatalf("host restart left %+v running=%v", ctx.Bridge.Snapshot(), w.Running())
	}
}

func TestDispatchTracksPointer(t *testing.T) {
	ctx, _, _ := newTestContext()
	tb := NewToolbox()
	tb.Register(Info{Name: "x"}, &countingTool{name: "x"})

	tb.Dispatch(ctx, input.Down(10, 20))
	if !ctx.Held || ctx.Pointer.X != 10 || ctx.Pointer.Y != 20 {
		t.Fatalf("after down: held=%v pointer=%v", ctx.Held, ctx.Pointer)
	}
	tb.Dispatch(ctx, input.Move(30, 40, true))
	if !ctx.Held || ctx.Pointer.X != 30 {
		t.Fatalf("after move: held=%v pointer=%v", ctx.Held, ctx.Pointer)
	}
	tb.Dispatch(ctx, input.Up(30, 40))
	if ctx.Held {
		t.Fatalf("still held after up")
	}
}
