package physics

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/sugarlabs/Bridge/geom"
)

func newTestWorld() *World {
	return NewWorld(DefaultSettings())
}

var dyn = BodyOptions{Dynamic: true, Density: 1, Restitution: 0.16, Friction: 0.5}

func TestScreenWorldRoundTrip(t *testing.T) {
	w := newTestWorld()
	p := geom.Pt(123, 456)
	back := w.WorldToScreen(w.ScreenToWorld(p))
	if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
		t.Fatalf("round trip = %+v, want %+v", back, p)
	}
	// bottom of the screen is world y=0
	if v := w.ScreenToWorld(geom.Pt(0, 900)); v.Y != 0 {
		t.Fatalf("bottom edge y = %f, want 0", v.Y)
	}
}

func TestQueryBodiesAtFiltersStaticAndOrders(t *testing.T) {
	w := newTestWorld()
	ground := w.AddBox(geom.Pt(200, 800), 200, 50, 0, BodyOptions{})
	box := w.AddBox(geom.Pt(200, 800), 20, 20, 0, dyn)

	all := w.QueryBodiesAt(geom.Pt(200, 800), true)
	if len(all) != 2 {
		t.Fatalf("query with static = %v, want 2 bodies", all)
	}
	// the small box's centre is 20px deep, the ground's is 50px deep
	if all[0] != ground || all[1] != box {
		t.Fatalf("unexpected order %v (ground=%v box=%v)", all, ground, box)
	}

	onlyDyn := w.QueryBodiesAt(geom.Pt(200, 800), false)
	if len(onlyDyn) != 1 || onlyDyn[0] != box {
		t.Fatalf("dynamic-only query = %v, want [%v]", onlyDyn, box)
	}

	if got := w.QueryBodiesAt(geom.Pt(1000, 100), true); len(got) != 0 {
		t.Fatalf("empty spot returned %v", got)
	}
}

func TestQueryTieBreaksNewestFirst(t *testing.T) {
	w := newTestWorld()
	a := w.AddBox(geom.Pt(300, 300), 20, 20, 0, dyn)
	b := w.AddBox(geom.Pt(300, 300), 20, 20, 0, dyn)
	got := w.QueryBodiesAt(geom.Pt(300, 300), false)
	if len(got) != 2 || got[0] != b || got[1] != a {
		t.Fatalf("order = %v, want [%v %v]", got, b, a)
	}
}

func TestDestroyBodyDetachesJoints(t *testing.T) {
	w := newTestWorld()
	a := w.AddBox(geom.Pt(100, 100), 50, 10, 0, dyn)
	b := w.AddBox(geom.Pt(200, 100), 50, 10, 0, dyn)
	j, err := w.AddRevoluteJoint(a, b, geom.Pt(150, 100))
	if err != nil {
		t.Fatalf("AddRevoluteJoint: %v", err)
	}
	g, err := w.AddRevoluteJoint(Ground, a, geom.Pt(60, 100))
	if err != nil {
		t.Fatalf("ground joint: %v", err)
	}
	if n := len(w.BodyJoints(a)); n != 2 {
		t.Fatalf("a has %d joints, want 2", n)
	}

	if err := w.DestroyBody(a); err != nil {
		t.Fatalf("DestroyBody: %v", err)
	}
	if w.JointAlive(j) || w.JointAlive(g) {
		t.Fatalf("joints survived their body")
	}
	if n := len(w.BodyJoints(b)); n != 0 {
		t.Fatalf("b still lists %d joints", n)
	}
	bodies, joints := w.Counts()
	if bodies != 1 || joints != 0 {
		t.Fatalf("counts = %d/%d, want 1/0", bodies, joints)
	}
	if err := w.DestroyBody(a); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("second destroy err = %v, want ErrStaleHandle", err)
	}
}

func TestStaleHandleAfterSlotReuse(t *testing.T) {
	w := newTestWorld()
	old := w.AddCircle(geom.Pt(100, 100), 10, dyn)
	if err := w.DestroyBody(old); err != nil {
		t.Fatalf("DestroyBody: %v", err)
	}
	fresh := w.AddCircle(geom.Pt(100, 100), 10, dyn)
	if fresh.Index != old.Index {
		t.Fatalf("expected slot reuse: %v vs %v", fresh, old)
	}
	if fresh.Gen == old.Gen {
		t.Fatalf("generation did not advance")
	}
	if w.Alive(old) {
		t.Fatalf("old handle still resolves")
	}
	if _, ok := w.Position(old); ok {
		t.Fatalf("Position on stale handle should fail")
	}
}

func TestJointNeedsDistinctBodies(t *testing.T) {
	w := newTestWorld()
	a := w.AddBox(geom.Pt(100, 100), 10, 10, 0, dyn)
	if _, err := w.AddRevoluteJoint(a, a, geom.Pt(100, 100)); !errors.Is(err, ErrSameBody) {
		t.Fatalf("err = %v, want ErrSameBody", err)
	}
	if _, err := w.AddRevoluteJoint(Ground, Ground, geom.Pt(100, 100)); !errors.Is(err, ErrSameBody) {
		t.Fatalf("ground-ground err = %v, want ErrSameBody", err)
	}
}

func TestStepPausedIsNoop(t *testing.T) {
	w := newTestWorld()
	b := w.AddBox(geom.Pt(300, 100), 10, 10, 0, dyn)
	before, _ := w.Position(b)

	w.Step(1.0 / 30)
	after, _ := w.Position(b)
	if after != before || w.Ticks() != 0 {
		t.Fatalf("paused step moved body: %+v -> %+v", before, after)
	}

	w.SetRunning(true)
	for i := 0; i < 10; i++ {
		w.Step(1.0 / 30)
	}
	after, _ = w.Position(b)
	if after.Y >= before.Y {
		t.Fatalf("body did not fall: %+v -> %+v", before, after)
	}
	if w.Ticks() != 10 {
		t.Fatalf("ticks = %d, want 10", w.Ticks())
	}
}

func TestReactionForce(t *testing.T) {
	w := newTestWorld()
	hang := w.AddBox(geom.Pt(300, 300), 40, 10, 0, dyn)
	pin, err := w.AddRevoluteJoint(Ground, hang, geom.Pt(260, 300))
	if err != nil {
		t.Fatalf("pin: %v", err)
	}
	wheel := w.AddCircle(geom.Pt(330, 300), 5, dyn)
	motor, err := w.AddMotorJoint(hang, wheel, geom.Pt(330, 300), 2)
	if err != nil {
		t.Fatalf("motor: %v", err)
	}

	w.SetRunning(true)
	for i := 0; i < 5; i++ {
		w.Step(1.0 / 30)
	}
	f, ok := w.ReactionForce(pin)
	if !ok || f <= 0 {
		t.Fatalf("pin force = %f,%v; want positive", f, ok)
	}
	if _, ok := w.ReactionForce(motor); ok {
		t.Fatalf("motor joints should not report a reaction force")
	}
}

func TestMouseJointLifecycle(t *testing.T) {
	w := newTestWorld()
	// releasing with nothing attached is fine
	w.ReleaseMouseJoint()
	if err := w.UpdateMouseJoint(geom.Pt(1, 1)); !errors.Is(err, ErrNoMouse) {
		t.Fatalf("update without mouse err = %v", err)
	}

	b := w.AddBox(geom.Pt(300, 300), 20, 20, 0, dyn)
	j, err := w.AttachMouseJoint(b, geom.Pt(300, 300))
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if got, ok := w.MouseJoint(); !ok || got != j {
		t.Fatalf("MouseJoint = %v,%v want %v", got, ok, j)
	}
	if k, _ := w.JointKind(j); k != Mouse {
		t.Fatalf("kind = %v, want mouse", k)
	}

	w.SetRunning(true)
	for i := 0; i < 10; i++ {
		if err := w.UpdateMouseJoint(geom.Pt(300+float64(i*10), 300)); err != nil {
			t.Fatalf("update: %v", err)
		}
		w.Step(1.0 / 30)
	}
	p, _ := w.ScreenPosition(b)
	if p.X <= 300 {
		t.Fatalf("dragged body did not follow the mouse: %+v", p)
	}

	w.ReleaseMouseJoint()
	w.ReleaseMouseJoint()
	if _, ok := w.MouseJoint(); ok {
		t.Fatalf("mouse joint survived release")
	}
	if w.JointAlive(j) {
		t.Fatalf("mouse joint handle still alive")
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	w := newTestWorld()
	ground := w.AddBox(geom.Pt(200, 850), 200, 50, 0, BodyOptions{})
	a := w.AddBox(geom.Pt(150, 500), 50, 15, 0.3, dyn)
	b := w.AddCircle(geom.Pt(260, 500), 25, dyn)
	gone := w.AddCircle(geom.Pt(600, 500), 25, dyn)
	_ = w.DestroyBody(gone)
	j1, _ := w.AddRevoluteJoint(ground, a, geom.Pt(110, 500))
	j2, _ := w.AddDistanceJoint(a, b, geom.Pt(190, 500), geom.Pt(240, 500))
	j3, _ := w.AddMotorJoint(a, b, geom.Pt(260, 500), 3)
	_, _ = w.AttachMouseJoint(b, geom.Pt(260, 500))

	blob, err := w.Serialize(map[string]any{"cost": 250, "capacity": 1501})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	r := newTestWorld()
	aux, err := r.Deserialize(blob)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	var cost, capacity int
	_ = json.Unmarshal(aux["cost"], &cost)
	_ = json.Unmarshal(aux["capacity"], &capacity)
	if cost != 250 || capacity != 1501 {
		t.Fatalf("aux = %d/%d, want 250/1501", cost, capacity)
	}

	bodies, joints := r.Counts()
	if bodies != 3 || joints != 3 {
		t.Fatalf("restored counts = %d/%d, want 3/3", bodies, joints)
	}
	for _, id := range []BodyID{ground, a, b} {
		want, _ := w.Position(id)
		got, ok := r.Position(id)
		if !ok {
			t.Fatalf("body %v missing after restore", id)
		}
		if math.Abs(want.X-got.X) > 1e-9 || math.Abs(want.Y-got.Y) > 1e-9 {
			t.Fatalf("body %v at %+v, want %+v", id, got, want)
		}
	}
	if r.Alive(gone) {
		t.Fatalf("destroyed body came back")
	}
	for id, kind := range map[JointID]JointKind{j1: Revolute, j2: Distance, j3: Motor} {
		if k, ok := r.JointKind(id); !ok || k != kind {
			t.Fatalf("joint %v = %v,%v want %v", id, k, ok, kind)
		}
	}
	if _, ok := r.MouseJoint(); ok {
		t.Fatalf("mouse joint should not be persisted")
	}
	if n := len(r.BodyJoints(a)); n != 3 {
		t.Fatalf("a has %d joints after restore, want 3", n)
	}
	if r.Running() {
		t.Fatalf("restored world should be paused")
	}
}

func TestDeserializeRejectsGarbage(t *testing.T) {
	w := newTestWorld()
	keep := w.AddBox(geom.Pt(100, 100), 10, 10, 0, dyn)
	if _, err := w.Deserialize([]byte("{not json")); err == nil {
		t.Fatalf("expected decode error")
	}
	bad := `{"version":1,"world":{"bodies":[],"joints":[{"id":{"i":0,"g":1},"alive":true,"kind":0,"a":{"i":4,"g":1},"b":{"i":0,"g":0}}]}}`
	if _, err := w.Deserialize([]byte(bad)); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("dangling joint err = %v, want ErrStaleHandle", err)
	}
	if !w.Alive(keep) {
		t.Fatalf("failed load clobbered the world")
	}
}
