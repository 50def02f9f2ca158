package game

import (
	"math/rand"
	"testing"

	"github.com/sugarlabs/Bridge/geom"
	"github.com/sugarlabs/Bridge/physics"
	"github.com/sugarlabs/Bridge/render"
)

// forcedWorld lets tests dictate joint loads and body positions.
type forcedWorld struct {
	*physics.World
	forces map[physics.JointID]float64
	pos    map[physics.BodyID]geom.Point
}

func (f *forcedWorld) ReactionForce(j physics.JointID) (float64, bool) {
	if v, ok := f.forces[j]; ok && f.World.JointAlive(j) {
		return v, true
	}
	return f.World.ReactionForce(j)
}

func (f *forcedWorld) Position(id physics.BodyID) (geom.Point, bool) {
	if p, ok := f.pos[id]; ok && f.World.Alive(id) {
		return p, true
	}
	return f.World.Position(id)
}

type recordedSounds struct{ played []string }

func (r *recordedSounds) Play(name string) { r.played = append(r.played, name) }

func (r *recordedSounds) count(cues []string) int {
	n := 0
	for _, p := range r.played {
		for _, c := range cues {
			if p == c {
				n++
			}
		}
	}
	return n
}

func newTestBridge() (*Bridge, *forcedWorld, *recordedSounds) {
	fw := &forcedWorld{
		World:  physics.NewWorld(physics.DefaultSettings()),
		forces: map[physics.JointID]float64{},
		pos:    map[physics.BodyID]geom.Point{},
	}
	snd := &recordedSounds{}
	b := New(fw, Options{
		Layout: Layout{ScaleX: 1, ScaleY: 1},
		Sounds: snd,
		Rand:   rand.New(rand.NewSource(7)),
	})
	return b, fw, snd
}

var girder = physics.BodyOptions{Dynamic: true, Density: 1, Restitution: 0.16, Friction: 0.5}

func TestCostNeverNegative(t *testing.T) {
	b, _, _ := newTestBridge()
	b.ObjectDeleted()
	b.JointDeleted(physics.JointID{})
	if b.Cost != 0 {
		t.Fatalf("cost = %d, want 0", b.Cost)
	}
	b.BoxAdded()
	b.CircleAdded()
	if b.Cost != 20 {
		t.Fatalf("cost = %d, want 20", b.Cost)
	}
	b.JointDeleted(physics.JointID{})
	if b.Cost != 0 {
		t.Fatalf("cost after joint delete = %d, want 0", b.Cost)
	}
	b.AddCost(-5)
	if b.Cost != 0 {
		t.Fatalf("AddCost went negative: %d", b.Cost)
	}
}

func TestCapacityNeverBelowOne(t *testing.T) {
	b, _, _ := newTestBridge()
	seq := []bool{true, false, false, false, true, true, false, false, false, false}
	for i, add := range seq {
		if add {
			b.JointAdded(physics.JointID{})
		} else {
			b.JointDeleted(physics.JointID{})
		}
		if b.Capacity < 1 {
			t.Fatalf("step %d: capacity = %d", i, b.Capacity)
		}
	}
	b.Stress = 250
	if r := b.StressRatio(); r != 25000 {
		t.Fatalf("ratio at capacity 1 = %f, want 25000", r)
	}
}

func TestJointAddedAccounting(t *testing.T) {
	b, _, _ := newTestBridge()
	b.JointAdded(physics.JointID{})
	b.JointAdded(physics.JointID{})
	b.BoxAdded()
	if b.Cost != 210 || b.Capacity != 1001 {
		t.Fatalf("cost/capacity = %d/%d, want 210/1001", b.Cost, b.Capacity)
	}
}

func TestCreateTrainShape(t *testing.T) {
	b, fw, snd := newTestBridge()
	if !b.CreateTrain(false) {
		t.Fatalf("first CreateTrain should spawn")
	}
	tr := b.Train()
	if len(tr.Cars) != 3 || len(tr.Wheels) != 6 {
		t.Fatalf("cars/wheels = %d/%d, want 3/6", len(tr.Cars), len(tr.Wheels))
	}
	if len(tr.Motors) != 6 {
		t.Fatalf("motors = %d, want 6", len(tr.Motors))
	}
	if len(tr.Links) != 2 {
		t.Fatalf("links = %d, want 2", len(tr.Links))
	}
	for _, j := range tr.Links {
		if k, _ := fw.JointKind(j); k != physics.Distance {
			t.Fatalf("link kind = %v", k)
		}
	}
	if tr.Lead != tr.Cars[0] {
		t.Fatalf("lead should be the first car")
	}
	if !b.TrainCreated || b.TrainOffScreen {
		t.Fatalf("unexpected flags %+v", b.State)
	}
	if snd.count(StartupCues) != 1 {
		t.Fatalf("startup cues = %v", snd.played)
	}
	if _, ok := b.Track().Lead(); !ok {
		t.Fatalf("lead car is not tracked")
	}
}

func TestCreateTrainWithoutForceIsNoop(t *testing.T) {
	b, fw, _ := newTestBridge()
	b.CreateTrain(false)
	bodies, joints := fw.Counts()

	if b.CreateTrain(false) {
		t.Fatalf("second CreateTrain(false) should not spawn")
	}
	b2, j2 := fw.Counts()
	if b2 != bodies || j2 != joints {
		t.Fatalf("counts changed %d/%d -> %d/%d", bodies, joints, b2, j2)
	}
}

func TestForcedTrainReplacesPrevious(t *testing.T) {
	b, fw, _ := newTestBridge()
	b.CreateTrain(false)
	old := b.Train().Lead
	bodies, joints := fw.Counts()
	b.TrainExited = true

	if !b.CreateTrain(true) {
		t.Fatalf("forced CreateTrain should spawn")
	}
	if fw.Alive(old) {
		t.Fatalf("previous train still present")
	}
	b2, j2 := fw.Counts()
	if b2 != bodies || j2 != joints {
		t.Fatalf("counts %d/%d, want %d/%d", b2, j2, bodies, joints)
	}
	if b.TrainExited {
		t.Fatalf("TrainExited should reset on a new train")
	}
}

func TestOverloadedJointBreaksSameTick(t *testing.T) {
	b, fw, _ := newTestBridge()
	g := fw.AddBox(geom.Pt(300, 500), 100, 15, 0, girder)
	strong, _ := fw.AddRevoluteJoint(physics.Ground, g, geom.Pt(210, 500))
	b.JointAdded(strong)
	weak, _ := fw.AddRevoluteJoint(physics.Ground, g, geom.Pt(390, 500))
	b.JointAdded(weak)
	before := b.Capacity

	fw.forces[strong] = 100
	fw.forces[weak] = 600
	rec := render.NewRecorder(1200, 900)
	b.PerFrame(rec)

	if fw.JointAlive(weak) {
		t.Fatalf("overloaded joint survived")
	}
	if !fw.JointAlive(strong) {
		t.Fatalf("healthy joint was destroyed")
	}
	if b.Capacity != before-JointCapacity {
		t.Fatalf("capacity = %d, want %d", b.Capacity, before-JointCapacity)
	}
	if b.Stress != 100 {
		t.Fatalf("stress = %f, want 100", b.Stress)
	}

	rec.Present()
	f := rec.Last()
	if f.Count(render.OpCircle) != 1 {
		t.Fatalf("indicators = %d, want 1", f.Count(render.OpCircle))
	}
	if c := f.Ops[0].Color; c != render.RGB(50, 205, 0) {
		t.Fatalf("indicator colour = %+v", c)
	}
}

func TestStressColorClamps(t *testing.T) {
	if c := StressColor(0); c != render.RGB(0, 255, 0) {
		t.Fatalf("zero force colour = %+v", c)
	}
	if c := StressColor(900); c != render.RGB(255, 0, 0) {
		t.Fatalf("huge force colour = %+v", c)
	}
}

func TestTrainExitFlagsSetOnce(t *testing.T) {
	b, fw, snd := newTestBridge()
	b.CreateTrain(false)
	fw.pos[b.Train().Lead] = geom.Pt(-1, 5)

	for i := 0; i < 5; i++ {
		b.PerFrame(nil)
	}
	if !b.TrainExited || !b.LevelCompleted {
		t.Fatalf("flags = %+v", b.State)
	}
	if n := snd.count(SuccessCues); n != 1 {
		t.Fatalf("success cues = %d, want 1", n)
	}
	if b.Phase() != PhaseExited {
		t.Fatalf("phase = %v", b.Phase())
	}
	if got := b.StatusLines()[2]; got != "Press T to send another train." {
		t.Fatalf("status = %q", got)
	}
}

func TestTrainFallFlagsSetOnce(t *testing.T) {
	b, fw, snd := newTestBridge()
	b.CreateTrain(false)
	fw.pos[b.Train().Lead] = geom.Pt(10, -2)

	b.PerFrame(nil)
	b.PerFrame(nil)
	if !b.TrainOffScreen || b.TrainExited {
		t.Fatalf("flags = %+v", b.State)
	}
	if n := snd.count(FailureCues); n != 1 {
		t.Fatalf("failure cues = %d, want 1", n)
	}
	if got := b.StatusLines()[2]; got != "Train fell off the screen, press R to try again!" {
		t.Fatalf("status = %q", got)
	}

	b.Restart()
	if b.TrainOffScreen || b.TrainCreated || b.LevelCompleted || fw.Running() {
		t.Fatalf("restart left state behind: %+v running=%v", b.State, fw.Running())
	}
	if b.Phase() != PhaseIdle {
		t.Fatalf("phase after restart = %v", b.Phase())
	}
}

func TestFallenTrainNeverExits(t *testing.T) {
	b, fw, snd := newTestBridge()
	b.CreateTrain(false)
	fw.pos[b.Train().Lead] = geom.Pt(10, -2)
	b.PerFrame(nil)

	fw.pos[b.Train().Lead] = geom.Pt(-1, -50)
	b.PerFrame(nil)
	if b.TrainExited || b.LevelCompleted {
		t.Fatalf("fallen train counted as exited: %+v", b.State)
	}
	if n := snd.count(SuccessCues); n != 0 {
		t.Fatalf("success cues = %d, want 0", n)
	}
	if b.Phase() != PhaseFallen {
		t.Fatalf("phase = %v", b.Phase())
	}
}

func TestPerFrameSamplesLeadTrail(t *testing.T) {
	b, _, _ := newTestBridge()
	b.CreateTrain(false)
	b.PerFrame(nil)
	b.PerFrame(nil)
	lead, _ := b.Track().Lead()
	if n := len(b.Track().FullPosList[lead.TrackIndex]); n != 2 {
		t.Fatalf("trail samples = %d, want 2", n)
	}
}

func TestCreateWorldBanks(t *testing.T) {
	b, fw, _ := newTestBridge()
	b.CreateWorld()
	left := fw.QueryBodiesAt(geom.Pt(100, 700), true)
	right := fw.QueryBodiesAt(geom.Pt(1200, 700), true)
	if len(left) != 1 || len(right) != 1 {
		t.Fatalf("banks not found: left=%v right=%v", left, right)
	}
	if k, _ := fw.BodyKind(left[0]); k != physics.Static {
		t.Fatalf("bank should be static")
	}
	if gap := fw.QueryBodiesAt(geom.Pt(600, 700), true); len(gap) != 0 {
		t.Fatalf("canyon should be empty, got %v", gap)
	}
}

func TestRestoreTrainFromTrack(t *testing.T) {
	b, fw, _ := newTestBridge()
	b.CreateTrain(false)
	lead := b.Train().Lead

	c := New(fw, Options{Layout: Layout{ScaleX: 1, ScaleY: 1}})
	c.Track().Load(b.Track().Snapshot(), b.Track().FullPosList, b.Track().TrackedBodies)
	c.RestoreTrain()
	if c.Train().Lead != lead || !c.TrainCreated {
		t.Fatalf("lead = %v, want %v", c.Train().Lead, lead)
	}
	if len(c.Train().Cars) != 3 || len(c.Train().Wheels) != 6 {
		t.Fatalf("restored train %+v", c.Train())
	}
}
