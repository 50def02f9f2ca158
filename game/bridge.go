package game

import (
	"fmt"
	"math/rand"

	"github.com/charmbracelet/log"

	"github.com/sugarlabs/Bridge/geom"
	"github.com/sugarlabs/Bridge/physics"
	"github.com/sugarlabs/Bridge/render"
)

// World is the part of the physics adapter the bridge drives.
// *physics.World implements it.
type World interface {
	AddBox(center geom.Point, halfWidth, halfHeight, angle float64, opts physics.BodyOptions) physics.BodyID
	AddCircle(center geom.Point, radius float64, opts physics.BodyOptions) physics.BodyID
	AddDistanceJoint(a, b physics.BodyID, anchorA, anchorB geom.Point) (physics.JointID, error)
	AddMotorJoint(a, b physics.BodyID, anchor geom.Point, rate float64) (physics.JointID, error)
	QueryBodiesAt(at geom.Point, includeStatic bool) []physics.BodyID
	DestroyBody(id physics.BodyID) error
	DestroyJoint(id physics.JointID) error
	Joints() []physics.JointID
	JointKind(id physics.JointID) (physics.JointKind, bool)
	JointAnchor(id physics.JointID) (geom.Point, bool)
	ReactionForce(id physics.JointID) (float64, bool)
	Position(id physics.BodyID) (geom.Point, bool)
	ScreenPosition(id physics.BodyID) (geom.Point, bool)
	Alive(id physics.BodyID) bool
	BodyIDs() []physics.BodyID
	Tag(id physics.BodyID) (string, bool)
	SetRunning(run bool)
	Running() bool
}

const (
	TagCar   = "train-car"
	TagWheel = "train-wheel"
	TagBank  = "bank"
)

var (
	BankColor  = render.RGB(100, 150, 50)
	CarColor   = render.RGB(200, 50, 100)
	WheelColor = render.RGB(0, 0, 0)
	TrailColor = render.RGB(255, 200, 0)
)

// Train is the set of bodies and joints making up the current train.
type Train struct {
	Lead   physics.BodyID
	Cars   []physics.BodyID
	Wheels []physics.BodyID
	Motors []physics.JointID
	Links  []physics.JointID
}

func (t Train) Bodies() []physics.BodyID {
	return append(append([]physics.BodyID(nil), t.Cars...), t.Wheels...)
}

// Bridge owns score accounting and the train life cycle.
type Bridge struct {
	State

	world   World
	balance Balance
	spec    TrainSpec
	layout  Layout
	sounds  Sounds
	rng     *rand.Rand
	train   Train
	track   *TrackInfo
	log     *log.Logger
}

type Options struct {
	Balance Balance
	Train   TrainSpec
	Layout  Layout
	Sounds  Sounds
	Rand    *rand.Rand
}

func New(w World, opts Options) *Bridge {
	if opts.Sounds == nil {
		opts.Sounds = NopSounds{}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(1))
	}
	if opts.Balance == (Balance{}) {
		opts.Balance = DefaultBalance()
	}
	if opts.Train.Cars == 0 {
		opts.Train = DefaultTrain()
	}
	if opts.Layout == (Layout{}) {
		opts.Layout = Layout{ScaleX: 1, ScaleY: 1}
	}
	return &Bridge{
		State:   State{Capacity: MinCapacity},
		world:   w,
		balance: opts.Balance,
		spec:    opts.Train,
		layout:  opts.Layout,
		sounds:  opts.Sounds,
		rng:     opts.Rand,
		track:   NewTrackInfo(),
		log:     log.Default().WithPrefix("bridge"),
	}
}

func (b *Bridge) World() World        { return b.world }
func (b *Bridge) Track() *TrackInfo   { return b.track }
func (b *Bridge) Train() Train        { return b.train }
func (b *Bridge) Layout() Layout      { return b.layout }
func (b *Bridge) Balance() Balance    { return b.balance }
func (b *Bridge) Snapshot() State     { return b.State }
func (b *Bridge) HasTrain() bool      { return b.world.Alive(b.train.Lead) }
func (b *Bridge) Running() bool       { return b.world.Running() }
func (b *Bridge) SetRunning(run bool) { b.world.SetRunning(run) }

// Phase derives the coarse game state from the flags.
func (b *Bridge) Phase() Phase {
	switch {
	case b.TrainOffScreen:
		return PhaseFallen
	case b.TrainExited || b.LevelCompleted:
		return PhaseExited
	case b.world.Running():
		return PhaseRunning
	}
	return PhaseIdle
}

// CreateWorld adds the two static canyon banks.
func (b *Bridge) CreateWorld() {
	l := b.layout
	banks := [][4]float64{
		{-400, 825, 750, -250},
		{1750, 825, -850, -250},
	}
	for _, r := range banks {
		x0, y0 := l.X(r[0]), l.Y(r[1])
		x1, y1 := l.X(r[0]+r[2]), l.Y(r[1]+r[3])
		center := geom.Midpoint(geom.Pt(x0, y0), geom.Pt(x1, y1))
		hw, hh := abs(x1-x0)/2, abs(y1-y0)/2
		b.world.AddBox(center, hw, hh, 0, physics.BodyOptions{Color: BankColor, Tag: TagBank, Friction: 0.5})
	}
}

// Restart returns to the idle state and pauses the simulation.
func (b *Bridge) Restart() {
	b.world.SetRunning(false)
	b.TrainOffScreen = false
	b.TrainExited = false
	b.LevelCompleted = false
	b.TrainCreated = false
	b.log.Info("restart")
}

func (b *Bridge) AddCost(delta int) {
	b.Cost += delta
	if b.Cost < 0 {
		b.Cost = 0
	}
}

func (b *Bridge) addCapacity(delta int) {
	b.Capacity += delta
	if b.Capacity < MinCapacity {
		b.Capacity = MinCapacity
	}
}

func (b *Bridge) JointAdded(physics.JointID) {
	b.AddCost(b.balance.JointCost)
	b.addCapacity(b.balance.JointCapacity)
}

func (b *Bridge) JointDeleted(physics.JointID) {
	b.AddCost(-b.balance.JointCost)
	b.addCapacity(-b.balance.JointCapacity)
}

func (b *Bridge) BoxAdded()      { b.AddCost(b.balance.ObjectCost) }
func (b *Bridge) CircleAdded()   { b.AddCost(b.balance.ObjectCost) }
func (b *Bridge) ObjectDeleted() { b.AddCost(-b.balance.ObjectCost) }

// StressRatio is the stress as a percentage of capacity.
func (b *Bridge) StressRatio() float64 {
	c := b.Capacity
	if c < MinCapacity {
		c = MinCapacity
	}
	return b.Stress * 100 / float64(c)
}

// StressColor maps a joint force onto green (none) .. red (about to break).
func StressColor(force float64) render.Color {
	red := geom.Clamp(force/2, 0, 255)
	return render.RGB(uint8(red), uint8(255-red), 0)
}

// PerFrame runs after every physics step while the simulation is running.
func (b *Bridge) PerFrame(c render.Canvas) {
	b.Stress = 0
	for _, j := range b.world.Joints() {
		kind, ok := b.world.JointKind(j)
		// train couplings are not part of the structure
		if !ok || kind == physics.Motor || kind == physics.Distance {
			continue
		}
		force, ok := b.world.ReactionForce(j)
		if !ok {
			continue
		}
		if force > b.balance.StressThreshold {
			anchor, _ := b.world.JointAnchor(j)
			if err := b.world.DestroyJoint(j); err != nil {
				continue
			}
			b.addCapacity(-b.balance.JointCapacity)
			b.log.Info("joint broke", "joint", j, "force", fmt.Sprintf("%.0f", force), "at", anchor)
			continue
		}
		b.Stress += force
		if c != nil {
			if anchor, ok := b.world.JointAnchor(j); ok {
				c.Circle(anchor, StressIndicatorPx, StressColor(force), 0)
			}
		}
	}

	b.track.Sample(b.world)
	b.checkLead()
}

func (b *Bridge) checkLead() {
	// a fallen train keeps drifting sideways; it cannot exit any more
	if b.TrainOffScreen {
		return
	}
	pos, ok := b.world.Position(b.train.Lead)
	if !ok {
		return
	}
	if pos.X < 0 {
		b.TrainExited = true
		if !b.LevelCompleted {
			b.LevelCompleted = true
			b.sounds.Play(pick(b.rng, SuccessCues))
			b.log.Info("level completed", "cost", b.Cost)
		}
	} else if pos.Y < 0 {
		if !b.TrainOffScreen {
			b.sounds.Play(pick(b.rng, FailureCues))
			b.TrainOffScreen = true
			b.log.Info("train fell off", "x", fmt.Sprintf("%.2f", pos.X))
		}
	}
}

// CreateTrain spawns a new train. Without force it does nothing when a train
// was already created. Returns whether a train was spawned.
func (b *Bridge) CreateTrain(force bool) bool {
	if !force && b.TrainCreated {
		return false
	}
	b.removeTrain()
	b.sounds.Play(pick(b.rng, StartupCues))
	b.TrainCreated = true
	b.TrainOffScreen = false
	b.TrainExited = false
	b.train = b.spawnTrain()
	if b.world.Alive(b.train.Lead) {
		b.track.Track(b.train.Lead, TrailColor, RoleLead)
	}
	b.log.Info("train created", "cars", len(b.train.Cars), "motors", len(b.train.Motors), "links", len(b.train.Links))
	return true
}

func (b *Bridge) spawnTrain() Train {
	l, s := b.layout, b.spec
	w, h := float64(int(l.X(s.CarWidth))), float64(int(l.Y(s.CarHeight)))
	wr := float64(int(l.X(s.WheelRadius)))
	origin := geom.Pt(float64(int(l.X(s.SpawnX))), float64(int(l.Y(s.SpawnY))))
	mat := physics.BodyOptions{
		Dynamic:     true,
		Density:     s.Density,
		Restitution: s.Restitution,
		Friction:    s.Friction,
	}

	var t Train
	var corners []geom.Point
	for i := 0; i < s.Cars; i++ {
		start := geom.Pt(origin.X-(w+s.Gap)*float64(i), origin.Y)
		corners = append(corners, start)

		car := mat
		car.Color, car.Tag = CarColor, TagCar
		id := b.world.AddBox(geom.Pt(start.X+w/2, start.Y+h/2), w/2, h/2, 0, car)
		if i == 0 {
			t.Lead = id
		}
		t.Cars = append(t.Cars, id)

		wheel := mat
		wheel.Color, wheel.Tag = WheelColor, TagWheel
		rear := geom.Pt(start.X+wr, start.Y+h-float64(int(wr)/2))
		front := geom.Pt(start.X+w-wr, start.Y+h-float64(int(wr)/2))
		t.Wheels = append(t.Wheels, b.world.AddCircle(rear, wr, wheel), b.world.AddCircle(front, wr, wheel))

		for _, axle := range []geom.Point{rear, front} {
			bodies := b.world.QueryBodiesAt(axle, false)
			if len(bodies) != 2 {
				continue
			}
			chassis, tyre := bodies[1], bodies[0]
			if chassis != id {
				chassis, tyre = tyre, chassis
			}
			j, err := b.world.AddMotorJoint(chassis, tyre, axle, s.MotorRate)
			if err != nil {
				continue
			}
			t.Motors = append(t.Motors, j)
		}
	}

	for i := 1; i < len(corners); i++ {
		back := geom.Pt(corners[i].X+w-1, corners[i].Y+h-1)
		front := geom.Pt(corners[i-1].X+1, corners[i-1].Y+h-1)
		bt := b.world.QueryBodiesAt(back, false)
		ft := b.world.QueryBodiesAt(front, false)
		if len(bt) == 0 || len(ft) == 0 {
			continue
		}
		j, err := b.world.AddDistanceJoint(bt[0], ft[0], back, front)
		if err != nil {
			continue
		}
		t.Links = append(t.Links, j)
	}
	return t
}

func (b *Bridge) removeTrain() {
	for _, id := range b.train.Bodies() {
		if b.world.Alive(id) {
			_ = b.world.DestroyBody(id)
		}
	}
	b.track.Retire(b.train.Lead)
	b.train = Train{}
}

// RestoreTrain rebuilds the train bookkeeping from tagged bodies after a load.
// The lead car comes from the track info.
func (b *Bridge) RestoreTrain() {
	b.train = Train{}
	for _, id := range b.world.BodyIDs() {
		tag, _ := b.world.Tag(id)
		switch tag {
		case TagCar:
			b.train.Cars = append(b.train.Cars, id)
		case TagWheel:
			b.train.Wheels = append(b.train.Wheels, id)
		}
	}
	if lead, ok := b.track.Lead(); ok && b.world.Alive(lead.HostBody) {
		b.train.Lead = lead.HostBody
		b.TrainCreated = true
	}
}

// StatusLines returns the HUD text for the current state.
func (b *Bridge) StatusLines() []string {
	lines := []string{
		fmt.Sprintf("Total Cost: %d", b.Cost),
		fmt.Sprintf("Stress: %d%%", int(b.StressRatio())),
	}
	switch {
	case b.TrainOffScreen:
		lines = append(lines, "Train fell off the screen, press R to try again!")
	case b.LevelCompleted && b.TrainExited:
		lines = append(lines, "Press T to send another train.")
	case b.LevelCompleted:
		lines = append(lines, "Level completed, well done!!")
	default:
		lines = append(lines, "Press the Spacebar to start/pause.")
	}
	return lines
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
