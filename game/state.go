package game

// Internal truth: score and train progress

type State struct {
	Cost           int
	Capacity       int
	Stress         float64
	TrainCreated   bool
	TrainOffScreen bool
	TrainExited    bool
	LevelCompleted bool
}

type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseFallen
	PhaseExited
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseFallen:
		return "fallen"
	case PhaseExited:
		return "exited"
	}
	return "idle"
}

// Layout maps the 1920x1080 reference layout onto the actual display.
type Layout struct {
	ScaleX, ScaleY float64
}

func NewLayout(width, height int) Layout {
	return Layout{
		ScaleX: float64(width) * 1.5 / 1920,
		ScaleY: float64(height) * 1.2 / 1080,
	}
}

func (l Layout) X(v float64) float64 { return v * l.ScaleX }
func (l Layout) Y(v float64) float64 { return v * l.ScaleY }
