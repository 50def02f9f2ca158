package game

import "math/rand"

// Sounds plays a named cue. Implementations must tolerate unknown names and a
// missing audio backend.
type Sounds interface {
	Play(name string)
}

type NopSounds struct{}

func (NopSounds) Play(string) {}

var (
	StartupCues = []string{"startup", "startup1"}
	SuccessCues = []string{"wooo", "wooo1", "wooo2"}
	FailureCues = []string{"death", "death1", "death2"}
)

func pick(rng *rand.Rand, cues []string) string {
	return cues[rng.Intn(len(cues))]
}
