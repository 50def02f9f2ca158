package game

import (
	"github.com/google/uuid"

	"github.com/sugarlabs/Bridge/geom"
	"github.com/sugarlabs/Bridge/physics"
	"github.com/sugarlabs/Bridge/render"
)

const RoleLead = "lead"

// TrackEntry links a body to its recorded trail in FullPosList.
type TrackEntry struct {
	HostBody   physics.BodyID `json:"host"`
	TrackerID  string         `json:"tracker"`
	Color      render.Color   `json:"color"`
	Destroyed  bool           `json:"destroyed"`
	TrackIndex int            `json:"index"`
	Role       string         `json:"role,omitempty"`
}

// TrackInfo is the persisted trail bookkeeping. Keys of Entries are tracker ids.
type TrackInfo struct {
	Entries       map[string]*TrackEntry
	FullPosList   [][]geom.Point
	TrackedBodies int
	MaxSamples    int
}

func NewTrackInfo() *TrackInfo {
	return &TrackInfo{
		Entries:    make(map[string]*TrackEntry),
		MaxSamples: TrackMaxSamples,
	}
}

// Track starts recording body and returns the tracker id.
func (t *TrackInfo) Track(body physics.BodyID, color render.Color, role string) string {
	id := uuid.NewString()
	t.Entries[id] = &TrackEntry{
		HostBody:   body,
		TrackerID:  id,
		Color:      color,
		TrackIndex: t.TrackedBodies,
		Role:       role,
	}
	t.FullPosList = append(t.FullPosList, nil)
	t.TrackedBodies++
	return id
}

// Lead returns the live entry tagged as the lead car, if any.
func (t *TrackInfo) Lead() (*TrackEntry, bool) {
	var best *TrackEntry
	for _, e := range t.Entries {
		if e.Role != RoleLead || e.Destroyed {
			continue
		}
		// newest lead wins
		if best == nil || e.TrackIndex > best.TrackIndex {
			best = e
		}
	}
	return best, best != nil
}

// Retire marks every entry hosted by body as destroyed.
func (t *TrackInfo) Retire(body physics.BodyID) {
	for _, e := range t.Entries {
		if e.HostBody == body {
			e.Destroyed = true
		}
	}
}

type positioner interface {
	ScreenPosition(physics.BodyID) (geom.Point, bool)
}

// Sample appends the current screen position of every live tracked body.
func (t *TrackInfo) Sample(w positioner) {
	for _, e := range t.Entries {
		if e.Destroyed {
			continue
		}
		p, ok := w.ScreenPosition(e.HostBody)
		if !ok {
			e.Destroyed = true
			continue
		}
		if e.TrackIndex < 0 || e.TrackIndex >= len(t.FullPosList) {
			continue
		}
		trail := append(t.FullPosList[e.TrackIndex], p)
		if t.MaxSamples > 0 && len(trail) > t.MaxSamples {
			trail = trail[len(trail)-t.MaxSamples:]
		}
		t.FullPosList[e.TrackIndex] = trail
	}
}

func (t *TrackInfo) Draw(c render.Canvas) {
	for _, e := range t.Entries {
		if e.TrackIndex < 0 || e.TrackIndex >= len(t.FullPosList) {
			continue
		}
		c.Lines(t.FullPosList[e.TrackIndex], false, e.Color, 2)
	}
}

// Entries as a plain map, for persistence.
func (t *TrackInfo) Snapshot() map[string]TrackEntry {
	out := make(map[string]TrackEntry, len(t.Entries))
	for k, e := range t.Entries {
		out[k] = *e
	}
	return out
}

// Load replaces the contents; nil arguments mean empty.
func (t *TrackInfo) Load(entries map[string]TrackEntry, full [][]geom.Point, tracked int) {
	t.Entries = make(map[string]*TrackEntry, len(entries))
	for k, e := range entries {
		e := e
		t.Entries[k] = &e
	}
	t.FullPosList = full
	t.TrackedBodies = tracked
	for len(t.FullPosList) < t.TrackedBodies {
		t.FullPosList = append(t.FullPosList, nil)
	}
}
