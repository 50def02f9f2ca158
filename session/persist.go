package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sugarlabs/Bridge/game"
	"github.com/sugarlabs/Bridge/geom"
)

// keys of the additional_vars section
const (
	varTrackInfo     = "trackinfo"
	varFullPosList   = "full_pos_list"
	varTrackedBodies = "tracked_bodies"
	varCost          = "cost"
	varCapacity      = "capacity"
)

// Serialize captures the world graph plus the score and trail bookkeeping.
// Call it from the goroutine that owns the session.
func (s *Session) Serialize() ([]byte, error) {
	tr := s.bridge.Track()
	data, err := s.world.Serialize(map[string]any{
		varTrackInfo:     tr.Snapshot(),
		varFullPosList:   tr.FullPosList,
		varTrackedBodies: tr.TrackedBodies,
		varCost:          s.bridge.Cost,
		varCapacity:      s.bridge.Capacity,
	})
	if err != nil {
		return nil, fmt.Errorf("serialize session: %w", err)
	}
	return data, nil
}

// Restore replaces the session state with a blob written by Serialize.
// Missing keys default to empty; a key that fails to decode is logged and
// defaulted. The simulation is left paused.
func (s *Session) Restore(data []byte) error {
	vars, err := s.world.Deserialize(data)
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	var (
		entries map[string]game.TrackEntry
		full    [][]geom.Point
		tracked int
		cost    int
	)
	capacity := game.MinCapacity
	s.decodeVar(vars, varTrackInfo, &entries)
	s.decodeVar(vars, varFullPosList, &full)
	s.decodeVar(vars, varTrackedBodies, &tracked)
	s.decodeVar(vars, varCost, &cost)
	s.decodeVar(vars, varCapacity, &capacity)

	s.toolbox.Active().Cancel(&s.tc)
	s.bridge.State = game.State{}
	s.bridge.AddCost(cost)
	s.bridge.Capacity = max(capacity, game.MinCapacity)
	s.bridge.Track().Load(entries, full, tracked)
	s.bridge.RestoreTrain()
	s.log.Info("session restored", "code", s.Code, "cost", s.bridge.Cost, "capacity", s.bridge.Capacity)
	return nil
}

func (s *Session) decodeVar(vars map[string]json.RawMessage, key string, out any) {
	raw, ok := vars[key]
	if !ok {
		return
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.log.Warn("ignoring saved value", "key", key, "err", err)
	}
}

// LoadFile restores from path. An empty path or a missing file leaves the
// fresh world in place and is not an error. An unreadable or invalid file is
// logged and returned, and the session keeps its default state.
func (s *Session) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Debug("no session file", "file", path)
		return nil
	}
	if err != nil {
		s.log.Warn("cannot read session file", "file", path, "err", err)
		return fmt.Errorf("load %s: %w", path, err)
	}
	if err := s.Restore(data); err != nil {
		s.log.Warn("invalid session file, starting fresh", "file", path, "err", err)
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (s *Session) SaveFile(path string) error {
	data, err := s.Serialize()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	s.log.Info("session saved", "file", path, "bytes", len(data))
	return nil
}
