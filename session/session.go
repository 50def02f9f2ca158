package session

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/sugarlabs/Bridge/game"
	"github.com/sugarlabs/Bridge/geom"
	"github.com/sugarlabs/Bridge/input"
	"github.com/sugarlabs/Bridge/physics"
	"github.com/sugarlabs/Bridge/protocol"
	"github.com/sugarlabs/Bridge/render"
	"github.com/sugarlabs/Bridge/tools"
)

// Options configure a new session. Zero values fall back to defaults.
type Options struct {
	Physics        physics.Settings
	Balance        game.Balance
	Train          game.TrainSpec
	Tools          tools.Settings
	BroadcastEvery int
	Sounds         game.Sounds
	Rand           *rand.Rand

	// File is loaded by LoadFile callers and written when Run exits.
	File string
}

// Session is one bridge-building game: a physics world, the structural
// model, the toolbox and the clients watching it. Everything except Inbox
// belongs to the goroutine running Run.
type Session struct {
	Inbox chan any

	Code    string            // session code (e.g. "ABC123")
	OnEmpty func(code string) // called when the last client leaves

	tickHz         int
	broadcastEvery int
	file           string

	world   *physics.World
	bridge  *game.Bridge
	toolbox *tools.Toolbox
	tc      tools.Context
	canvas  *render.Recorder

	clients    map[string]Conn
	names      map[string]string
	numClients atomic.Int32 // mirrors len(clients) for other goroutines
	tick       int

	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	log      *log.Logger
}

func New(opts Options) *Session {
	if opts.Physics.TickHz <= 0 {
		opts.Physics = physics.DefaultSettings()
	}
	if opts.Tools == (tools.Settings{}) {
		opts.Tools = tools.DefaultSettings()
	}
	if opts.BroadcastEvery <= 0 {
		opts.BroadcastEvery = protocol.SimTickHz / protocol.BroadcastHz
	}
	if opts.BroadcastEvery <= 0 {
		opts.BroadcastEvery = 1
	}

	w := physics.NewWorld(opts.Physics)
	br := game.New(w, game.Options{
		Balance: opts.Balance,
		Train:   opts.Train,
		Layout:  game.NewLayout(opts.Physics.Width, opts.Physics.Height),
		Sounds:  opts.Sounds,
		Rand:    opts.Rand,
	})
	br.CreateWorld()

	s := &Session{
		Inbox:          make(chan any, 256),
		tickHz:         opts.Physics.TickHz,
		broadcastEvery: opts.BroadcastEvery,
		file:           opts.File,
		world:          w,
		bridge:         br,
		toolbox:        tools.DefaultRegistry(),
		canvas:         render.NewRecorder(opts.Physics.Width, opts.Physics.Height),
		clients:        make(map[string]Conn),
		names:          make(map[string]string),
		quit:           make(chan struct{}),
		done:           make(chan struct{}),
		log:            log.Default().WithPrefix("session"),
	}
	s.tc = tools.Context{World: w, Bridge: br, Control: s, Settings: opts.Tools}
	return s
}

func (s *Session) World() *physics.World    { return s.world }
func (s *Session) Bridge() *game.Bridge     { return s.bridge }
func (s *Session) Toolbox() *tools.Toolbox  { return s.toolbox }
func (s *Session) Canvas() *render.Recorder { return s.canvas }
func (s *Session) Ticks() int               { return s.tick }
func (s *Session) TickHz() int              { return s.tickHz }
func (s *Session) Done() <-chan struct{}    { return s.done }

// NumClients returns the current number of connected clients.
func (s *Session) NumClients() int {
	return int(s.numClients.Load())
}

// Stop asks the loop to exit after the current tick. Safe to call more than once.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.quit) })
}

// Send queues cmd for the loop. It reports false once the session stopped.
func (s *Session) Send(cmd any) bool {
	select {
	case <-s.quit:
		return false
	default:
	}
	select {
	case s.Inbox <- cmd:
		return true
	case <-s.quit:
		return false
	}
}

// host controls, queued like any other input

func (s *Session) Pause()          { s.Send(setRunning{false}) }
func (s *Session) Resume()         { s.Send(setRunning{true}) }
func (s *Session) TogglePause()    { s.Send(input.Event{Kind: input.HostPause}) }
func (s *Session) CreateNewTrain() { s.Send(input.Event{Kind: input.HostNewTrain}) }
func (s *Session) RestartLevel()   { s.Send(input.Event{Kind: input.HostRestart}) }

// SelectTool queues a switch to the named tool. Unknown names are rejected.
func (s *Session) SelectTool(name string) bool {
	if _, ok := s.toolbox.Get(name); !ok {
		return false
	}
	return s.Send(input.SelectTool(name))
}

// Run ticks at TickHz until Stop, a quit event or ctx is cancelled. The
// session file, if any, is written on the way out.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(time.Second / time.Duration(s.tickHz))
	defer ticker.Stop()
	s.log.Info("session started", "code", s.Code, "tick_hz", s.tickHz)

loop:
	for {
		select {
		case <-ctx.Done():
			s.Stop()
			break loop
		case <-s.quit:
			break loop
		case <-ticker.C:
			s.Tick()
		}
	}

	if s.file != "" {
		if err := s.SaveFile(s.file); err != nil {
			s.log.Error("save failed", "file", s.file, "err", err)
		}
	}
	for id, c := range s.clients {
		_ = c.Close()
		delete(s.clients, id)
	}
	s.numClients.Store(0)
	s.log.Info("session stopped", "code", s.Code, "ticks", s.tick)
}

// Tick runs one frame: drain input, draw, step, account, present, publish.
func (s *Session) Tick() {
	s.drain()

	c := s.canvas
	c.Clear(render.Sky)
	s.world.Draw(c)
	s.bridge.Track().Draw(c)
	if s.world.Running() {
		s.world.Step(1 / float64(s.tickHz))
		s.bridge.PerFrame(c)
	}
	s.toolbox.Tick(&s.tc)
	s.toolbox.Preview(&s.tc, c)
	for i, line := range s.bridge.StatusLines() {
		c.Text(line, geom.Pt(10, 10+24*float64(i)), render.Black)
	}
	c.Present()

	s.tick++
	if s.tick%s.broadcastEvery == 0 {
		s.broadcastFrame()
	}
}

func (s *Session) drain() {
	for {
		select {
		case cmd := <-s.Inbox:
			s.handleCommand(cmd)
		default:
			return
		}
	}
}

func (s *Session) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case input.Event:
		s.toolbox.Dispatch(&s.tc, c)
	case Input:
		if _, ok := s.clients[c.ClientID]; !ok {
			return
		}
		// a client may only end its own connection, not the shared session
		if c.Event.Kind == input.Quit {
			s.handleLeave(c.ClientID)
			return
		}
		s.toolbox.Dispatch(&s.tc, c.Event)
	case setRunning:
		s.world.SetRunning(c.run)
	case Join:
		id := uuid.NewString()
		s.clients[id] = c.Conn
		s.numClients.Store(int32(len(s.clients)))
		name := c.Name
		if name == "" {
			name = fmt.Sprintf("Builder %d", len(s.clients))
		}
		s.names[id] = name
		s.log.Info("client joined", "code", s.Code, "client", id, "name", name)
		c.Reply <- JoinResult{ClientID: id}
		s.sendWelcome(c.Conn, id)
		s.sendFrameTo(c.Conn)
	case Leave:
		s.handleLeave(c.ClientID)
	default:
		s.log.Warn("unknown command", "type", fmt.Sprintf("%T", cmd))
	}
}

func (s *Session) handleLeave(id string) {
	c, ok := s.clients[id]
	if ok {
		_ = c.Close()
		delete(s.clients, id)
		delete(s.names, id)
		s.numClients.Store(int32(len(s.clients)))
		s.log.Info("client left", "code", s.Code, "client", id)
	}
	if len(s.clients) == 0 && s.OnEmpty != nil && s.Code != "" {
		s.OnEmpty(s.Code)
	}
}

func (s *Session) removeClient(id string) {
	if c, ok := s.clients[id]; ok {
		_ = c.Close()
	}
	delete(s.clients, id)
	delete(s.names, id)
	s.numClients.Store(int32(len(s.clients)))
}

// Frame builds the wire frame for the last presented tick.
func (s *Session) Frame() protocol.Frame {
	return protocol.Frame{
		Tick:      s.tick,
		Status:    s.bridge.StatusLines(),
		Cost:      s.bridge.Cost,
		StressPct: s.bridge.StressRatio(),
		Phase:     s.bridge.Phase().String(),
		Running:   s.world.Running(),
		Draw:      s.canvas.Last(),
	}
}

func (s *Session) broadcastFrame() {
	if len(s.clients) == 0 {
		return
	}
	b, err := protocol.Encode(protocol.MsgFrame, s.Frame())
	if err != nil {
		s.log.Error("encode frame", "err", err)
		return
	}

	var failed []string
	for id, c := range s.clients {
		if err := c.Send(b); err != nil {
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		s.log.Debug("dropping client", "client", id)
		s.removeClient(id)
	}
	if len(failed) > 0 && len(s.clients) == 0 && s.OnEmpty != nil && s.Code != "" {
		s.OnEmpty(s.Code)
	}
}

func (s *Session) sendWelcome(c Conn, id string) {
	b, err := protocol.Encode(protocol.MsgWelcome, protocol.Welcome{ClientID: id, Session: s.Code, TickHz: s.tickHz})
	if err != nil {
		return
	}
	_ = c.Send(b)
}

func (s *Session) sendFrameTo(c Conn) {
	b, err := protocol.Encode(protocol.MsgFrame, s.Frame())
	if err != nil {
		return
	}
	_ = c.Send(b)
}
