package session

import (
	"context"
	"crypto/rand"
	"math/big"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

// Info is returned by the API for the session list.
type Info struct {
	Code    string `json:"code"`
	Clients int    `json:"clients"`
}

// Manager holds sessions by code. Sessions are created on first join or via
// Create, and stopped and removed when the last client leaves.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ctx  context.Context
	opts Options
	log  *log.Logger

	// Dir, when set, holds one <code>.json save file per session.
	Dir string
}

func NewManager(ctx context.Context, opts Options) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		ctx:      ctx,
		opts:     opts,
		log:      log.Default().WithPrefix("manager"),
	}
}

// GetOrCreate returns the session for the given code, creating it if needed.
func (m *Manager) GetOrCreate(code string) *Session {
	if code == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[code]; ok {
		return s
	}
	return m.start(code)
}

const codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Create generates a unique 6-char code, starts the session, and returns the code.
func (m *Manager) Create() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		code := generateCode(6)
		if _, exists := m.sessions[code]; exists {
			continue
		}
		m.start(code)
		return code
	}
}

// start must be called with mu held.
func (m *Manager) start(code string) *Session {
	opts := m.opts
	if m.Dir != "" {
		opts.File = filepath.Join(m.Dir, code+".json")
	}
	s := New(opts)
	s.Code = code
	s.OnEmpty = m.remove
	// a bad save file is logged by LoadFile and the session starts fresh
	_ = s.LoadFile(opts.File)
	m.sessions[code] = s
	go s.Run(m.ctx)
	m.log.Info("session created", "code", code)
	return s
}

func (m *Manager) remove(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[code]; ok {
		s.Stop()
		delete(m.sessions, code)
		m.log.Info("session removed", "code", code)
	}
}

// List returns all active sessions with code and client count.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Info, 0, len(m.sessions))
	for code, s := range m.sessions {
		out = append(out, Info{Code: code, Clients: s.NumClients()})
	}
	return out
}

// StopAll stops every session and waits for their loops to finish.
func (m *Manager) StopAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for code, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, code)
	}
	m.mu.Unlock()
	for _, s := range all {
		s.Stop()
		<-s.Done()
	}
}

func generateCode(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(codeChars)))
	for i := range b {
		idx, _ := rand.Int(rand.Reader, max)
		b[i] = codeChars[idx.Int64()]
	}
	return string(b)
}
