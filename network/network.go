package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/sugarlabs/Bridge/protocol"
	"github.com/sugarlabs/Bridge/session"
)

const (
	readLimit    = 1 << 20 // 1MB
	pongWait     = 60 * time.Second
	pingPeriod   = 25 * time.Second
	writeWait    = 10 * time.Second
	helloWait    = 10 * time.Second
	sendBuffered = 64
)

var ErrClosed = errors.New("network: connection closed")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// For dev, allow all origins. Lock this down in prod.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server exposes sessions over websockets.
type Server struct {
	sessions *session.Manager
	log      *log.Logger
}

func NewServer(m *session.Manager) *Server {
	return &Server{sessions: m, log: log.Default().WithPrefix("network")}
}

// Handler routes /ws to the websocket endpoint and /sessions to the session list.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.ServeWS)
	mux.HandleFunc("/sessions", s.listSessions)
	return mux
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.sessions.List()); err != nil {
		s.log.Warn("list sessions", "err", err)
	}
}

// ServeWS upgrades the request, waits for hello, joins the requested session
// (or a new one) and pumps input envelopes into it until the socket closes.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade", "err", err)
		return
	}
	conn := newConn(ws)
	go conn.writePump()
	defer conn.Close()

	ws.SetReadLimit(readLimit)
	_ = ws.SetReadDeadline(time.Now().Add(helloWait))
	hello, err := readHello(ws)
	if err != nil {
		s.log.Debug("bad hello", "remote", r.RemoteAddr, "err", err)
		return
	}

	code := hello.Session
	if code == "" {
		code = s.sessions.Create()
	}
	sess := s.sessions.GetOrCreate(code)

	reply := make(chan session.JoinResult, 1)
	if !sess.Send(session.Join{Conn: conn, Name: hello.Name, Reply: reply}) {
		return
	}
	var id string
	select {
	case res := <-reply:
		id = res.ClientID
	case <-sess.Done():
		return
	}
	defer sess.Send(session.Leave{ClientID: id})

	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("read", "client", id, "err", err)
			}
			return
		}
		env, err := protocol.DecodeEnvelope(msg)
		if err != nil || env.T != protocol.MsgInput {
			continue
		}
		in, err := protocol.DecodePayload[protocol.InputEvent](env)
		if err != nil {
			s.log.Debug("bad input", "client", id, "err", err)
			continue
		}
		ev, err := in.Event()
		if err != nil {
			s.log.Debug("bad input", "client", id, "err", err)
			continue
		}
		if !sess.Send(session.Input{ClientID: id, Event: ev}) {
			return
		}
	}
}

func readHello(ws *websocket.Conn) (protocol.Hello, error) {
	_, msg, err := ws.ReadMessage()
	if err != nil {
		return protocol.Hello{}, err
	}
	env, err := protocol.DecodeEnvelope(msg)
	if err != nil {
		return protocol.Hello{}, err
	}
	if env.T != protocol.MsgHello {
		return protocol.Hello{}, fmt.Errorf("expected %q, got %q", protocol.MsgHello, env.T)
	}
	return protocol.DecodePayload[protocol.Hello](env)
}

// conn is the session.Conn for one websocket. Sends never block the session
// loop: when the client falls behind, frames are dropped.
type conn struct {
	ws     *websocket.Conn
	out    chan []byte
	closed chan struct{}
	once   sync.Once
}

func newConn(ws *websocket.Conn) *conn {
	return &conn{
		ws:     ws,
		out:    make(chan []byte, sendBuffered),
		closed: make(chan struct{}),
	}
}

func (c *conn) Send(b []byte) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	select {
	case c.out <- b:
	default:
		// slow reader
	}
	return nil
}

func (c *conn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// writePump is the only writer on the socket, pings included.
func (c *conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case b := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.closed:
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		}
	}
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Info("listening", "addr", addr, "ws", "/ws")

	select {
	case err := <-errc:
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}
	shut, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shut); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
