package session

import "github.com/sugarlabs/Bridge/input"

type Conn interface {
	Send([]byte) error
	Close() error
}

// Join: issued once after hello parsed
type Join struct {
	Conn  Conn
	Name  string
	Reply chan<- JoinResult
}

type JoinResult struct {
	ClientID string
}

// Input: one event from a connected client
type Input struct {
	ClientID string
	Event    input.Event
}

// Leave: issued on disconnect
type Leave struct {
	ClientID string
}

// setRunning pauses or resumes the simulation from outside the loop.
type setRunning struct {
	run bool
}
