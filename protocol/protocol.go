package protocol

import (
	"encoding/json"
)

const (
	MsgHello   = "hello"
	MsgInput   = "input"
	MsgWelcome = "welcome"
	MsgFrame   = "frame"
)

const (
	SimTickHz     = 30
	ClientInputHz = 30
	BroadcastHz   = 15
)

// Envelope wraps every message on the wire: {"t": type, "p": payload}.
type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"`
}
