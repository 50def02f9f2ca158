package protocol

import "github.com/sugarlabs/Bridge/render"

// server -> client

type Welcome struct {
	ClientID string `json:"clientId"`
	Session  string `json:"session"`
	TickHz   int    `json:"tickHz"`
}

// Frame is one rendered tick plus the HUD numbers.
type Frame struct {
	Tick      int          `json:"tick"`
	Status    []string     `json:"status"`
	Cost      int          `json:"cost"`
	StressPct float64      `json:"stress"`
	Phase     string       `json:"phase"`
	Running   bool         `json:"running"`
	Draw      render.Frame `json:"draw"`
}
