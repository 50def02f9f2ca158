package input

import "github.com/sugarlabs/Bridge/geom"

type Kind uint8

const (
	Quit Kind = iota + 1
	KeyDown
	PointerDown
	PointerUp
	PointerMove
	ToolSelect
	// host controls, mapped 1:1 onto bridge operations
	HostPause
	HostNewTrain
	HostRestart
)

var kindNames = map[Kind]string{
	Quit:         "quit",
	KeyDown:      "keydown",
	PointerDown:  "pointerdown",
	PointerUp:    "pointerup",
	PointerMove:  "pointermove",
	ToolSelect:   "toolselect",
	HostPause:    "pause",
	HostNewTrain: "newtrain",
	HostRestart:  "restart",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind is the inverse of Kind.String, used when decoding wire events.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

const (
	ButtonPrimary   = 1
	ButtonMiddle    = 2
	ButtonSecondary = 3
)

// Keys the default handler understands.
const (
	KeySpace = "space"
	KeyR     = "r"
	KeyT     = "t"
	KeyB     = "b"
	KeyC     = "c"
	KeyJ     = "j"
	KeyG     = "g"
	KeyD     = "d"
)

// Event is one queued input. Pos is in screen pixels.
type Event struct {
	Kind    Kind
	Key     string     // KeyDown
	Pos     geom.Point // pointer events
	Button  int        // button that changed on PointerDown/PointerUp
	Primary bool       // primary button held after this event
	Action  string     // ToolSelect
}

func Key(k string) Event {
	return Event{Kind: KeyDown, Key: k}
}

func Down(x, y float64) Event {
	return Event{Kind: PointerDown, Pos: geom.Pt(x, y), Button: ButtonPrimary, Primary: true}
}

func Up(x, y float64) Event {
	return Event{Kind: PointerUp, Pos: geom.Pt(x, y), Button: ButtonPrimary}
}

// Move builds a motion event; held reports whether the primary button is down.
func Move(x, y float64, held bool) Event {
	return Event{Kind: PointerMove, Pos: geom.Pt(x, y), Primary: held}
}

func SelectTool(action string) Event {
	return Event{Kind: ToolSelect, Action: action}
}

func (e Event) IsPrimaryDown() bool {
	return e.Kind == PointerDown && e.Button == ButtonPrimary
}

func (e Event) IsPrimaryUp() bool {
	return e.Kind == PointerUp && e.Button == ButtonPrimary
}
