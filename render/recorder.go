package render

import (
	"sync"

	"github.com/sugarlabs/Bridge/geom"
)

const (
	OpLine    = "line"
	OpLines   = "lines"
	OpCircle  = "circle"
	OpPolygon = "poly"
	OpText    = "text"
)

// Op is a single recorded draw call.
type Op struct {
	Kind   string       `json:"k"`
	Points []geom.Point `json:"pts,omitempty"`
	Radius float64      `json:"r,omitempty"`
	Color  Color        `json:"c"`
	Width  int          `json:"w,omitempty"`
	Closed bool         `json:"closed,omitempty"`
	Text   string       `json:"text,omitempty"`
}

type Frame struct {
	Seq        int   `json:"seq"`
	Background Color `json:"bg"`
	Ops        []Op  `json:"ops"`
}

// Recorder is a headless Canvas. Draw calls accumulate until Present, which
// publishes them as the latest frame.
type Recorder struct {
	width, height int

	cur Frame

	mu        sync.Mutex
	last      Frame
	presented int
}

func NewRecorder(width, height int) *Recorder {
	return &Recorder{width: width, height: height}
}

func (r *Recorder) Clear(c Color) {
	r.cur = Frame{Background: c}
}

func (r *Recorder) Line(a, b geom.Point, c Color, width int) {
	r.cur.Ops = append(r.cur.Ops, Op{Kind: OpLine, Points: []geom.Point{a, b}, Color: c, Width: width})
}

func (r *Recorder) Lines(pts []geom.Point, closed bool, c Color, width int) {
	if len(pts) < 2 {
		return
	}
	cp := append([]geom.Point(nil), pts...)
	r.cur.Ops = append(r.cur.Ops, Op{Kind: OpLines, Points: cp, Closed: closed, Color: c, Width: width})
}

func (r *Recorder) Circle(center geom.Point, radius float64, c Color, width int) {
	r.cur.Ops = append(r.cur.Ops, Op{Kind: OpCircle, Points: []geom.Point{center}, Radius: radius, Color: c, Width: width})
}

func (r *Recorder) Polygon(pts []geom.Point, c Color, width int) {
	cp := append([]geom.Point(nil), pts...)
	r.cur.Ops = append(r.cur.Ops, Op{Kind: OpPolygon, Points: cp, Color: c, Width: width})
}

func (r *Recorder) Text(s string, at geom.Point, c Color) {
	r.cur.Ops = append(r.cur.Ops, Op{Kind: OpText, Points: []geom.Point{at}, Text: s, Color: c})
}

func (r *Recorder) Present() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presented++
	r.cur.Seq = r.presented
	r.last = r.cur
	r.cur = Frame{Background: r.cur.Background}
}

func (r *Recorder) Size() (int, int) {
	return r.width, r.height
}

// Last returns the most recently presented frame. Safe to call from any goroutine.
func (r *Recorder) Last() Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *Recorder) Presented() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.presented
}

// Texts returns the text ops of the last frame in draw order.
func (f Frame) Texts() []string {
	var out []string
	for _, op := range f.Ops {
		if op.Kind == OpText {
			out = append(out, op.Text)
		}
	}
	return out
}

// Count returns how many ops of kind k the frame holds.
func (f Frame) Count(k string) int {
	n := 0
	for _, op := range f.Ops {
		if op.Kind == k {
			n++
		}
	}
	return n
}
