package render

import "github.com/sugarlabs/Bridge/geom"

type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

func RGB(r, g, b uint8) Color { return Color{r, g, b} }

var (
	White = Color{255, 255, 255}
	Black = Color{0, 0, 0}
	Red   = Color{255, 0, 0}
	Sky   = Color{230, 240, 255}
	Grey  = Color{120, 120, 120}
)

// Canvas is the drawing surface the game draws onto each tick. Points are
// screen pixels. A width of 0 means filled.
type Canvas interface {
	Clear(c Color)
	Line(a, b geom.Point, c Color, width int)
	Lines(pts []geom.Point, closed bool, c Color, width int)
	Circle(center geom.Point, radius float64, c Color, width int)
	Polygon(pts []geom.Point, c Color, width int)
	Text(s string, at geom.Point, c Color)
	Present()
	Size() (w, h int)
}
