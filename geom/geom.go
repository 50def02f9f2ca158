package geom

import "math"

// Point is a 2D coordinate. Tools work in screen pixels (y grows downward),
// the physics world works in meters (y grows upward).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Angle returns the angle of the segment a->b in radians, measured
// counter-clockwise on screen (so the y axis is flipped).
func Angle(a, b Point) float64 {
	return math.Atan2(-(b.Y - a.Y), b.X-a.X)
}

// Polar returns the screen point at dist from origin along theta (as returned by Angle).
func Polar(origin Point, theta, dist float64) Point {
	return Point{
		X: origin.X + dist*math.Cos(theta),
		Y: origin.Y - dist*math.Sin(theta),
	}
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampLength moves end along the anchor->end direction so that its distance
// from anchor lies in [min, max]. A zero-length segment is returned unchanged
// since it has no direction to preserve.
func ClampLength(anchor, end Point, min, max float64) Point {
	d := Distance(anchor, end)
	if d == 0 {
		return end
	}
	c := Clamp(d, min, max)
	if c == d {
		return end
	}
	return Polar(anchor, Angle(anchor, end), c)
}

func ClampRadius(r, min, max float64) float64 {
	return Clamp(r, min, max)
}

// Midpoint of a and b.
func Midpoint(a, b Point) Point {
	return Point{(a.X + b.X) / 2, (a.Y + b.Y) / 2}
}

// RectCorners returns the four corners of a rectangle of the given length and
// thickness laid along a->b, starting at a. Used for girder previews.
func RectCorners(a Point, theta, length, thickness float64) [4]Point {
	b := Polar(a, theta, length)
	// perpendicular offset
	off := Polar(Point{}, theta+math.Pi/2, thickness/2)
	return [4]Point{
		a.Add(off),
		b.Add(off),
		b.Sub(off),
		a.Sub(off),
	}
}
