// Package geom holds the small amount of 2D math shared by the map, physics,
// navigation and behavior packages. All world-space values are float64.
package geom

import "math"

// Vec2 is a point or direction in world space.
type Vec2 struct {
	X float64
	Y float64
}

// V is shorthand for Vec2{x, y}.
func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Mul(o Vec2) Vec2      { return Vec2{v.X * o.X, v.Y * o.Y} }
func (v Vec2) Div(o Vec2) Vec2      { return Vec2{v.X / o.X, v.Y / o.Y} }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }
func (v Vec2) Dist(o Vec2) float64  { return math.Hypot(v.X-o.X, v.Y-o.Y) }
func (v Vec2) IsZero() bool         { return v.X == 0 && v.Y == 0 }
func (v Vec2) Dot(o Vec2) float64   { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Half() Vec2           { return Vec2{v.X / 2, v.Y / 2} }
func (v Vec2) Eq(o Vec2, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps
}

// Normalize returns the unit vector in v's direction, or the zero vector
// when v has no length.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 || math.IsNaN(l) {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Size is an integer width × height, used for grid dimensions.
type Size struct {
	W int
	H int
}

// Cells returns W*H.
func (s Size) Cells() int { return s.W * s.H }

// Rect is an axis-aligned rectangle in world space. (X, Y) is the top-left corner.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Min() Vec2    { return Vec2{r.X, r.Y} }
func (r Rect) Max() Vec2    { return Vec2{r.X + r.W, r.Y + r.H} }
func (r Rect) Center() Vec2 { return Vec2{r.X + r.W/2, r.Y + r.H/2} }

// Offset moves the rectangle by d.
func (r Rect) Offset(d Vec2) Rect {
	return Rect{X: r.X + d.X, Y: r.Y + d.Y, W: r.W, H: r.H}
}

// Pad grows the rectangle by p on every side.
func (r Rect) Pad(p float64) Rect {
	return Rect{X: r.X - p, Y: r.Y - p, W: r.W + 2*p, H: r.H + 2*p}
}

// Overlaps reports whether the interiors of r and o intersect.
// Rectangles that only share an edge do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W &&
		r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Circle is a circle in world space.
type Circle struct {
	X, Y, R float64
}

func (c Circle) Center() Vec2 { return Vec2{c.X, c.Y} }

func (c Circle) Offset(d Vec2) Circle {
	return Circle{X: c.X + d.X, Y: c.Y + d.Y, R: c.R}
}

// Bounds returns the circle's bounding square.
func (c Circle) Bounds() Rect {
	return Rect{X: c.X - c.R, Y: c.Y - c.R, W: 2 * c.R, H: 2 * c.R}
}

// Overlaps reports whether two circles intersect.
func (c Circle) Overlaps(o Circle) bool {
	return c.Center().Dist(o.Center()) < c.R+o.R
}

// OverlapsRect reports whether the circle intersects the rectangle's interior.
func (c Circle) OverlapsRect(r Rect) bool {
	cx := clamp(c.X, r.X, r.X+r.W)
	cy := clamp(c.Y, r.Y, r.Y+r.H)
	return math.Hypot(c.X-cx, c.Y-cy) < c.R
}

// Contains reports whether p lies inside the circle (edge inclusive).
func (c Circle) Contains(p Vec2) bool {
	return c.Center().Dist(p) <= c.R
}

// CellRect is a rectangular range of grid cells: columns [X, X+W), rows [Y, Y+H).
type CellRect struct {
	X, Y, W, H int
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
