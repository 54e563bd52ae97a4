// Package physics answers overlap questions against the grid map and against
// other agents' colliders.
package physics

import (
	"github.com/tilerealm/engine/internal/geom"
)

type Shape uint8

const (
	ShapeRect Shape = iota
	ShapeCircle
)

// Collider is a rectangle or a circle. Colliders are stored in an agent's
// local space and moved to world space with Offset before any query.
type Collider struct {
	Shape  Shape
	Rect   geom.Rect
	Circle geom.Circle
}

func RectCollider(x, y, w, h float64) Collider {
	return Collider{Shape: ShapeRect, Rect: geom.Rect{X: x, Y: y, W: w, H: h}}
}

func CircleCollider(x, y, r float64) Collider {
	return Collider{Shape: ShapeCircle, Circle: geom.Circle{X: x, Y: y, R: r}}
}

// Offset returns the collider moved by d.
func (c Collider) Offset(d geom.Vec2) Collider {
	switch c.Shape {
	case ShapeCircle:
		c.Circle = c.Circle.Offset(d)
	default:
		c.Rect = c.Rect.Offset(d)
	}
	return c
}

// Position is the rectangle's corner or the circle's center.
func (c Collider) Position() geom.Vec2 {
	if c.Shape == ShapeCircle {
		return c.Circle.Center()
	}
	return c.Rect.Min()
}

// Bounds returns the axis-aligned bounding rectangle.
func (c Collider) Bounds() geom.Rect {
	if c.Shape == ShapeCircle {
		return c.Circle.Bounds()
	}
	return c.Rect
}

func (c Collider) Contains(p geom.Vec2) bool {
	if c.Shape == ShapeCircle {
		return c.Circle.Contains(p)
	}
	return c.Rect.Contains(p)
}

// OverlapsRect reports whether the collider intersects r's interior.
func (c Collider) OverlapsRect(r geom.Rect) bool {
	if c.Shape == ShapeCircle {
		return c.Circle.OverlapsRect(r)
	}
	return c.Rect.Overlaps(r)
}

// Overlaps reports whether two colliders intersect. Shapes that only touch
// along an edge do not overlap.
func Overlaps(a, b Collider) bool {
	switch {
	case a.Shape == ShapeRect && b.Shape == ShapeRect:
		return a.Rect.Overlaps(b.Rect)
	case a.Shape == ShapeCircle && b.Shape == ShapeCircle:
		return a.Circle.Overlaps(b.Circle)
	case a.Shape == ShapeCircle:
		return a.Circle.OverlapsRect(b.Rect)
	default:
		return b.Circle.OverlapsRect(a.Rect)
	}
}
