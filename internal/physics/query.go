package physics

import (
	"github.com/tilerealm/engine/internal/geom"
	"github.com/tilerealm/engine/internal/gridmap"
)

// Contact is one occupied tile overlapping a query collider.
type Contact struct {
	Position geom.Vec2 // cell origin in world space
	Kind     gridmap.CollisionKind
}

// QueryMap returns every tile of a visible colliding layer that overlaps c.
// The broad phase scans the collider's bounds padded by one tile width on
// each side.
func QueryMap(m *gridmap.GridMap, c Collider) []Contact {
	cells := m.ToGridRect(c.Bounds().Pad(m.TileSize.X))
	var out []Contact
	for l := range m.CollidingLayers() {
		for ct := range m.TilesInRect(l.ID, cells) {
			if ct.Tile == nil || !c.OverlapsRect(m.CellRect(ct.X, ct.Y)) {
				continue
			}
			out = append(out, Contact{Position: m.ToWorldPosition(ct.X, ct.Y), Kind: l.Collision})
		}
	}
	return out
}

// Blocks reports whether any contact would stop c. With ignoreBarrier only
// solid tiles count.
func Blocks(m *gridmap.GridMap, c Collider, ignoreBarrier bool) bool {
	for _, ct := range QueryMap(m, c) {
		if !ignoreBarrier || ct.Kind == gridmap.CollisionSolid {
			return true
		}
	}
	return false
}
