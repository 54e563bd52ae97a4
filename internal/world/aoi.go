package world

import (
	"math"
	"slices"

	"github.com/tilerealm/engine/internal/core/ecs"
	"github.com/tilerealm/engine/internal/geom"
)

// AOIGrid buckets agents into square world-space cells so proximity scans
// only touch the cells a query circle can reach.
// Accessed only from the tick goroutine, no locks.
type AOIGrid struct {
	cellSize float64
	cells    map[cellKey][]ecs.EntityID
}

type cellKey struct{ cx, cy int32 }

// NewAOIGrid creates a grid with the given cell edge length in world units.
func NewAOIGrid(cellSize float64) *AOIGrid {
	if cellSize <= 0 {
		panic("world: AOI cell size must be positive")
	}
	return &AOIGrid{cellSize: cellSize, cells: make(map[cellKey][]ecs.EntityID)}
}

func (g *AOIGrid) key(p geom.Vec2) cellKey {
	return cellKey{cx: int32(math.Floor(p.X / g.cellSize)), cy: int32(math.Floor(p.Y / g.cellSize))}
}

// Add places an agent into the grid.
func (g *AOIGrid) Add(id ecs.EntityID, p geom.Vec2) {
	k := g.key(p)
	g.cells[k] = append(g.cells[k], id)
}

// Remove takes an agent out of the cell covering p.
func (g *AOIGrid) Remove(id ecs.EntityID, p geom.Vec2) {
	k := g.key(p)
	cell := g.cells[k]
	i := slices.Index(cell, id)
	if i < 0 {
		return
	}
	cell = slices.Delete(cell, i, i+1)
	if len(cell) == 0 {
		delete(g.cells, k)
		return
	}
	g.cells[k] = cell
}

// Move updates an agent's cell when its position changes.
func (g *AOIGrid) Move(id ecs.EntityID, from, to geom.Vec2) {
	if g.key(from) == g.key(to) {
		return
	}
	g.Remove(id, from)
	g.Add(id, to)
}

// NearbyInto appends the agents in every cell the circle (p, radius) can
// touch, row by row. Caller does exact distance filtering.
func (g *AOIGrid) NearbyInto(p geom.Vec2, radius float64, buf []ecs.EntityID) []ecs.EntityID {
	buf = buf[:0]
	lo := g.key(geom.Vec2{X: p.X - radius, Y: p.Y - radius})
	hi := g.key(geom.Vec2{X: p.X + radius, Y: p.Y + radius})
	for cy := lo.cy; cy <= hi.cy; cy++ {
		for cx := lo.cx; cx <= hi.cx; cx++ {
			buf = append(buf, g.cells[cellKey{cx, cy}]...)
		}
	}
	return buf
}

// Len returns the number of tracked agents.
func (g *AOIGrid) Len() int {
	n := 0
	for _, c := range g.cells {
		n += len(c)
	}
	return n
}
