package nav

import "github.com/tilerealm/engine/internal/geom"

// Finder binds a grid so callers can request paths without holding the map.
type Finder struct {
	grid Grid
}

func NewFinder(g Grid) *Finder {
	return &Finder{grid: g}
}

func (f *Finder) FindPath(from, to geom.Vec2) (*Path, bool) {
	p, ok := FindPath(f.grid, from, to)
	if !ok {
		return nil, false
	}
	return &p, true
}
