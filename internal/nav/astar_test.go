package nav

import (
	"testing"

	"github.com/tilerealm/engine/internal/geom"
	"github.com/tilerealm/engine/internal/gridmap"
)

func gridWith(t *testing.T, w, h int, solid ...[2]int) *gridmap.GridMap {
	t.Helper()
	m := gridmap.New(geom.Size{W: w, H: h}, geom.V(16, 16), geom.Vec2{})
	if err := m.AddTileset(&gridmap.Tileset{ID: "ts", FirstTileID: 1, TileCount: 1}); err != nil {
		t.Fatal(err)
	}
	l := &gridmap.Layer{ID: "walls", Kind: gridmap.TileLayer, Collision: gridmap.CollisionSolid, Visible: true, Tiles: make([]*gridmap.Tile, w*h)}
	for _, c := range solid {
		l.Tiles[c[1]*w+c[0]] = &gridmap.Tile{GlobalID: 1, TilesetID: "ts"}
	}
	if err := m.AddLayer(l); err != nil {
		t.Fatal(err)
	}
	return m
}

func cellPoint(m *gridmap.GridMap, x, y int) geom.Vec2 { return m.CellCenter(x, y) }

func TestFindPathDiagonalOnEmptyGrid(t *testing.T) {
	m := gridWith(t, 5, 5)
	p, ok := FindPath(m, cellPoint(m, 0, 0), cellPoint(m, 4, 4))
	if !ok {
		t.Fatalf("expected a path")
	}
	if len(p.Nodes) != 4 {
		t.Fatalf("expected 4 waypoints, got %d: %v", len(p.Nodes), p.Nodes)
	}
	if p.Destination != m.CellCenter(4, 4) {
		t.Fatalf("destination = %v, want %v", p.Destination, m.CellCenter(4, 4))
	}
	for i, n := range p.Nodes {
		if n != m.CellCenter(i+1, i+1) {
			t.Fatalf("waypoint %d = %v, want center of (%d,%d)", i, n, i+1, i+1)
		}
	}
}

func TestFindPathPreventsCornerCut(t *testing.T) {
	// Both cardinals beside the diagonal are solid and the start has no
	// other exits, so the only candidate would be the forbidden diagonal.
	m := gridWith(t, 5, 5, [2]int{1, 0}, [2]int{0, 1})
	if p, ok := FindPath(m, cellPoint(m, 0, 0), cellPoint(m, 1, 1)); ok {
		t.Fatalf("cut through a blocked corner: %v", p.Nodes)
	}

	// With room to walk around, the path exists but is longer than one step.
	m = gridWith(t, 5, 5, [2]int{2, 1}, [2]int{1, 2})
	p, ok := FindPath(m, cellPoint(m, 1, 1), cellPoint(m, 2, 2))
	if !ok {
		t.Fatalf("expected a detour")
	}
	if len(p.Nodes) <= 1 {
		t.Fatalf("expected more than one step, got %v", p.Nodes)
	}
	prev := geom.V(1, 1)
	for _, n := range p.Nodes {
		x, y := m.ToGridCoords(n)
		if m.Blocked(x, y) {
			t.Fatalf("path crosses blocked cell (%d,%d)", x, y)
		}
		dx, dy := x-int(prev.X), y-int(prev.Y)
		if dx != 0 && dy != 0 && (m.Blocked(int(prev.X)+dx, int(prev.Y)) || m.Blocked(int(prev.X), int(prev.Y)+dy)) {
			t.Fatalf("diagonal step from %v to (%d,%d) cuts a corner", prev, x, y)
		}
		prev = geom.V(float64(x), float64(y))
	}
}

func TestFindPathEnclosedStartFails(t *testing.T) {
	var ring [][2]int
	for y := 1; y <= 3; y++ {
		for x := 1; x <= 3; x++ {
			if x != 2 || y != 2 {
				ring = append(ring, [2]int{x, y})
			}
		}
	}
	m := gridWith(t, 6, 6, ring...)
	p, ok := FindPath(m, cellPoint(m, 2, 2), cellPoint(m, 5, 5))
	if ok {
		t.Fatalf("expected failure, got %v", p.Nodes)
	}
	if len(p.Nodes) != 0 {
		t.Fatalf("failure must not carry waypoints")
	}
}

func TestFindPathSameCellFails(t *testing.T) {
	m := gridWith(t, 3, 3)
	if _, ok := FindPath(m, geom.V(1, 1), geom.V(14, 14)); ok {
		t.Fatalf("same cell should fail")
	}
}

func TestFindPathAroundWall(t *testing.T) {
	// vertical wall with a gap at the bottom
	m := gridWith(t, 5, 5, [2]int{2, 0}, [2]int{2, 1}, [2]int{2, 2}, [2]int{2, 3})
	p, ok := FindPath(m, cellPoint(m, 0, 0), cellPoint(m, 4, 0))
	if !ok {
		t.Fatalf("expected path through the gap")
	}
	through := false
	for _, n := range p.Nodes {
		if x, y := m.ToGridCoords(n); x == 2 && y == 4 {
			through = true
		}
	}
	if !through {
		t.Fatalf("path did not use the gap: %v", p.Nodes)
	}
	if p.Nodes[len(p.Nodes)-1] != p.Destination {
		t.Fatalf("last node must be the destination")
	}
}

func TestFindPathBlockedGoalFails(t *testing.T) {
	m := gridWith(t, 4, 4, [2]int{3, 3})
	if _, ok := FindPath(m, cellPoint(m, 0, 0), cellPoint(m, 3, 3)); ok {
		t.Fatalf("blocked goal should fail")
	}
}

func TestFinderAndPathHelpers(t *testing.T) {
	m := gridWith(t, 4, 1)
	f := NewFinder(m)
	p, ok := f.FindPath(cellPoint(m, 0, 0), cellPoint(m, 3, 0))
	if !ok || p.Len() != 3 {
		t.Fatalf("finder path = %v %v", p, ok)
	}
	n, _ := p.Next()
	if n != m.CellCenter(1, 0) {
		t.Fatalf("next = %v", n)
	}
	p.Pop()
	p.Pop()
	p.Pop()
	if _, ok := p.Next(); ok || p.Len() != 0 {
		t.Fatalf("path should be exhausted")
	}
}
