// Package nav finds paths over the grid map's occupancy with A*.
package nav

import (
	"container/heap"
	"math"

	"github.com/tilerealm/engine/internal/geom"
)

// Grid is the read-only view of a map the pathfinder needs.
// *gridmap.GridMap satisfies it.
type Grid interface {
	Size() geom.Size
	ToGridCoords(p geom.Vec2) (int, int)
	CellCenter(x, y int) geom.Vec2
	Blocked(x, y int) bool
}

// Path is a route to Destination. Nodes excludes the start cell and ends
// with the destination cell, all at cell centers.
type Path struct {
	Destination geom.Vec2
	Nodes       []geom.Vec2
}

// Len returns the number of waypoints left.
func (p *Path) Len() int { return len(p.Nodes) }

// Next returns the first remaining waypoint.
func (p *Path) Next() (geom.Vec2, bool) {
	if len(p.Nodes) == 0 {
		return geom.Vec2{}, false
	}
	return p.Nodes[0], true
}

// Pop drops the first remaining waypoint.
func (p *Path) Pop() {
	if len(p.Nodes) > 0 {
		p.Nodes = p.Nodes[1:]
	}
}

type node struct {
	x, y   int
	g, h   float64
	seq    int // insertion order, breaks f ties deterministically
	parent *node
	index  int // heap index
}

type openList []*node

func (ol openList) Len() int { return len(ol) }
func (ol openList) Less(i, j int) bool {
	fi, fj := ol[i].g+ol[i].h, ol[j].g+ol[j].h
	if fi != fj {
		return fi < fj
	}
	return ol[i].seq < ol[j].seq
}
func (ol openList) Swap(i, j int)       { ol[i], ol[j] = ol[j], ol[i]; ol[i].index = i; ol[j].index = j }
func (ol *openList) Push(x interface{}) { n := x.(*node); n.index = len(*ol); *ol = append(*ol, n) }
func (ol *openList) Pop() interface{} {
	old := *ol
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*ol = old[:len(old)-1]
	return n
}

// N, NE, E, SE, S, SW, W, NW
var dirs = [8][2]int{
	{0, -1}, {1, -1}, {1, 0}, {1, 1},
	{0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

// FindPath searches from the cell containing from to the cell containing to.
// Every step costs 1 whether cardinal or diagonal, and the heuristic is the
// straight-line distance in cells. A diagonal step is only taken when both
// cardinal cells beside it are open. It fails when both points resolve to
// the same cell or the goal cannot be reached.
func FindPath(g Grid, from, to geom.Vec2) (Path, bool) {
	size := g.Size()
	sx, sy := g.ToGridCoords(from)
	gx, gy := g.ToGridCoords(to)
	if sx == gx && sy == gy {
		return Path{}, false
	}
	open := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < size.W && y < size.H && !g.Blocked(x, y)
	}
	if !open(gx, gy) {
		return Path{}, false
	}

	key := func(x, y int) int { return y*size.W + x }
	heuristic := func(x, y int) float64 {
		return math.Hypot(float64(x-gx), float64(y-gy))
	}

	closed := make([]bool, size.Cells())
	best := make([]*node, size.Cells())
	seq := 0

	start := &node{x: sx, y: sy, h: heuristic(sx, sy)}
	best[key(sx, sy)] = start
	ol := &openList{start}
	heap.Init(ol)

	for ol.Len() > 0 {
		cur := heap.Pop(ol).(*node)
		k := key(cur.x, cur.y)
		if closed[k] {
			continue
		}
		if cur.x == gx && cur.y == gy {
			return buildPath(g, cur), true
		}
		closed[k] = true

		for _, d := range dirs {
			nx, ny := cur.x+d[0], cur.y+d[1]
			if !open(nx, ny) {
				continue
			}
			if d[0] != 0 && d[1] != 0 && (!open(cur.x+d[0], cur.y) || !open(cur.x, cur.y+d[1])) {
				continue
			}
			nk := key(nx, ny)
			if closed[nk] {
				continue
			}
			ng := cur.g + 1
			if prev := best[nk]; prev != nil && ng >= prev.g {
				continue
			}
			seq++
			n := &node{x: nx, y: ny, g: ng, h: heuristic(nx, ny), seq: seq, parent: cur}
			best[nk] = n
			heap.Push(ol, n)
		}
	}
	return Path{}, false
}

func buildPath(g Grid, end *node) Path {
	var nodes []geom.Vec2
	for n := end; n.parent != nil; n = n.parent {
		nodes = append(nodes, g.CellCenter(n.x, n.y))
	}
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	return Path{Destination: nodes[len(nodes)-1], Nodes: nodes}
}
