// Package gridmap holds the tile/object data of the active level: named layers,
// tilesets, per-layer collision classification and the transforms between world
// space and grid space. A GridMap is built once at level load and is read-only
// while the simulation ticks.
package gridmap

import (
	"fmt"
	"iter"
	"math"

	"github.com/tilerealm/engine/internal/geom"
)

// CollisionKind classifies how occupied tiles of a layer block things.
type CollisionKind uint8

const (
	CollisionNone    CollisionKind = iota
	CollisionBarrier               // blocks pathfinding and movement, not raycasts that ignore barriers
	CollisionSolid                 // blocks everything
)

func (k CollisionKind) String() string {
	switch k {
	case CollisionNone:
		return "none"
	case CollisionBarrier:
		return "barrier"
	case CollisionSolid:
		return "solid"
	}
	return fmt.Sprintf("collision(%d)", uint8(k))
}

// ParseCollisionKind maps the persisted collision string to a kind.
// An empty string means none.
func ParseCollisionKind(s string) (CollisionKind, error) {
	switch s {
	case "", "none":
		return CollisionNone, nil
	case "barrier":
		return CollisionBarrier, nil
	case "solid":
		return CollisionSolid, nil
	}
	return CollisionNone, fmt.Errorf("%w: %q", ErrUnknownCollision, s)
}

type LayerKind uint8

const (
	TileLayer LayerKind = iota
	ObjectLayer
)

func (k LayerKind) String() string {
	if k == ObjectLayer {
		return "object_layer"
	}
	return "tile_layer"
}

// ObjectKind is the sub-kind of an object layer.
type ObjectKind uint8

const (
	ObjectsNone ObjectKind = iota
	ObjectsItems
	ObjectsSpawnPoints
	ObjectsLightSources
)

var objectKindNames = [...]string{"", "items", "spawn_points", "light_sources"}

func (k ObjectKind) String() string {
	if int(k) < len(objectKindNames) {
		return objectKindNames[k]
	}
	return fmt.Sprintf("objects(%d)", uint8(k))
}

func parseObjectKind(s string) (ObjectKind, error) {
	for i, n := range objectKindNames {
		if n == s {
			return ObjectKind(i), nil
		}
	}
	if s == "none" {
		return ObjectsNone, nil
	}
	return ObjectsNone, fmt.Errorf("unknown object kind %q", s)
}

// Tile is a resolved tile reference: the tileset it belongs to and its local
// index inside that tileset.
type Tile struct {
	GlobalID  uint32
	LocalID   uint32
	TilesetID string
}

// Tileset is one atlas slice.
type Tileset struct {
	ID          string
	TextureID   string
	TextureSize geom.Vec2
	TileSize    geom.Vec2
	GridSize    geom.Size
	FirstTileID uint32
	TileCount   uint32
}

// Contains reports whether gid falls in the tileset's global id range.
func (ts *Tileset) Contains(gid uint32) bool {
	return gid >= ts.FirstTileID && gid < ts.FirstTileID+ts.TileCount
}

// TextureCoords returns the atlas rectangle (in texture pixels) of a local tile id.
func (ts *Tileset) TextureCoords(local uint32) geom.Rect {
	cols := ts.GridSize.W
	if cols <= 0 {
		cols = 1
	}
	x := int(local) % cols
	y := int(local) / cols
	return geom.Rect{
		X: float64(x) * ts.TileSize.X,
		Y: float64(y) * ts.TileSize.Y,
		W: ts.TileSize.X,
		H: ts.TileSize.Y,
	}
}

// MapObject is a point or region placed on an object layer.
type MapObject struct {
	Name       string
	Position   geom.Vec2
	Size       *geom.Vec2
	Properties map[string]Property
}

// Layer is either a tile layer (Tiles set) or an object layer (Objects set).
type Layer struct {
	ID         string
	Kind       LayerKind
	ObjectKind ObjectKind
	Collision  CollisionKind
	Visible    bool
	Tiles      []*Tile
	Objects    []MapObject
	Properties map[string]Property
}

// CellTile is one element of a TilesInRect sequence. Tile is nil for empty cells.
type CellTile struct {
	X, Y int
	Tile *Tile
}

// GridMap is the authoritative tile/object data for the active level.
type GridMap struct {
	GridSize        geom.Size
	TileSize        geom.Vec2
	WorldOffset     geom.Vec2
	BackgroundColor Color
	Properties      map[string]Property

	Layers    map[string]*Layer
	DrawOrder []string
	Tilesets  map[string]*Tileset

	// PlayerSpawn is the position of the "player" object in a spawn-points
	// layer, if the level defines one.
	PlayerSpawn *geom.Vec2

	// strongest collision kind per cell across all colliding layers
	occupancy []CollisionKind
	tsOrder   []string
}

// PlayerSpawnName is the object name marking the player's spawn point.
const PlayerSpawnName = "player"

// New returns an empty map of the given dimensions.
func New(size geom.Size, tileSize, offset geom.Vec2) *GridMap {
	if size.W <= 0 || size.H <= 0 {
		panic(fmt.Sprintf("gridmap: invalid grid size %dx%d", size.W, size.H))
	}
	if tileSize.X <= 0 || tileSize.Y <= 0 {
		panic(fmt.Sprintf("gridmap: invalid tile size %vx%v", tileSize.X, tileSize.Y))
	}
	return &GridMap{
		GridSize:    size,
		TileSize:    tileSize,
		WorldOffset: offset,
		Layers:      make(map[string]*Layer),
		Tilesets:    make(map[string]*Tileset),
		Properties:  make(map[string]Property),
		occupancy:   make([]CollisionKind, size.Cells()),
	}
}

// AddTileset registers a tileset. Tilesets must be added before the tile
// layers that reference them.
func (m *GridMap) AddTileset(ts *Tileset) error {
	if _, dup := m.Tilesets[ts.ID]; dup {
		return fmt.Errorf("duplicate tileset %q", ts.ID)
	}
	for _, id := range m.tsOrder {
		o := m.Tilesets[id]
		if ts.FirstTileID < o.FirstTileID+o.TileCount && o.FirstTileID < ts.FirstTileID+ts.TileCount {
			return fmt.Errorf("tileset %q overlaps gid range of %q", ts.ID, o.ID)
		}
	}
	m.Tilesets[ts.ID] = ts
	m.tsOrder = append(m.tsOrder, ts.ID)
	return nil
}

// ResolveTile maps a global tile id onto its tileset. gid 0 is the empty cell
// and returns nil without error.
func (m *GridMap) ResolveTile(gid uint32) (*Tile, error) {
	if gid == 0 {
		return nil, nil
	}
	for _, id := range m.tsOrder {
		ts := m.Tilesets[id]
		if ts.Contains(gid) {
			return &Tile{GlobalID: gid, LocalID: gid - ts.FirstTileID, TilesetID: ts.ID}, nil
		}
	}
	return nil, fmt.Errorf("%w: gid %d", ErrUnresolvedTile, gid)
}

// AddLayer appends a layer to the draw order and folds its tiles into the
// occupancy index.
func (m *GridMap) AddLayer(l *Layer) error {
	if _, dup := m.Layers[l.ID]; dup {
		return fmt.Errorf("duplicate layer %q", l.ID)
	}
	if l.Kind == TileLayer && len(l.Tiles) != m.GridSize.Cells() {
		return fmt.Errorf("%w: layer %q has %d cells, want %d",
			ErrTileCount, l.ID, len(l.Tiles), m.GridSize.Cells())
	}
	m.Layers[l.ID] = l
	m.DrawOrder = append(m.DrawOrder, l.ID)

	if l.Kind == TileLayer && l.Visible && l.Collision != CollisionNone {
		for i, t := range l.Tiles {
			if t != nil && l.Collision > m.occupancy[i] {
				m.occupancy[i] = l.Collision
			}
		}
	}
	if l.Kind == ObjectLayer && l.ObjectKind == ObjectsSpawnPoints && m.PlayerSpawn == nil {
		for _, o := range l.Objects {
			if o.Name == PlayerSpawnName {
				p := o.Position
				m.PlayerSpawn = &p
				break
			}
		}
	}
	return nil
}

// Size returns the grid dimensions in cells.
func (m *GridMap) Size() geom.Size { return m.GridSize }

// InBounds reports whether (x, y) is a cell of this map.
func (m *GridMap) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.GridSize.W && y < m.GridSize.H
}

// ToGridCoords converts a world point to the cell containing it. Points off
// the map resolve to the nearest edge cell.
func (m *GridMap) ToGridCoords(p geom.Vec2) (int, int) {
	x := int(math.Floor((p.X - m.WorldOffset.X) / m.TileSize.X))
	y := int(math.Floor((p.Y - m.WorldOffset.Y) / m.TileSize.Y))
	return clampInt(x, 0, m.GridSize.W-1), clampInt(y, 0, m.GridSize.H-1)
}

// ToWorldPosition returns the world-space origin (top-left corner) of a cell.
func (m *GridMap) ToWorldPosition(x, y int) geom.Vec2 {
	return geom.Vec2{
		X: m.WorldOffset.X + float64(x)*m.TileSize.X,
		Y: m.WorldOffset.Y + float64(y)*m.TileSize.Y,
	}
}

// CellCenter returns the world-space center of a cell.
func (m *GridMap) CellCenter(x, y int) geom.Vec2 {
	return m.ToWorldPosition(x, y).Add(m.TileSize.Half())
}

// CellRect returns the world-space rectangle covered by a cell.
func (m *GridMap) CellRect(x, y int) geom.Rect {
	o := m.ToWorldPosition(x, y)
	return geom.Rect{X: o.X, Y: o.Y, W: m.TileSize.X, H: m.TileSize.Y}
}

// ToGridRect returns the range of cells covered by a world rectangle, clamped
// to the map.
func (m *GridMap) ToGridRect(r geom.Rect) geom.CellRect {
	x0, y0 := m.ToGridCoords(r.Min())
	x1, y1 := m.ToGridCoords(r.Max())
	return geom.CellRect{X: x0, Y: y0, W: x1 - x0 + 1, H: y1 - y0 + 1}
}

// Layer returns the layer with the given id and panics if there is none.
// Layer ids are fixed at load time, so a miss is a programming error.
func (m *GridMap) Layer(id string) *Layer {
	l, ok := m.Layers[id]
	if !ok {
		panic(fmt.Sprintf("gridmap: unknown layer %q", id))
	}
	return l
}

// TileAt returns the tile at (x, y) on a layer, or nil when the cell is empty
// or out of bounds.
func (m *GridMap) TileAt(layerID string, x, y int) *Tile {
	l := m.Layer(layerID)
	if !m.InBounds(x, y) || l.Kind != TileLayer {
		return nil
	}
	return l.Tiles[y*m.GridSize.W+x]
}

// TilesInRect yields every cell of r that lies on the map, row by row. The
// sequence is lazy and may be ranged over more than once.
func (m *GridMap) TilesInRect(layerID string, r geom.CellRect) iter.Seq[CellTile] {
	l := m.Layer(layerID)
	return func(yield func(CellTile) bool) {
		for y := max(r.Y, 0); y < min(r.Y+r.H, m.GridSize.H); y++ {
			for x := max(r.X, 0); x < min(r.X+r.W, m.GridSize.W); x++ {
				var t *Tile
				if l.Kind == TileLayer {
					t = l.Tiles[y*m.GridSize.W+x]
				}
				if !yield(CellTile{X: x, Y: y, Tile: t}) {
					return
				}
			}
		}
	}
}

// CollisionAt returns the strongest collision kind of any visible colliding
// layer with a tile at (x, y). Out-of-bounds cells are solid.
func (m *GridMap) CollisionAt(x, y int) CollisionKind {
	if !m.InBounds(x, y) {
		return CollisionSolid
	}
	return m.occupancy[y*m.GridSize.W+x]
}

// Blocked reports whether any visible colliding layer occupies (x, y).
func (m *GridMap) Blocked(x, y int) bool {
	return m.CollisionAt(x, y) != CollisionNone
}

// CollidingLayers yields the visible tile layers that take part in
// collision, in draw order.
func (m *GridMap) CollidingLayers() iter.Seq[*Layer] {
	return func(yield func(*Layer) bool) {
		for _, id := range m.DrawOrder {
			l := m.Layers[id]
			if l.Kind != TileLayer || !l.Visible || l.Collision == CollisionNone {
				continue
			}
			if !yield(l) {
				return
			}
		}
	}
}

// ObjectsOfKind returns every object of every object layer with the given
// sub-kind, in draw order.
func (m *GridMap) ObjectsOfKind(k ObjectKind) []MapObject {
	var out []MapObject
	for _, id := range m.DrawOrder {
		l := m.Layers[id]
		if l.Kind == ObjectLayer && l.ObjectKind == k {
			out = append(out, l.Objects...)
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
