package gridmap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tilerealm/engine/internal/geom"
)

func testMap(t *testing.T, w, h int, solid ...[2]int) *GridMap {
	t.Helper()
	m := New(geom.Size{W: w, H: h}, geom.V(32, 32), geom.V(0, 0))
	if err := m.AddTileset(&Tileset{ID: "ts", TextureID: "tex", TileSize: geom.V(32, 32),
		GridSize: geom.Size{W: 4, H: 4}, FirstTileID: 1, TileCount: 16}); err != nil {
		t.Fatalf("add tileset: %v", err)
	}
	ground := &Layer{ID: "ground", Kind: TileLayer, Visible: true, Tiles: make([]*Tile, w*h)}
	for i := range ground.Tiles {
		ground.Tiles[i] = &Tile{GlobalID: 1, TilesetID: "ts"}
	}
	walls := &Layer{ID: "walls", Kind: TileLayer, Collision: CollisionSolid, Visible: true, Tiles: make([]*Tile, w*h)}
	for _, c := range solid {
		walls.Tiles[c[1]*w+c[0]] = &Tile{GlobalID: 2, LocalID: 1, TilesetID: "ts"}
	}
	if err := m.AddLayer(ground); err != nil {
		t.Fatalf("add ground: %v", err)
	}
	if err := m.AddLayer(walls); err != nil {
		t.Fatalf("add walls: %v", err)
	}
	return m
}

func TestCoordinateRoundTrip(t *testing.T) {
	m := New(geom.Size{W: 7, H: 5}, geom.V(16, 24), geom.V(-40, 100))
	for y := 0; y < 5; y++ {
		for x := 0; x < 7; x++ {
			gx, gy := m.ToGridCoords(m.ToWorldPosition(x, y).Add(m.TileSize.Half()))
			if gx != x || gy != y {
				t.Fatalf("round trip (%d,%d) -> (%d,%d)", x, y, gx, gy)
			}
		}
	}
}

func TestToGridCoordsClamps(t *testing.T) {
	m := New(geom.Size{W: 4, H: 4}, geom.V(10, 10), geom.V(0, 0))
	cases := []struct {
		p      geom.Vec2
		wx, wy int
	}{
		{geom.V(-5, -5), 0, 0},
		{geom.V(1000, 15), 3, 1},
		{geom.V(39.9, 40), 3, 3},
		{geom.V(10, 0), 1, 0},
	}
	for _, c := range cases {
		x, y := m.ToGridCoords(c.p)
		if x != c.wx || y != c.wy {
			t.Fatalf("ToGridCoords(%v) = (%d,%d), want (%d,%d)", c.p, x, y, c.wx, c.wy)
		}
	}
}

func TestTileAt(t *testing.T) {
	m := testMap(t, 3, 3, [2]int{1, 1})
	if tile := m.TileAt("walls", 1, 1); tile == nil || tile.GlobalID != 2 {
		t.Fatalf("expected wall tile at (1,1), got %+v", tile)
	}
	if tile := m.TileAt("walls", 0, 0); tile != nil {
		t.Fatalf("expected empty cell, got %+v", tile)
	}
	if tile := m.TileAt("ground", 3, 0); tile != nil {
		t.Fatalf("out of bounds should be nil, got %+v", tile)
	}
	if tile := m.TileAt("ground", -1, 2); tile != nil {
		t.Fatalf("negative coords should be nil, got %+v", tile)
	}
}

func TestTileAtUnknownLayerPanics(t *testing.T) {
	m := testMap(t, 2, 2)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unknown layer")
		}
	}()
	m.TileAt("nope", 0, 0)
}

func TestTilesInRectRowMajorAndRestartable(t *testing.T) {
	m := testMap(t, 4, 4, [2]int{2, 1})
	seq := m.TilesInRect("walls", geom.CellRect{X: 1, Y: 1, W: 2, H: 2})

	collect := func() []string {
		var out []string
		for ct := range seq {
			out = append(out, fmt.Sprintf("%d,%d:%v", ct.X, ct.Y, ct.Tile != nil))
		}
		return out
	}
	first := collect()
	want := []string{"1,1:false", "2,1:true", "1,2:false", "2,2:false"}
	if strings.Join(first, " ") != strings.Join(want, " ") {
		t.Fatalf("got %v, want %v", first, want)
	}
	if second := collect(); strings.Join(second, " ") != strings.Join(first, " ") {
		t.Fatalf("second pass %v differs from first %v", second, first)
	}

	// early break stops the iteration
	n := 0
	for range seq {
		n++
		break
	}
	if n != 1 {
		t.Fatalf("break did not stop iteration, n=%d", n)
	}
}

func TestTilesInRectClipsToMap(t *testing.T) {
	m := testMap(t, 3, 3)
	n := 0
	for range m.TilesInRect("ground", geom.CellRect{X: -2, Y: 1, W: 10, H: 10}) {
		n++
	}
	if n != 6 {
		t.Fatalf("expected 6 cells inside the map, got %d", n)
	}
}

func TestBlockedAndHiddenLayers(t *testing.T) {
	m := testMap(t, 3, 3, [2]int{0, 1})
	hidden := &Layer{ID: "ghost", Kind: TileLayer, Collision: CollisionSolid, Tiles: make([]*Tile, 9)}
	hidden.Tiles[2] = &Tile{GlobalID: 1, TilesetID: "ts"}
	if err := m.AddLayer(hidden); err != nil {
		t.Fatalf("add hidden: %v", err)
	}
	if !m.Blocked(0, 1) {
		t.Fatalf("wall cell should be blocked")
	}
	if m.Blocked(2, 0) {
		t.Fatalf("hidden layers must not block")
	}
	if m.Blocked(1, 1) {
		t.Fatalf("ground-only cell should be free")
	}
	if !m.Blocked(-1, 0) || !m.Blocked(3, 3) {
		t.Fatalf("out of bounds counts as blocked")
	}
}

func TestToGridRect(t *testing.T) {
	m := testMap(t, 10, 10)
	r := m.ToGridRect(geom.Rect{X: 40, Y: 10, W: 40, H: 20})
	want := geom.CellRect{X: 1, Y: 0, W: 2, H: 1}
	if r != want {
		t.Fatalf("ToGridRect = %+v, want %+v", r, want)
	}
}

func TestAddLayerRejectsWrongCellCount(t *testing.T) {
	m := New(geom.Size{W: 2, H: 2}, geom.V(8, 8), geom.Vec2{})
	err := m.AddLayer(&Layer{ID: "x", Kind: TileLayer, Tiles: make([]*Tile, 3)})
	if !errors.Is(err, ErrTileCount) {
		t.Fatalf("expected ErrTileCount, got %v", err)
	}
}

func TestTextureCoords(t *testing.T) {
	ts := &Tileset{TileSize: geom.V(16, 16), GridSize: geom.Size{W: 4, H: 2}}
	r := ts.TextureCoords(5)
	if r.X != 16 || r.Y != 16 || r.W != 16 || r.H != 16 {
		t.Fatalf("TextureCoords(5) = %+v", r)
	}
}

const sampleMap = `{
  "background_color": "#102030",
  "world_offset": {"x": 0, "y": 0},
  "grid_size": {"x": 3, "y": 2},
  "tile_size": {"x": 32, "y": 32},
  "tilesets": [
    {"id": "base", "texture_id": "tiles", "texture_size": {"x": 64, "y": 64},
     "tile_size": {"x": 32, "y": 32}, "grid_size": {"x": 2, "y": 2},
     "first_tile_id": 1, "tile_cnt": 4}
  ],
  "layers": [
    {"id": "ground", "kind": "tile_layer", "collision": "none", "is_visible": true,
     "tiles": [1, 1, 1, 1, 1, 1]},
    {"id": "walls", "kind": "tile_layer", "collision": "barrier", "is_visible": true,
     "tiles": [0, 4, 0, 0, 0, 0]},
    {"id": "spawns", "kind": "object_layer", "object_kind": "spawn_points",
     "objects": [
       {"name": "player", "position": {"x": 16, "y": 48}},
       {"name": "wolf", "position": {"x": 80, "y": 16}, "size": {"x": 8, "y": 8},
        "properties": {"count": {"type": "int", "value": "2"},
                       "tint": {"type": "color", "value": "#80ff0000"}}}
     ]}
  ],
  "properties": {"music": {"type": "string", "value": "forest"}}
}`

func TestDecodeSampleMap(t *testing.T) {
	m, err := Decode([]byte(sampleMap))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.GridSize != (geom.Size{W: 3, H: 2}) {
		t.Fatalf("grid size = %+v", m.GridSize)
	}
	if got := strings.Join(m.DrawOrder, ","); got != "ground,walls,spawns" {
		t.Fatalf("draw order = %s", got)
	}
	tile := m.TileAt("walls", 1, 0)
	if tile == nil || tile.LocalID != 3 || tile.TilesetID != "base" {
		t.Fatalf("wall tile = %+v", tile)
	}
	if m.CollisionAt(1, 0) != CollisionBarrier || m.Blocked(0, 0) {
		t.Fatalf("occupancy wrong: (1,0)=%v (0,0)=%v", m.CollisionAt(1, 0), m.CollisionAt(0, 0))
	}
	if m.PlayerSpawn == nil || *m.PlayerSpawn != geom.V(16, 48) {
		t.Fatalf("player spawn = %v", m.PlayerSpawn)
	}
	spawns := m.ObjectsOfKind(ObjectsSpawnPoints)
	if len(spawns) != 2 {
		t.Fatalf("expected 2 spawn objects, got %d", len(spawns))
	}
	wolf := spawns[1]
	if wolf.Size == nil || wolf.Properties["count"].Int != 2 {
		t.Fatalf("wolf object = %+v", wolf)
	}
	if c := wolf.Properties["tint"].Color; c != (Color{R: 0xff, A: 0x80}) {
		t.Fatalf("tint = %+v", c)
	}
	if m.BackgroundColor != (Color{R: 0x10, G: 0x20, B: 0x30, A: 0xff}) {
		t.Fatalf("background = %+v", m.BackgroundColor)
	}
	if m.Properties["music"].String != "forest" {
		t.Fatalf("map property = %+v", m.Properties["music"])
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name    string
		replace [2]string
		want    error
	}{
		{"unresolved tile", [2]string{`[0, 4, 0, 0, 0, 0]`, `[0, 9, 0, 0, 0, 0]`}, ErrUnresolvedTile},
		{"unknown collision", [2]string{`"barrier"`, `"lava"`}, ErrUnknownCollision},
		{"bad property", [2]string{`"value": "2"`, `"value": "two"`}, ErrBadProperty},
		{"tile count", [2]string{`[0, 4, 0, 0, 0, 0]`, `[0, 4, 0]`}, ErrTileCount},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			doc := strings.Replace(sampleMap, c.replace[0], c.replace[1], 1)
			_, err := Decode([]byte(doc))
			if !errors.Is(err, c.want) {
				t.Fatalf("expected %v, got %v", c.want, err)
			}
		})
	}
}

func TestDecodeRejectsSchemaViolation(t *testing.T) {
	doc := strings.Replace(sampleMap, `"kind": "tile_layer", "collision": "none"`, `"kind": "hex_layer", "collision": "none"`, 1)
	if _, err := Decode([]byte(doc)); err == nil {
		t.Fatalf("expected schema error for unknown layer kind")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m, err := Decode([]byte(sampleMap))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "level.json")
	if err := Save(m, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	again, err := Load(path)
	if err != nil {
		raw, _ := os.ReadFile(path)
		t.Fatalf("reload: %v\n%s", err, raw)
	}
	if strings.Join(again.DrawOrder, ",") != strings.Join(m.DrawOrder, ",") {
		t.Fatalf("draw order changed: %v vs %v", again.DrawOrder, m.DrawOrder)
	}
	if again.CollisionAt(1, 0) != CollisionBarrier {
		t.Fatalf("collision lost in round trip")
	}
	if again.ObjectsOfKind(ObjectsSpawnPoints)[1].Properties["tint"] != m.ObjectsOfKind(ObjectsSpawnPoints)[1].Properties["tint"] {
		t.Fatalf("color property changed in round trip")
	}
}

func TestDecodeYAML(t *testing.T) {
	doc := `
grid_size: {x: 2, y: 1}
tile_size: {x: 16, y: 16}
tilesets:
  - {id: t, texture_id: t, tile_size: {x: 16, y: 16}, grid_size: {x: 1, y: 1}, first_tile_id: 1, tile_cnt: 1}
layers:
  - id: rocks
    kind: tile_layer
    collision: solid
    tiles: [0, 1]
`
	m, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if !m.Blocked(1, 0) || m.Blocked(0, 0) {
		t.Fatalf("unexpected occupancy")
	}
}

func TestParseProperty(t *testing.T) {
	cases := []struct {
		typ, value string
		ok         bool
	}{
		{"bool", "true", true},
		{"bool", "yes", false},
		{"float", "1.5", true},
		{"int", "1.5", false},
		{"string", "", true},
		{"color", "#ff00ff", true},
		{"color", "purple", false},
		{"object", "12", false},
	}
	for _, c := range cases {
		_, err := ParseProperty(c.typ, c.value)
		if (err == nil) != c.ok {
			t.Fatalf("ParseProperty(%s, %q) err=%v, want ok=%v", c.typ, c.value, err, c.ok)
		}
		if err != nil && !errors.Is(err, ErrBadProperty) {
			t.Fatalf("expected ErrBadProperty, got %v", err)
		}
	}
}
