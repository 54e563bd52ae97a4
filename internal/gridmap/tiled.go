package gridmap

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/tilerealm/engine/internal/geom"
)

// TiledDeclaration says how a Tiled export maps onto engine concepts. Tiled
// has no notion of texture ids or collision kinds, so they are declared here.
type TiledDeclaration struct {
	Tilesets []struct {
		Name      string `yaml:"name"`
		TextureID string `yaml:"texture_id"`
	} `yaml:"tilesets"`
	Collisions []struct {
		LayerID   string `yaml:"layer_id"`
		Collision string `yaml:"collision"`
	} `yaml:"collisions"`
	ObjectKinds []struct {
		LayerID string `yaml:"layer_id"`
		Kind    string `yaml:"kind"`
	} `yaml:"object_kinds"`
}

// LoadTiledDeclaration reads a YAML declaration file.
func LoadTiledDeclaration(path string) (*TiledDeclaration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read declaration %s: %w", path, err)
	}
	var decl TiledDeclaration
	if err := yaml.Unmarshal(data, &decl); err != nil {
		return nil, fmt.Errorf("parse declaration %s: %w", path, err)
	}
	return &decl, nil
}

type tiledProperty struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Value any    `yaml:"value"`
}

type tiledObject struct {
	Name       string          `yaml:"name"`
	X          float64         `yaml:"x"`
	Y          float64         `yaml:"y"`
	Width      float64         `yaml:"width"`
	Height     float64         `yaml:"height"`
	Properties []tiledProperty `yaml:"properties"`
}

type tiledTileset struct {
	Name        string `yaml:"name"`
	Columns     int    `yaml:"columns"`
	ImageWidth  int    `yaml:"imagewidth"`
	ImageHeight int    `yaml:"imageheight"`
	TileWidth   int    `yaml:"tilewidth"`
	TileHeight  int    `yaml:"tileheight"`
	FirstGID    uint32 `yaml:"firstgid"`
	TileCount   uint32 `yaml:"tilecount"`
}

type tiledLayer struct {
	Name       string          `yaml:"name"`
	Type       string          `yaml:"type"`
	Visible    bool            `yaml:"visible"`
	Data       []uint32        `yaml:"data"`
	Objects    []tiledObject   `yaml:"objects"`
	Properties []tiledProperty `yaml:"properties"`
}

type tiledMap struct {
	BackgroundColor string          `yaml:"backgroundcolor"`
	Width           int             `yaml:"width"`
	Height          int             `yaml:"height"`
	TileWidth       float64         `yaml:"tilewidth"`
	TileHeight      float64         `yaml:"tileheight"`
	Layers          []tiledLayer    `yaml:"layers"`
	Tilesets        []tiledTileset  `yaml:"tilesets"`
	Properties      []tiledProperty `yaml:"properties"`
}

// FromTiled converts a Tiled JSON map export into a GridMap. Only tilesets
// named in the declaration are kept, and a tile referencing any other
// tileset fails the conversion.
func FromTiled(data []byte, decl *TiledDeclaration) (*GridMap, error) {
	var tm tiledMap
	if err := yaml.Unmarshal(data, &tm); err != nil {
		return nil, fmt.Errorf("parse tiled map: %w", err)
	}
	if tm.Width <= 0 || tm.Height <= 0 || tm.TileWidth <= 0 || tm.TileHeight <= 0 {
		return nil, fmt.Errorf("tiled map has invalid dimensions %dx%d (%vx%v)",
			tm.Width, tm.Height, tm.TileWidth, tm.TileHeight)
	}

	m := New(geom.Size{W: tm.Width, H: tm.Height}, geom.Vec2{X: tm.TileWidth, Y: tm.TileHeight}, geom.Vec2{})
	m.BackgroundColor = Color{A: 0xff}
	if tm.BackgroundColor != "" {
		c, err := ParseColor(tm.BackgroundColor)
		if err != nil {
			return nil, fmt.Errorf("background color: %w", err)
		}
		m.BackgroundColor = c
	}
	props, err := tiledProperties(tm.Properties)
	if err != nil {
		return nil, fmt.Errorf("map properties: %w", err)
	}
	m.Properties = props

	for _, td := range decl.Tilesets {
		var src *tiledTileset
		for i := range tm.Tilesets {
			if tm.Tilesets[i].Name == td.Name {
				src = &tm.Tilesets[i]
				break
			}
		}
		if src == nil {
			return nil, fmt.Errorf("declared tileset %q not found in tiled map", td.Name)
		}
		cols := src.Columns
		if cols <= 0 {
			return nil, fmt.Errorf("tileset %q has %d columns", td.Name, cols)
		}
		ts := &Tileset{
			ID:          td.Name,
			TextureID:   td.TextureID,
			TextureSize: geom.Vec2{X: float64(src.ImageWidth), Y: float64(src.ImageHeight)},
			TileSize:    geom.Vec2{X: float64(src.TileWidth), Y: float64(src.TileHeight)},
			GridSize:    geom.Size{W: cols, H: int(src.TileCount) / cols},
			FirstTileID: src.FirstGID,
			TileCount:   src.TileCount,
		}
		if err := m.AddTileset(ts); err != nil {
			return nil, err
		}
	}

	for _, tl := range tm.Layers {
		l, err := m.fromTiledLayer(tl, decl)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", tl.Name, err)
		}
		if err := m.AddLayer(l); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *GridMap) fromTiledLayer(tl tiledLayer, decl *TiledDeclaration) (*Layer, error) {
	l := &Layer{ID: tl.Name, Visible: tl.Visible}
	for _, c := range decl.Collisions {
		if c.LayerID == tl.Name {
			kind, err := ParseCollisionKind(c.Collision)
			if err != nil {
				return nil, err
			}
			l.Collision = kind
			break
		}
	}
	props, err := tiledProperties(tl.Properties)
	if err != nil {
		return nil, err
	}
	l.Properties = props

	if tl.Type == "tilelayer" {
		l.Kind = TileLayer
		if len(tl.Data) != m.GridSize.Cells() {
			return nil, fmt.Errorf("%w: %d cells, want %d", ErrTileCount, len(tl.Data), m.GridSize.Cells())
		}
		l.Tiles = make([]*Tile, len(tl.Data))
		for i, gid := range tl.Data {
			t, err := m.ResolveTile(gid)
			if err != nil {
				return nil, fmt.Errorf("cell (%d,%d): %w", i%m.GridSize.W, i/m.GridSize.W, err)
			}
			l.Tiles[i] = t
		}
		return l, nil
	}

	l.Kind = ObjectLayer
	for _, k := range decl.ObjectKinds {
		if k.LayerID == tl.Name {
			ok, err := parseObjectKind(k.Kind)
			if err != nil {
				return nil, err
			}
			l.ObjectKind = ok
			break
		}
	}
	for _, to := range tl.Objects {
		props, err := tiledProperties(to.Properties)
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", to.Name, err)
		}
		o := MapObject{
			Name:       to.Name,
			Position:   geom.Vec2{X: to.X, Y: to.Y},
			Properties: props,
		}
		if to.Width != 0 || to.Height != 0 {
			o.Size = &geom.Vec2{X: to.Width, Y: to.Height}
		}
		l.Objects = append(l.Objects, o)
	}
	return l, nil
}

// tiledProperties converts Tiled's typed property list. Object and file
// references have no meaning outside the editor and are rejected.
func tiledProperties(in []tiledProperty) (map[string]Property, error) {
	out := make(map[string]Property, len(in))
	for _, tp := range in {
		typ := tp.Type
		if typ == "" {
			typ = "string"
		}
		p, err := ParseProperty(typ, tiledValueString(tp.Value))
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", tp.Name, err)
		}
		out[tp.Name] = p
	}
	return out, nil
}

func tiledValueString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	return fmt.Sprint(v)
}
