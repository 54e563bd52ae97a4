package gridmap

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/tilerealm/engine/internal/geom"
)

//go:embed map.schema.json
var mapSchemaSource string

var (
	schemaOnce sync.Once
	mapSchema  *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		mapSchema, schemaErr = jsonschema.CompileString("map.schema.json", mapSchemaSource)
	})
	return mapSchema, schemaErr
}

// Persisted form. The same structs decode JSON exports and hand-written YAML.

type vec2Def struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

type uvec2Def struct {
	X uint32 `json:"x" yaml:"x"`
	Y uint32 `json:"y" yaml:"y"`
}

type propertyDef struct {
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value" yaml:"value"`
}

type objectDef struct {
	Name       string                 `json:"name" yaml:"name"`
	Position   vec2Def                `json:"position" yaml:"position"`
	Size       *vec2Def               `json:"size,omitempty" yaml:"size"`
	Properties map[string]propertyDef `json:"properties,omitempty" yaml:"properties"`
}

type layerDef struct {
	ID         string                 `json:"id" yaml:"id"`
	Kind       string                 `json:"kind" yaml:"kind"`
	ObjectKind string                 `json:"object_kind,omitempty" yaml:"object_kind"`
	Collision  string                 `json:"collision" yaml:"collision"`
	Tiles      []uint32               `json:"tiles,omitempty" yaml:"tiles"`
	Objects    []objectDef            `json:"objects,omitempty" yaml:"objects"`
	IsVisible  *bool                  `json:"is_visible" yaml:"is_visible"`
	Properties map[string]propertyDef `json:"properties,omitempty" yaml:"properties"`
}

type tilesetDef struct {
	ID          string   `json:"id" yaml:"id"`
	TextureID   string   `json:"texture_id" yaml:"texture_id"`
	TextureSize uvec2Def `json:"texture_size" yaml:"texture_size"`
	TileSize    vec2Def  `json:"tile_size" yaml:"tile_size"`
	GridSize    uvec2Def `json:"grid_size" yaml:"grid_size"`
	FirstTileID uint32   `json:"first_tile_id" yaml:"first_tile_id"`
	TileCount   uint32   `json:"tile_cnt" yaml:"tile_cnt"`
}

type mapDef struct {
	BackgroundColor string                 `json:"background_color,omitempty" yaml:"background_color"`
	WorldOffset     vec2Def                `json:"world_offset" yaml:"world_offset"`
	GridSize        uvec2Def               `json:"grid_size" yaml:"grid_size"`
	TileSize        vec2Def                `json:"tile_size" yaml:"tile_size"`
	Layers          []layerDef             `json:"layers" yaml:"layers"`
	Tilesets        []tilesetDef           `json:"tilesets" yaml:"tilesets"`
	Properties      map[string]propertyDef `json:"properties,omitempty" yaml:"properties"`
}

// Load reads and decodes a persisted map file.
func Load(path string) (*GridMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map %s: %w", path, err)
	}
	m, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load map %s: %w", path, err)
	}
	return m, nil
}

// Decode validates a persisted map document against the map schema and
// builds the GridMap. Any data fault fails the whole load.
func Decode(data []byte) (*GridMap, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var def mapDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse map: %w", err)
	}
	return def.build()
}

// Validate checks a JSON or YAML map document against the embedded schema.
func Validate(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile map schema: %w", err)
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse map: %w", err)
	}
	// Round-trip through JSON so the validator sees JSON value types.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("normalize map: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("normalize map: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("invalid map: %w", err)
	}
	return nil
}

func (d *mapDef) build() (*GridMap, error) {
	if d.GridSize.X == 0 || d.GridSize.Y == 0 {
		return nil, fmt.Errorf("map grid size %dx%d is empty", d.GridSize.X, d.GridSize.Y)
	}
	if d.TileSize.X <= 0 || d.TileSize.Y <= 0 {
		return nil, fmt.Errorf("map tile size %vx%v is not positive", d.TileSize.X, d.TileSize.Y)
	}
	m := New(
		geom.Size{W: int(d.GridSize.X), H: int(d.GridSize.Y)},
		geom.Vec2{X: d.TileSize.X, Y: d.TileSize.Y},
		geom.Vec2{X: d.WorldOffset.X, Y: d.WorldOffset.Y},
	)
	m.BackgroundColor = Color{A: 0xff}
	if d.BackgroundColor != "" {
		c, err := ParseColor(d.BackgroundColor)
		if err != nil {
			return nil, fmt.Errorf("background color: %w", err)
		}
		m.BackgroundColor = c
	}
	props, err := buildProperties(d.Properties)
	if err != nil {
		return nil, fmt.Errorf("map properties: %w", err)
	}
	m.Properties = props

	for _, td := range d.Tilesets {
		ts := &Tileset{
			ID:          td.ID,
			TextureID:   td.TextureID,
			TextureSize: geom.Vec2{X: float64(td.TextureSize.X), Y: float64(td.TextureSize.Y)},
			TileSize:    geom.Vec2{X: td.TileSize.X, Y: td.TileSize.Y},
			GridSize:    geom.Size{W: int(td.GridSize.X), H: int(td.GridSize.Y)},
			FirstTileID: td.FirstTileID,
			TileCount:   td.TileCount,
		}
		if ts.TileCount == 0 {
			ts.TileCount = td.GridSize.X * td.GridSize.Y
		}
		if err := m.AddTileset(ts); err != nil {
			return nil, err
		}
	}

	for _, ld := range d.Layers {
		l, err := m.buildLayer(ld)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", ld.ID, err)
		}
		if err := m.AddLayer(l); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *GridMap) buildLayer(ld layerDef) (*Layer, error) {
	coll, err := ParseCollisionKind(ld.Collision)
	if err != nil {
		return nil, err
	}
	props, err := buildProperties(ld.Properties)
	if err != nil {
		return nil, err
	}
	l := &Layer{
		ID:         ld.ID,
		Collision:  coll,
		Visible:    ld.IsVisible == nil || *ld.IsVisible,
		Properties: props,
	}
	switch ld.Kind {
	case "tile_layer":
		l.Kind = TileLayer
		if len(ld.Tiles) != m.GridSize.Cells() {
			return nil, fmt.Errorf("%w: %d cells, want %d", ErrTileCount, len(ld.Tiles), m.GridSize.Cells())
		}
		l.Tiles = make([]*Tile, len(ld.Tiles))
		for i, gid := range ld.Tiles {
			t, err := m.ResolveTile(gid)
			if err != nil {
				return nil, fmt.Errorf("cell (%d,%d): %w", i%m.GridSize.W, i/m.GridSize.W, err)
			}
			l.Tiles[i] = t
		}
	case "object_layer":
		l.Kind = ObjectLayer
		ok, err := parseObjectKind(ld.ObjectKind)
		if err != nil {
			return nil, err
		}
		l.ObjectKind = ok
		l.Objects = make([]MapObject, 0, len(ld.Objects))
		for _, od := range ld.Objects {
			props, err := buildProperties(od.Properties)
			if err != nil {
				return nil, fmt.Errorf("object %q: %w", od.Name, err)
			}
			o := MapObject{
				Name:       od.Name,
				Position:   geom.Vec2{X: od.Position.X, Y: od.Position.Y},
				Properties: props,
			}
			if od.Size != nil {
				o.Size = &geom.Vec2{X: od.Size.X, Y: od.Size.Y}
			}
			l.Objects = append(l.Objects, o)
		}
	default:
		return nil, fmt.Errorf("unknown layer kind %q", ld.Kind)
	}
	return l, nil
}

func buildProperties(defs map[string]propertyDef) (map[string]Property, error) {
	out := make(map[string]Property, len(defs))
	for name, pd := range defs {
		p, err := ParseProperty(pd.Type, pd.Value)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		out[name] = p
	}
	return out, nil
}

// Encode writes the map in its persisted JSON form, layers in draw order.
func Encode(m *GridMap) ([]byte, error) {
	d := mapDef{
		BackgroundColor: m.BackgroundColor.String(),
		WorldOffset:     vec2Def{X: m.WorldOffset.X, Y: m.WorldOffset.Y},
		GridSize:        uvec2Def{X: uint32(m.GridSize.W), Y: uint32(m.GridSize.H)},
		TileSize:        vec2Def{X: m.TileSize.X, Y: m.TileSize.Y},
		Properties:      encodeProperties(m.Properties),
	}
	for _, id := range m.tsOrder {
		ts := m.Tilesets[id]
		d.Tilesets = append(d.Tilesets, tilesetDef{
			ID:          ts.ID,
			TextureID:   ts.TextureID,
			TextureSize: uvec2Def{X: uint32(ts.TextureSize.X), Y: uint32(ts.TextureSize.Y)},
			TileSize:    vec2Def{X: ts.TileSize.X, Y: ts.TileSize.Y},
			GridSize:    uvec2Def{X: uint32(ts.GridSize.W), Y: uint32(ts.GridSize.H)},
			FirstTileID: ts.FirstTileID,
			TileCount:   ts.TileCount,
		})
	}
	for _, id := range m.DrawOrder {
		l := m.Layers[id]
		visible := l.Visible
		ld := layerDef{
			ID:         l.ID,
			Kind:       l.Kind.String(),
			Collision:  l.Collision.String(),
			IsVisible:  &visible,
			Properties: encodeProperties(l.Properties),
		}
		if l.Kind == TileLayer {
			ld.Tiles = make([]uint32, len(l.Tiles))
			for i, t := range l.Tiles {
				if t != nil {
					ld.Tiles[i] = t.GlobalID
				}
			}
		} else {
			ld.ObjectKind = l.ObjectKind.String()
			ld.Objects = make([]objectDef, 0, len(l.Objects))
			for _, o := range l.Objects {
				od := objectDef{
					Name:       o.Name,
					Position:   vec2Def{X: o.Position.X, Y: o.Position.Y},
					Properties: encodeProperties(o.Properties),
				}
				if o.Size != nil {
					od.Size = &vec2Def{X: o.Size.X, Y: o.Size.Y}
				}
				ld.Objects = append(ld.Objects, od)
			}
		}
		d.Layers = append(d.Layers, ld)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("encode map: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the map to path in its persisted JSON form.
func Save(m *GridMap, path string) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write map %s: %w", path, err)
	}
	return nil
}

func encodeProperties(props map[string]Property) map[string]propertyDef {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]propertyDef, len(props))
	for name, p := range props {
		out[name] = propertyDef{Type: p.Type.String(), Value: p.Value()}
	}
	return out
}
