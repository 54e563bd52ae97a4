package gridmap

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnresolvedTile   = errors.New("tile id resolves to no tileset")
	ErrUnknownCollision = errors.New("unknown collision kind")
	ErrBadProperty      = errors.New("malformed property")
	ErrTileCount        = errors.New("tile layer cell count mismatch")
)

type PropertyType uint8

const (
	PropBool PropertyType = iota
	PropFloat
	PropInt
	PropString
	PropColor
)

var propertyTypeNames = [...]string{"bool", "float", "int", "string", "color"}

func (t PropertyType) String() string {
	if int(t) < len(propertyTypeNames) {
		return propertyTypeNames[t]
	}
	return fmt.Sprintf("property(%d)", uint8(t))
}

// Color is an RGBA color with 8 bits per channel.
type Color struct {
	R, G, B, A uint8
}

// ParseColor accepts "#RRGGBB" or "#AARRGGBB" (the Tiled order).
func ParseColor(s string) (Color, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 && len(h) != 8 {
		return Color{}, fmt.Errorf("%w: color %q", ErrBadProperty, s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: color %q", ErrBadProperty, s)
	}
	c := Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
	if len(h) == 8 {
		c.A = uint8(v >> 24)
	}
	return c, nil
}

// String formats the color as "#AARRGGBB", or "#RRGGBB" when fully opaque.
func (c Color) String() string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.A, c.R, c.G, c.B)
}

// Property is a typed free-form value attached to a map, layer or object.
// Only the field matching Type is meaningful.
type Property struct {
	Type   PropertyType
	Bool   bool
	Float  float64
	Int    int64
	String string
	Color  Color
}

func BoolProp(v bool) Property     { return Property{Type: PropBool, Bool: v} }
func FloatProp(v float64) Property { return Property{Type: PropFloat, Float: v} }
func IntProp(v int64) Property     { return Property{Type: PropInt, Int: v} }
func StringProp(v string) Property { return Property{Type: PropString, String: v} }
func ColorProp(v Color) Property   { return Property{Type: PropColor, Color: v} }

// ParseProperty builds a property from its persisted (type, value) pair.
func ParseProperty(typ, value string) (Property, error) {
	switch typ {
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return Property{}, fmt.Errorf("%w: bool %q", ErrBadProperty, value)
		}
		return BoolProp(b), nil
	case "float":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return Property{}, fmt.Errorf("%w: float %q", ErrBadProperty, value)
		}
		return FloatProp(f), nil
	case "int":
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return Property{}, fmt.Errorf("%w: int %q", ErrBadProperty, value)
		}
		return IntProp(i), nil
	case "string":
		return StringProp(value), nil
	case "color":
		c, err := ParseColor(value)
		if err != nil {
			return Property{}, err
		}
		return ColorProp(c), nil
	}
	return Property{}, fmt.Errorf("%w: unknown type %q", ErrBadProperty, typ)
}

// Value returns the persisted string form of the property's value.
func (p Property) Value() string {
	switch p.Type {
	case PropBool:
		return strconv.FormatBool(p.Bool)
	case PropFloat:
		return strconv.FormatFloat(p.Float, 'g', -1, 64)
	case PropInt:
		return strconv.FormatInt(p.Int, 10)
	case PropColor:
		return p.Color.String()
	}
	return p.String
}
