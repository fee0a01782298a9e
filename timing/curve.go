package timing

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrMalformedCurve = errors.New("malformed timing curve")
	ErrUnknownCurve   = errors.New("unknown timing curve")
)

// A Curve is a named or custom cubic-bezier timing curve.
type Curve struct {
	name   string
	points [4]float64
	custom bool
}

// Built-in curves.
var (
	Linear    = Curve{name: "linear", points: [4]float64{0.0, 0.0, 1.0, 1.0}}
	Ease      = Curve{name: "ease", points: [4]float64{0.25, 0.1, 0.25, 1.0}}
	EaseIn    = Curve{name: "ease-in", points: [4]float64{0.42, 0.0, 1.0, 1.0}}
	EaseOut   = Curve{name: "ease-out", points: [4]float64{0.0, 0.0, 0.58, 1.0}}
	EaseInOut = Curve{name: "ease-in-out", points: [4]float64{0.42, 0.0, 0.58, 1.0}}
)

var named = map[string]Curve{
	Linear.name:    Linear,
	Ease.name:      Ease,
	EaseIn.name:    EaseIn,
	EaseOut.name:   EaseOut,
	EaseInOut.name: EaseInOut,
}

// Named looks up one of the built-in curves.
func Named(name string) (Curve, error) {
	c, ok := named[name]
	if !ok {
		return Curve{}, fmt.Errorf("%w: %q", ErrUnknownCurve, name)
	}
	return c, nil
}

// Custom creates a curve from the P1 and P2 control points.
func Custom(x1, y1, x2, y2 float64) (Curve, error) {
	p := [4]float64{x1, y1, x2, y2}
	for _, v := range p {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return Curve{}, fmt.Errorf("%w: control point %v outside [0,1]", ErrMalformedCurve, v)
		}
	}
	return Curve{points: p, custom: true}, nil
}

// FromPoints creates a custom curve from a [x1, y1, x2, y2] slice.
func FromPoints(points []float64) (Curve, error) {
	if len(points) != 4 {
		return Curve{}, fmt.Errorf("%w: want 4 control points, got %d", ErrMalformedCurve, len(points))
	}
	return Custom(points[0], points[1], points[2], points[3])
}

// IsZero reports whether c is the zero Curve (no curve set). Custom curves
// are never zero, even with all control points at 0.
func (c Curve) IsZero() bool {
	return !c.custom && c.name == ""
}

// IsNamed reports whether c is one of the built-in curves.
func (c Curve) IsNamed() bool {
	return c.name != ""
}

// Name returns the built-in curve name, or "" for custom curves.
func (c Curve) Name() string {
	return c.name
}

// Points returns the control points of the curve.
func (c Curve) Points() [4]float64 {
	return c.points
}

// String renders the curve the way a keyframe rule expects it.
func (c Curve) String() string {
	if c.name != "" {
		return c.name
	}
	parts := make([]string, len(c.points))
	for i, v := range c.points {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return "cubic-bezier(" + strings.Join(parts, ",") + ")"
}

// MarshalJSON encodes named curves as strings and custom curves as arrays.
func (c Curve) MarshalJSON() ([]byte, error) {
	if c.name != "" {
		return json.Marshal(c.name)
	}
	return json.Marshal(c.points[:])
}

// UnmarshalJSON accepts a curve name or an array of 4 control points.
func (c *Curve) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		parsed, err := Named(name)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	var points []float64
	if err := json.Unmarshal(data, &points); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedCurve, string(data))
	}
	parsed, err := FromPoints(points)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (c Curve) MarshalYAML() (interface{}, error) {
	if c.name != "" {
		return c.name, nil
	}
	return c.points[:], nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Curve) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err == nil {
		parsed, err := Named(name)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	var points []float64
	if err := unmarshal(&points); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedCurve, err)
	}
	parsed, err := FromPoints(points)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
