package stream

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// A GradientStop pins a hue to a position in [0, 1].
type GradientStop struct {
	Hue float64 `yaml:"hue" json:"hue"`
	Pos float64 `yaml:"pos" json:"pos"`
}

// GradientTable stores a look-up table of colours interpolated by hue.
// Stops are ordered by position.
type GradientTable []GradientStop

// Rainbow is the stock tree gradient.
var Rainbow = GradientTable{
	{0.0, 0.0},
	{6.0, 0.04},   // Pink
	{87.0, 0.14},  // Red
	{88.0, 0.28},  // Orange
	{98.0, 0.42},  // Yellow
	{180.0, 0.56}, // Green
	{190.0, 0.70}, // Turquoise
	{320.0, 0.84}, // Blue
	{328.0, 0.91}, // Violet
	{360.0, 1.0},  // Pink wrap
}

var gradients = map[string]GradientTable{
	"rainbow": Rainbow,
}

// LookupGradient returns a built-in gradient by name.
func LookupGradient(name string) (GradientTable, error) {
	g, ok := gradients[name]
	if !ok {
		return nil, fmt.Errorf("unknown gradient %q", name)
	}
	return g, nil
}

// Hue gets the hue at position t, wrapping t into [0, 1).
func (g GradientTable) Hue(t float64) float64 {
	if len(g) == 0 {
		return 0
	}
	t = t - math.Floor(t)
	for i := 0; i < len(g)-1; i++ {
		c1 := g[i]
		c2 := g[i+1]
		if c1.Pos <= t && t <= c2.Pos {
			if c2.Pos == c1.Pos {
				return c1.Hue
			}
			// We are in between c1 and c2. Go blend them!
			return (((t - c1.Pos) / (c2.Pos - c1.Pos)) * (c2.Hue - c1.Hue)) + c1.Hue
		}
	}

	// Nothing found? Means we're at (or past) the last gradient keypoint.
	return g[len(g)-1].Hue
}

// GetColor gets a colour at the specified point on the look-up table.
func (g GradientTable) GetColor(t, c, l float64) colorful.Color {
	return colorful.Hcl(g.Hue(t), c, l)
}
