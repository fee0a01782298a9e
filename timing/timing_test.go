package timing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func allCurves(t *testing.T) []Curve {
	custom, err := Custom(0.1, 0.7, 0.9, 0.2)
	require.NoError(t, err)
	steep, err := Custom(0, 0, 0, 1)
	require.NoError(t, err)
	return []Curve{Linear, Ease, EaseIn, EaseOut, EaseInOut, custom, steep}
}

func TestEndpoints(t *testing.T) {
	cache := NewCache()
	for _, c := range allCurves(t) {
		e := cache.Get(c)
		for _, eps := range []float64{Epsilon(0.1), Epsilon(1), Epsilon(30)} {
			assert.InDelta(t, 0, e.Evaluate(0, eps), eps, c.String())
			assert.InDelta(t, 1, e.Evaluate(1, eps), eps, c.String())
		}
		assert.Equal(t, 1.0, e.Evaluate(1.5, 0.001), "progress past the end clamps")
	}
}

func TestMonotonic(t *testing.T) {
	cache := NewCache()
	for _, c := range []Curve{Linear, EaseIn, EaseOut, Ease, EaseInOut} {
		e := cache.Get(c)
		prev := e.Evaluate(0, 1e-6)
		for i := 1; i <= 1000; i++ {
			x := float64(i) / 1000
			y := e.Evaluate(x, 1e-6)
			assert.GreaterOrEqual(t, y, prev-1e-6, "%s at %v", c, x)
			prev = y
		}
	}
}

func TestBezierMatchesKnownValues(t *testing.T) {
	linear := NewBezier(0, 0, 1, 1)
	assert.InDelta(t, 0.5, linear(0.5, 1e-7), 1e-6)

	e := NewBezier(0.25, 0.1, 0.25, 1.0)
	assert.InDelta(t, 0.8024, e(0.5, 1e-7), 1e-3)

	// The closed form of ease-in-out is close to the bezier it stands in for.
	bezier := NewBezier(0.42, 0, 0.58, 1)
	closed := NewCache().Get(EaseInOut)
	assert.InDelta(t, bezier(0.5, 1e-7), closed.Evaluate(0.5, 1e-7), 1e-6)
}

func TestBezierSteepTangentFallsBackToBisection(t *testing.T) {
	f := NewBezier(0, 0, 0, 1)
	for _, x := range []float64{0.001, 0.01, 0.2, 0.7, 0.999} {
		y := f(x, 1e-5)
		assert.GreaterOrEqual(t, y, 0.0)
		assert.LessOrEqual(t, y, 1.0)
	}
}

func TestCacheReusesEvaluators(t *testing.T) {
	cache := NewCache()
	a := cache.Get(Ease)
	b := cache.Get(Ease)
	assert.Same(t, a, b)

	c1, err := Custom(0.1, 0.2, 0.3, 0.4)
	require.NoError(t, err)
	c2, err := FromPoints([]float64{0.1, 0.2, 0.3, 0.4})
	require.NoError(t, err)
	assert.Same(t, cache.Get(c1), cache.Get(c2))

	assert.Same(t, a, cache.Get(Curve{}), "zero curve means ease")
	assert.Equal(t, 2, cache.Len())
	assert.Same(t, EvaluatorFor(Linear), EvaluatorFor(Linear))
}

func TestMalformedCurves(t *testing.T) {
	_, err := FromPoints([]float64{0.1, 0.2, 0.3})
	assert.ErrorIs(t, err, ErrMalformedCurve)
	_, err = Custom(0.1, 1.2, 0.3, 0.4)
	assert.ErrorIs(t, err, ErrMalformedCurve)
	_, err = Named("bounce")
	assert.ErrorIs(t, err, ErrUnknownCurve)

	var c Curve
	assert.ErrorIs(t, json.Unmarshal([]byte(`[1,2]`), &c), ErrMalformedCurve)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"x":1}`), &c), ErrMalformedCurve)
}

func TestCurveEncoding(t *testing.T) {
	custom, err := Custom(0.1, 0.2, 0.3, 0.4)
	require.NoError(t, err)
	assert.Equal(t, "cubic-bezier(0.1,0.2,0.3,0.4)", custom.String())
	assert.Equal(t, "ease-out", EaseOut.String())

	data, err := json.Marshal([]Curve{EaseIn, custom})
	require.NoError(t, err)
	assert.JSONEq(t, `["ease-in",[0.1,0.2,0.3,0.4]]`, string(data))

	var back []Curve
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []Curve{EaseIn, custom}, back)

	out, err := yaml.Marshal(map[string]Curve{"a": Linear, "b": custom})
	require.NoError(t, err)
	var yback map[string]Curve
	require.NoError(t, yaml.Unmarshal(out, &yback))
	assert.Equal(t, Linear, yback["a"])
	assert.Equal(t, custom, yback["b"])

	flat, err := Custom(0, 0, 0, 0)
	require.NoError(t, err)
	assert.False(t, flat.IsZero())
	assert.False(t, flat.IsNamed())
	data, err = json.Marshal(flat)
	require.NoError(t, err)
	assert.JSONEq(t, `[0,0,0,0]`, string(data))
	var flatBack Curve
	require.NoError(t, json.Unmarshal(data, &flatBack))
	assert.Equal(t, flat, flatBack)
	assert.NotSame(t, EvaluatorFor(Ease), EvaluatorFor(flat))
	assert.Equal(t, flat, EvaluatorFor(flat).Curve())
}
