package timing

import (
	"math"
	"sync"

	"github.com/fogleman/ease"
)

const (
	newtonIterations    = 8
	bisectionIterations = 64
	minDerivative       = 1e-6
)

// An Evaluator maps normalised progress to eased progress for one curve.
// Evaluators are shared; compare them by pointer.
type Evaluator struct {
	curve Curve
	fn    func(x, epsilon float64) float64
}

// Curve returns the curve the evaluator was built for.
func (e *Evaluator) Curve() Curve {
	return e.curve
}

// Evaluate returns the eased value at x. epsilon bounds the solver error and
// should shrink as the animated duration grows.
func (e *Evaluator) Evaluate(x, epsilon float64) float64 {
	if x >= 1 {
		return 1
	}
	if x == 0 {
		return 0
	}
	return e.fn(x, epsilon)
}

// Epsilon returns the solver tolerance suitable for a tween lasting
// duration seconds.
func Epsilon(duration float64) float64 {
	if duration <= 0 {
		return math.Inf(1)
	}
	return 1 / (200 * duration)
}

// NewBezier builds a cubic-bezier solver for the control points P1 and P2.
// The endpoints P0 and P3 are fixed at (0,0) and (1,1).
func NewBezier(p1x, p1y, p2x, p2y float64) func(x, epsilon float64) float64 {
	cx := 3 * p1x
	bx := 3*(p2x-p1x) - cx
	ax := 1 - cx - bx
	cy := 3 * p1y
	by := 3*(p2y-p1y) - cy
	ay := 1 - cy - by

	sampleX := func(t float64) float64 {
		return ((ax*t+bx)*t + cx) * t
	}
	sampleY := func(t float64) float64 {
		return ((ay*t+by)*t + cy) * t
	}
	derivativeX := func(t float64) float64 {
		return (3*ax*t+2*bx)*t + cx
	}

	solveX := func(x, epsilon float64) float64 {
		t := x
		for i := 0; i < newtonIterations; i++ {
			x2 := sampleX(t) - x
			if math.Abs(x2) < epsilon {
				return t
			}
			d := derivativeX(t)
			if math.Abs(d) < minDerivative {
				break
			}
			t -= x2 / d
		}

		t0, t1 := 0.0, 1.0
		t = x
		if t < t0 {
			return t0
		}
		if t > t1 {
			return t1
		}
		for i := 0; i < bisectionIterations && t0 < t1; i++ {
			x2 := sampleX(t)
			if math.Abs(x2-x) < epsilon {
				return t
			}
			if x > x2 {
				t0 = t
			} else {
				t1 = t
			}
			t = (t1-t0)*0.5 + t0
		}
		return t
	}

	return func(x, epsilon float64) float64 {
		return sampleY(solveX(x, epsilon))
	}
}

// closedForms replace the solver for curves with an exact polynomial.
var closedForms = map[string]func(float64) float64{
	Linear.name:    ease.Linear,
	EaseIn.name:    ease.InCubic,
	EaseOut.name:   ease.OutCubic,
	EaseInOut.name: ease.InOutCubic,
}

// A Cache memoises evaluators by curve value.
type Cache struct {
	mu         sync.Mutex
	evaluators map[Curve]*Evaluator
}

// NewCache creates an empty evaluator cache.
func NewCache() *Cache {
	c := new(Cache)
	c.evaluators = make(map[Curve]*Evaluator)
	return c
}

// Get returns the evaluator for curve, building it on first use.
// The zero Curve resolves to Ease.
func (c *Cache) Get(curve Curve) *Evaluator {
	if curve.IsZero() {
		curve = Ease
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.evaluators[curve]; ok {
		return e
	}

	e := &Evaluator{curve: curve}
	if f, ok := closedForms[curve.name]; ok {
		e.fn = func(x, _ float64) float64 {
			return f(x)
		}
	} else {
		p := curve.points
		e.fn = NewBezier(p[0], p[1], p[2], p[3])
	}
	c.evaluators[curve] = e
	return e
}

// Len returns the number of distinct evaluators built so far.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.evaluators)
}

var defaultCache = NewCache()

// EvaluatorFor returns the shared evaluator for curve.
func EvaluatorFor(curve Curve) *Evaluator {
	return defaultCache.Get(curve)
}
