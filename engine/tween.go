package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matt-g-everett/ledmotion/timeline"
	"github.com/matt-g-everett/ledmotion/timing"
)

// A Tween interpolates one attribute of one target over one time window.
// NumericTween is the only kind; colour and transform tweens would join it.
type Tween interface {
	// StartTime is the timeline-relative start, in seconds.
	StartTime() float64
	// Duration is the window length, in seconds.
	Duration() float64
	// Tick writes the value for timeline time t and reports whether the
	// tween still has work to do.
	Tick(t float64) (bool, error)

	tween()
}

type tweenBase struct {
	target    Target
	name      string
	setter    Setter
	startTime float64
	duration  float64
	epsilon   float64
	evaluator *timing.Evaluator
}

func (b *tweenBase) StartTime() float64 { return b.startTime }
func (b *tweenBase) Duration() float64  { return b.duration }
func (b *tweenBase) tween()             {}

func (b *tweenBase) write(v timeline.Value) error {
	var err error
	if b.setter != nil {
		err = b.setter(b.target, b.name, v)
	} else {
		err = b.target.SetAttribute(b.name, v)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", b.name, err)
	}
	return nil
}

// A NumericTween animates a number with an optional trailing unit.
type NumericTween struct {
	tweenBase
	from float64
	to   float64
	unit string
}

// NewNumericTween creates a numeric tween. setter may be nil to write with
// Target.SetAttribute. unit is reattached to every written value.
func NewNumericTween(target Target, name string, setter Setter, startTime, duration float64,
	evaluator *timing.Evaluator, from, to float64, unit string) *NumericTween {

	t := new(NumericTween)
	t.target = target
	t.name = name
	t.setter = setter
	t.startTime = startTime
	t.duration = duration
	t.epsilon = timing.Epsilon(duration)
	t.evaluator = evaluator
	t.from = from
	t.to = to
	t.unit = unit
	return t
}

// From returns the starting value.
func (t *NumericTween) From() float64 { return t.from }

// To returns the final value.
func (t *NumericTween) To() float64 { return t.to }

// Unit returns the unit suffix, or "".
func (t *NumericTween) Unit() string { return t.unit }

// Tick implements Tween.
func (t *NumericTween) Tick(time float64) (bool, error) {
	if t.duration == 0 {
		return false, t.write(t.value(t.to))
	}

	// Not clamped below zero: times before the start run the curve backwards.
	ta := (time - t.startTime) / t.duration
	if ta > 1 {
		ta = 1
	}
	fa := t.evaluator.Evaluate(ta, t.epsilon)
	v := t.from + fa*(t.to-t.from)
	if err := t.write(t.value(v)); err != nil {
		return false, err
	}
	return fa < 1.0, nil
}

func (t *NumericTween) value(v float64) timeline.Value {
	if t.unit != "" {
		return timeline.String(strconv.FormatFloat(v, 'f', -1, 64) + t.unit)
	}
	return timeline.Number(v)
}

// UnitOf returns the trailing unit of a value-unit string ("10px" -> "px").
// It returns "" when nothing follows the number.
func UnitOf(s string) string {
	for n := len(s) - 1; n >= 0; n-- {
		c := s[n]
		if (c >= '0' && c <= '9') || c == '.' {
			return s[n+1:]
		}
	}
	return ""
}

// ParseNumeric splits v into a number and its unit.
func ParseNumeric(v timeline.Value) (float64, string, error) {
	if !v.IsString() {
		return v.Float(), "", nil
	}
	s := v.String()
	unit := UnitOf(s)
	f, err := strconv.ParseFloat(strings.TrimSpace(s[:len(s)-len(unit)]), 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %q is not numeric", ErrUnsupportedAttribute, s)
	}
	return f, strings.TrimSpace(unit), nil
}

func numericPair(from, to timeline.Value) (float64, float64, string, error) {
	f, fromUnit, err := ParseNumeric(from)
	if err != nil {
		return 0, 0, "", err
	}
	t, toUnit, err := ParseNumeric(to)
	if err != nil {
		return 0, 0, "", err
	}
	unit := fromUnit
	if unit == "" {
		unit = toUnit
	} else if toUnit != "" && toUnit != unit {
		return 0, 0, "", fmt.Errorf("%w: cannot tween %s to %s", ErrUnsupportedAttribute, from, to)
	}
	return f, t, unit, nil
}
