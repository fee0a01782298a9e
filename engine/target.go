package engine

import (
	"errors"

	"github.com/matt-g-everett/ledmotion/timeline"
)

var (
	ErrTargetNotFound       = errors.New("target not found")
	ErrUnsupportedTarget    = errors.New("target cannot be animated")
	ErrUnsupportedAttribute = errors.New("unsupported attribute kind")
	ErrMissingValue         = errors.New("attribute has no value")
)

// A Target is an object whose named attributes can be animated frame by
// frame.
type Target interface {
	Attribute(name string) (timeline.Value, bool)
	SetAttribute(name string, v timeline.Value) error
}

// AnimationProps describe a natively running keyframe animation. The zero
// value means "no animation".
type AnimationProps struct {
	Name     string
	Delay    float64
	Duration float64
	Timing   string
}

// IsZero reports whether p clears the animation.
func (p AnimationProps) IsZero() bool {
	return p == AnimationProps{}
}

// A Style is a Target whose backend can run registered keyframe rules
// itself.
type Style interface {
	Target
	// ComputedAttribute is the value currently on display, including any
	// running animation.
	ComputedAttribute(name string) (timeline.Value, bool)
	// SetAnimation starts the named animation, or clears it for zero props.
	SetAnimation(props AnimationProps) error
}

// An AnimationReplacer swaps a running animation for another in one step.
// Styles that implement it are restarted without a deferred apply.
type AnimationReplacer interface {
	ReplaceAnimation(props AnimationProps) error
}

// A RuleSink accepts generated keyframe rules and makes them available to
// Style targets under the given name.
type RuleSink interface {
	AddRules(name, text string) error
}

// A Setter writes a value in place of Target.SetAttribute.
type Setter func(target Target, name string, v timeline.Value) error
