// Package timeline holds the serialisable description of keyframed
// animations: what changes, on which target, to what value, with which
// timing curve, and when.
package timeline

import (
	"sort"

	"github.com/matt-g-everett/ledmotion/timing"
)

// A Timeline is a named collection of Animations played together.
type Timeline struct {
	name       string
	animations []*Animation
	dirty      bool
}

// New creates an empty timeline.
func New(name string) *Timeline {
	return &Timeline{name: name}
}

// Name returns the timeline name.
func (t *Timeline) Name() string {
	return t.name
}

// Animate creates an animation for target and appends it to the timeline.
func (t *Timeline) Animate(target string, repeat, alternate bool) *Animation {
	a := NewAnimation(target, repeat, alternate)
	t.AddAnimation(a)
	return a
}

// AddAnimation appends an animation.
func (t *Timeline) AddAnimation(a *Animation) *Timeline {
	t.animations = append(t.animations, a)
	t.dirty = true
	return t
}

// Animations returns the animations in insertion order.
func (t *Timeline) Animations() []*Animation {
	return t.animations
}

// RemoveAnimation removes a, if present.
func (t *Timeline) RemoveAnimation(a *Animation) *Timeline {
	for i, x := range t.animations {
		if x == a {
			t.animations = append(t.animations[:i], t.animations[i+1:]...)
			t.dirty = true
			break
		}
	}
	return t
}

// RemoveAllAnimations empties the timeline.
func (t *Timeline) RemoveAllAnimations() *Timeline {
	t.animations = nil
	t.dirty = true
	return t
}

// Duration is the latest keyframe time across all animations, in seconds.
func (t *Timeline) Duration() float64 {
	d := 0.0
	for _, a := range t.animations {
		if ad := a.Duration(); ad > d {
			d = ad
		}
	}
	return d
}

// Dirty reports whether the timeline or anything it owns changed since the
// last MarkClean.
func (t *Timeline) Dirty() bool {
	if t.dirty {
		return true
	}
	for _, a := range t.animations {
		if a.dirty() {
			return true
		}
	}
	return false
}

// MarkClean clears the dirty flags of the timeline and everything it owns.
func (t *Timeline) MarkClean() {
	t.dirty = false
	for _, a := range t.animations {
		a.markClean()
	}
}

// An Animation is one target's full set of keyframed attribute changes.
type Animation struct {
	target    string
	repeat    bool
	alternate bool
	keyframes []*Keyframe
	changed   bool
}

// NewAnimation creates an animation for the given target specifier.
func NewAnimation(target string, repeat, alternate bool) *Animation {
	return &Animation{target: target, repeat: repeat, alternate: alternate}
}

// Target returns the target specifier, resolved later against a scope.
func (a *Animation) Target() string {
	return a.target
}

// Repeat reports whether the animation repeats.
func (a *Animation) Repeat() bool {
	return a.repeat
}

// SetRepeat sets the repeat flag.
func (a *Animation) SetRepeat(repeat bool) *Animation {
	a.repeat = repeat
	a.changed = true
	return a
}

// Alternate reports whether repeats reverse direction.
func (a *Animation) Alternate() bool {
	return a.alternate
}

// SetAlternate sets the alternate flag.
func (a *Animation) SetAlternate(alternate bool) *Animation {
	a.alternate = alternate
	a.changed = true
	return a
}

// Keyframe creates a keyframe at time (seconds) and appends it.
func (a *Animation) Keyframe(time float64) *Keyframe {
	k := NewKeyframe(time)
	a.AddKeyframe(k)
	return k
}

// AddKeyframe appends a keyframe. Keyframes are not reordered.
func (a *Animation) AddKeyframe(k *Keyframe) *Animation {
	a.keyframes = append(a.keyframes, k)
	a.changed = true
	return a
}

// Keyframes returns the keyframes in insertion order.
func (a *Animation) Keyframes() []*Keyframe {
	return a.keyframes
}

// SortedKeyframes returns a copy of the keyframes in increasing time order.
// Keyframes sharing a time keep their insertion order.
func (a *Animation) SortedKeyframes() []*Keyframe {
	sorted := make([]*Keyframe, len(a.keyframes))
	copy(sorted, a.keyframes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].time < sorted[j].time
	})
	return sorted
}

// RemoveKeyframe removes k, if present.
func (a *Animation) RemoveKeyframe(k *Keyframe) *Animation {
	for i, x := range a.keyframes {
		if x == k {
			a.keyframes = append(a.keyframes[:i], a.keyframes[i+1:]...)
			a.changed = true
			break
		}
	}
	return a
}

// RemoveAllKeyframes empties the animation.
func (a *Animation) RemoveAllKeyframes() *Animation {
	a.keyframes = nil
	a.changed = true
	return a
}

// Duration is the latest keyframe time, in seconds.
func (a *Animation) Duration() float64 {
	d := 0.0
	for _, k := range a.keyframes {
		if k.time > d {
			d = k.time
		}
	}
	return d
}

func (a *Animation) dirty() bool {
	if a.changed {
		return true
	}
	for _, k := range a.keyframes {
		if k.dirty() {
			return true
		}
	}
	return false
}

func (a *Animation) markClean() {
	a.changed = false
	for _, k := range a.keyframes {
		k.markClean()
	}
}

// A Keyframe is a point in timeline-relative time holding attribute targets.
type Keyframe struct {
	time       float64
	attributes []*KeyframeAttribute
	changed    bool
}

// NewKeyframe creates a keyframe at time (seconds).
func NewKeyframe(time float64) *Keyframe {
	return &Keyframe{time: time}
}

// Time returns the keyframe time in seconds.
func (k *Keyframe) Time() float64 {
	return k.time
}

// SetTime moves the keyframe.
func (k *Keyframe) SetTime(time float64) *Keyframe {
	k.time = time
	k.changed = true
	return k
}

// Attribute appends an attribute and returns the keyframe for chaining.
// A nil value means the target's current value; a zero curve means ease.
func (k *Keyframe) Attribute(name string, value *Value, curve timing.Curve) *Keyframe {
	k.AddAttribute(NewKeyframeAttribute(name, value, curve))
	return k
}

// AddAttribute appends an attribute.
func (k *Keyframe) AddAttribute(attr *KeyframeAttribute) *Keyframe {
	k.attributes = append(k.attributes, attr)
	k.changed = true
	return k
}

// Attributes returns the attributes in insertion order.
func (k *Keyframe) Attributes() []*KeyframeAttribute {
	return k.attributes
}

// RemoveAttribute removes attr, if present.
func (k *Keyframe) RemoveAttribute(attr *KeyframeAttribute) *Keyframe {
	for i, x := range k.attributes {
		if x == attr {
			k.attributes = append(k.attributes[:i], k.attributes[i+1:]...)
			k.changed = true
			break
		}
	}
	return k
}

// RemoveAllAttributes empties the keyframe.
func (k *Keyframe) RemoveAllAttributes() *Keyframe {
	k.attributes = nil
	k.changed = true
	return k
}

func (k *Keyframe) dirty() bool {
	if k.changed {
		return true
	}
	for _, attr := range k.attributes {
		if attr.changed {
			return true
		}
	}
	return false
}

func (k *Keyframe) markClean() {
	k.changed = false
	for _, attr := range k.attributes {
		attr.changed = false
	}
}

// A KeyframeAttribute is one named property's target value and timing curve
// at a keyframe.
type KeyframeAttribute struct {
	name    string
	value   *Value
	curve   timing.Curve
	changed bool
}

// NewKeyframeAttribute creates an attribute. The zero curve becomes ease.
func NewKeyframeAttribute(name string, value *Value, curve timing.Curve) *KeyframeAttribute {
	if curve.IsZero() {
		curve = timing.Ease
	}
	return &KeyframeAttribute{name: name, value: value, curve: curve}
}

// Name returns the attribute name.
func (a *KeyframeAttribute) Name() string {
	return a.name
}

// SetName renames the attribute.
func (a *KeyframeAttribute) SetName(name string) *KeyframeAttribute {
	a.name = name
	a.changed = true
	return a
}

// Value returns the literal value, if one is set.
func (a *KeyframeAttribute) Value() (Value, bool) {
	if a.value == nil {
		return Value{}, false
	}
	return *a.value, true
}

// SetValue sets the literal value. nil means "use the current value".
func (a *KeyframeAttribute) SetValue(value *Value) *KeyframeAttribute {
	a.value = value
	a.changed = true
	return a
}

// Curve returns the timing curve.
func (a *KeyframeAttribute) Curve() timing.Curve {
	return a.curve
}

// SetCurve sets the timing curve.
func (a *KeyframeAttribute) SetCurve(curve timing.Curve) *KeyframeAttribute {
	if curve.IsZero() {
		curve = timing.Ease
	}
	a.curve = curve
	a.changed = true
	return a
}
