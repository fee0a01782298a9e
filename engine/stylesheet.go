package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/matt-g-everett/ledmotion/timeline"
)

// A Stylesheet registers keyframe rule fragments with a RuleSink, reusing
// the existing name for any fragment body it has seen before.
type Stylesheet struct {
	sink   RuleSink
	names  map[string]string
	nextID int
}

// NewStylesheet creates an empty stylesheet writing to sink.
func NewStylesheet(sink RuleSink) *Stylesheet {
	s := new(Stylesheet)
	s.sink = sink
	s.names = make(map[string]string)
	return s
}

// Register returns the animation name for fragment, adding a rule to the
// sink the first time the fragment is seen.
func (s *Stylesheet) Register(fragment string) (string, error) {
	if name, ok := s.names[fragment]; ok {
		return name, nil
	}

	name := "lm_a" + strconv.Itoa(s.nextID)
	text := "@keyframes \"" + name + "\" {\n" + fragment + "}\n"
	if err := s.sink.AddRules(name, text); err != nil {
		return "", fmt.Errorf("registering %s: %w", name, err)
	}
	s.nextID++
	s.names[fragment] = name
	return name, nil
}

// Len returns the number of distinct fragments registered.
func (s *Stylesheet) Len() int {
	return len(s.names)
}

type styleValue struct {
	name  string
	value timeline.Value
}

type styleKeyframe struct {
	percent float64
	values  []styleValue
}

// styleAnimation is one natively run animation: the attributes of one
// target that share a timing curve.
type styleAnimation struct {
	style     Style
	props     AnimationProps
	keyframes []*styleKeyframe
	final     []styleValue
	fragment  string
}

func newStyleAnimation(style Style, delay, duration float64, timing string) *styleAnimation {
	a := new(styleAnimation)
	a.style = style
	a.props = AnimationProps{Delay: delay, Duration: duration, Timing: timing}
	return a
}

func (a *styleAnimation) add(percent float64, name string, value timeline.Value) {
	for _, k := range a.keyframes {
		if k.percent == percent {
			k.values = append(k.values, styleValue{name, value})
			return
		}
	}
	a.keyframes = append(a.keyframes, &styleKeyframe{percent, []styleValue{{name, value}}})
}

// finalize orders the keyframes, records the settled value of every
// attribute and renders the rule fragment.
func (a *styleAnimation) finalize() {
	sort.SliceStable(a.keyframes, func(i, j int) bool {
		return a.keyframes[i].percent < a.keyframes[j].percent
	})

	index := make(map[string]int)
	a.final = a.final[:0]
	var b strings.Builder
	for _, k := range a.keyframes {
		b.WriteString("  " + strconv.FormatFloat(k.percent, 'f', -1, 64) + "% {\n")
		for _, v := range k.values {
			b.WriteString("    " + v.name + ": " + v.value.String() + ";\n")
			if i, ok := index[v.name]; ok {
				a.final[i] = v
			} else {
				index[v.name] = len(a.final)
				a.final = append(a.final, v)
			}
		}
		b.WriteString("  }\n")
	}
	a.fragment = b.String()
}

// clear pins every animated attribute to its on-screen value and removes
// the running animation.
func (a *styleAnimation) clear() error {
	for _, v := range a.final {
		current, ok := a.style.ComputedAttribute(v.name)
		if !ok {
			continue
		}
		if err := a.style.SetAttribute(v.name, current); err != nil {
			return fmt.Errorf("clearing %s: %w", v.name, err)
		}
	}
	return a.style.SetAnimation(AnimationProps{})
}

func (a *styleAnimation) settle() error {
	for _, v := range a.final {
		if err := a.style.SetAttribute(v.name, v.value); err != nil {
			return fmt.Errorf("settling %s: %w", v.name, err)
		}
	}
	return nil
}

// apply sets the settled values and kicks off the animation.
func (a *styleAnimation) apply() error {
	if err := a.settle(); err != nil {
		return err
	}
	return a.style.SetAnimation(a.props)
}

// replace restarts the animation in one step, if the style supports it.
func (a *styleAnimation) replace() (bool, error) {
	r, ok := a.style.(AnimationReplacer)
	if !ok {
		return false, nil
	}
	if err := a.settle(); err != nil {
		return true, err
	}
	return true, r.ReplaceAnimation(a.props)
}
