package stream

import (
	"errors"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/matt-g-everett/ledmotion/engine"
	"github.com/matt-g-everett/ledmotion/timeline"
)

// Segment attributes.
const (
	AttrHue       = "hue"
	AttrChroma    = "chroma"
	AttrLuminance = "luminance"
	AttrGradient  = "gradient"
)

var ErrUnknownAttribute = errors.New("unknown segment attribute")

// AnimationDescriptor tells an ledrx device to run, or clear, a keyframe
// rule on a range of pixels. An empty Name clears the range.
type AnimationDescriptor struct {
	Segment  string  `json:"segment"`
	Start    int     `json:"start"`
	Length   int     `json:"length"`
	Name     string  `json:"name"`
	Delay    float64 `json:"delay"`
	Duration float64 `json:"duration"`
	Timing   string  `json:"timing"`
	Seq      uint64  `json:"seq"`
}

// An AnimationPublisher delivers animation descriptors to the device.
type AnimationPublisher interface {
	PublishAnimation(d AnimationDescriptor) error
}

// A Segment is a contiguous run of pixels drawn in one HCL colour, or along a
// gradient. It can be animated frame by frame or, with a publisher, by the
// device itself.
type Segment struct {
	strip  *Strip
	name   string
	start  int
	length int

	hue       float64
	chroma    float64
	luminance float64
	position  float64
	gradient  GradientTable

	publisher AnimationPublisher
	animation engine.AnimationProps
	seq       uint64
}

// Name returns the segment name.
func (s *Segment) Name() string { return s.name }

// Start returns the index of the first pixel.
func (s *Segment) Start() int { return s.start }

// Length returns the number of pixels.
func (s *Segment) Length() int { return s.length }

// SetGradient draws the segment along g, offset by the gradient attribute.
// A nil table draws a flat hue.
func (s *Segment) SetGradient(g GradientTable) {
	s.gradient = g
	s.strip.dirty = true
}

// SetPublisher routes SetAnimation to p.
func (s *Segment) SetPublisher(p AnimationPublisher) {
	s.publisher = p
}

// Animation returns the natively running animation, if any.
func (s *Segment) Animation() engine.AnimationProps {
	return s.animation
}

func (s *Segment) field(name string) (*float64, bool) {
	switch name {
	case AttrHue:
		return &s.hue, true
	case AttrChroma:
		return &s.chroma, true
	case AttrLuminance:
		return &s.luminance, true
	case AttrGradient:
		return &s.position, true
	}
	return nil, false
}

// Attribute implements engine.Target.
func (s *Segment) Attribute(name string) (timeline.Value, bool) {
	p, ok := s.field(name)
	if !ok {
		return timeline.Value{}, false
	}
	return timeline.Number(*p), true
}

// SetAttribute implements engine.Target. Values must be unitless numbers.
func (s *Segment) SetAttribute(name string, v timeline.Value) error {
	p, ok := s.field(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
	f, unit, err := engine.ParseNumeric(v)
	if err != nil {
		return err
	}
	if unit != "" {
		return fmt.Errorf("%w: %s takes no unit, got %q", engine.ErrUnsupportedAttribute, name, v)
	}
	if *p != f {
		*p = f
		s.strip.dirty = true
	}
	return nil
}

// ComputedAttribute implements engine.Style. The device does not report
// progress, so this is the last value written.
func (s *Segment) ComputedAttribute(name string) (timeline.Value, bool) {
	return s.Attribute(name)
}

// SetAnimation implements engine.Style.
func (s *Segment) SetAnimation(props engine.AnimationProps) error {
	s.animation = props
	return s.publish(props)
}

// ReplaceAnimation implements engine.AnimationReplacer. Every descriptor
// carries a fresh sequence number, so the device restarts even when the name
// is unchanged.
func (s *Segment) ReplaceAnimation(props engine.AnimationProps) error {
	return s.SetAnimation(props)
}

func (s *Segment) publish(props engine.AnimationProps) error {
	if s.publisher == nil {
		return nil
	}
	s.seq++
	return s.publisher.PublishAnimation(AnimationDescriptor{
		Segment:  s.name,
		Start:    s.start,
		Length:   s.length,
		Name:     props.Name,
		Delay:    props.Delay,
		Duration: props.Duration,
		Timing:   props.Timing,
		Seq:      s.seq,
	})
}

func (s *Segment) render(f *Frame) {
	hue := math.Mod(s.hue, 360)
	if hue < 0 {
		hue += 360
	}
	flat := colorful.Hcl(hue, s.chroma, s.luminance)
	for i := 0; i < s.length; i++ {
		c := flat
		if s.gradient != nil {
			t := s.position + float64(i)/float64(s.length)
			c = s.gradient.GetColor(t, s.chroma, s.luminance)
		}
		f.SetPixel(s.start+i, c)
	}
}
