package stream

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// A Strip is a run of pixels divided into named segments. Pixels outside
// every segment show the background colour.
type Strip struct {
	pixels     int
	background colorful.Color
	segments   []*Segment
	byName     map[string]*Segment
	dirty      bool
}

// NewStrip creates a strip of n pixels with no segments.
func NewStrip(n int) (*Strip, error) {
	if n <= 0 || n > MaxPixels {
		return nil, fmt.Errorf("strip length %d out of range", n)
	}
	s := new(Strip)
	s.pixels = n
	s.byName = make(map[string]*Segment)
	s.dirty = true
	return s, nil
}

// Len returns the number of pixels.
func (s *Strip) Len() int {
	return s.pixels
}

// SetBackground sets the colour of unsegmented pixels.
func (s *Strip) SetBackground(c colorful.Color) {
	s.background = c
	s.dirty = true
}

// AddSegment claims pixels [start, start+length) under name. Segments may
// overlap; later ones draw over earlier ones.
func (s *Strip) AddSegment(name string, start, length int) (*Segment, error) {
	if name == "" {
		return nil, fmt.Errorf("segment has no name")
	}
	if _, ok := s.byName[name]; ok {
		return nil, fmt.Errorf("duplicate segment %q", name)
	}
	if start < 0 || length <= 0 || start+length > s.pixels {
		return nil, fmt.Errorf("segment %q [%d, %d) outside strip of %d", name, start, start+length, s.pixels)
	}

	seg := new(Segment)
	seg.strip = s
	seg.name = name
	seg.start = start
	seg.length = length
	seg.chroma = 1.0
	s.segments = append(s.segments, seg)
	s.byName[name] = seg
	s.dirty = true
	return seg, nil
}

// Segment looks up a segment by name.
func (s *Strip) Segment(name string) (*Segment, bool) {
	seg, ok := s.byName[name]
	return seg, ok
}

// Segments returns the segments in draw order.
func (s *Strip) Segments() []*Segment {
	return s.segments
}

// Member lets a scope resolve "strip.<segment>".
func (s *Strip) Member(name string) (interface{}, bool) {
	seg, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return seg, true
}

// Targets returns the segments keyed by name.
func (s *Strip) Targets() map[string]interface{} {
	targets := make(map[string]interface{}, len(s.segments))
	for _, seg := range s.segments {
		targets[seg.name] = seg
	}
	return targets
}

// Dirty reports whether anything changed since the last Render.
func (s *Strip) Dirty() bool {
	return s.dirty
}

// Render draws the strip into a new frame and marks it clean.
func (s *Strip) Render() *Frame {
	f := NewFrame(s.pixels)
	f.Fill(s.background)
	for _, seg := range s.segments {
		seg.render(f)
	}
	s.dirty = false
	return f
}
