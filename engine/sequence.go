package engine

import (
	"github.com/matt-g-everett/ledmotion/scope"
	"github.com/matt-g-everett/ledmotion/timeline"
)

// A Sequence binds a timeline and scope to an engine for playback.
type Sequence struct {
	engine   *Engine
	timeline *timeline.Timeline
	scope    *scope.Scope
	state    *PlaybackState
}

// NewSequence prepares tl for playback on e.
func NewSequence(e *Engine, tl *timeline.Timeline, sc *scope.Scope) (*Sequence, error) {
	state, err := e.Prepare(tl, sc)
	if err != nil {
		return nil, err
	}
	tl.MarkClean()

	s := new(Sequence)
	s.engine = e
	s.timeline = tl
	s.scope = sc
	s.state = state
	return s, nil
}

// Timeline returns the sequenced timeline.
func (s *Sequence) Timeline() *timeline.Timeline {
	return s.timeline
}

// State returns the current playback state.
func (s *Sequence) State() *PlaybackState {
	return s.state
}

// Playing reports whether the sequence is playing.
func (s *Sequence) Playing() bool {
	return s.state.Playing()
}

// Play begins playback from the start. If the timeline changed since it was
// prepared it is prepared again first; a failed prepare leaves the previous
// schedule untouched.
func (s *Sequence) Play(onComplete func(error)) error {
	if s.timeline.Dirty() {
		state, err := s.engine.Prepare(s.timeline, s.scope)
		if err != nil {
			return err
		}
		s.engine.Stop(s.state)
		s.state = state
		s.timeline.MarkClean()
	}
	s.engine.Play(s.state, onComplete)
	return nil
}

// Stop ends playback.
func (s *Sequence) Stop() {
	s.engine.Stop(s.state)
}
