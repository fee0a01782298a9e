// Package engine plays timelines. Each animation runs either as per-frame
// tweens or, on Style targets, as keyframe rules the target runs natively.
// All playback shares one Timer. Engine methods must be called from the
// host's goroutine.
package engine

import (
	"time"

	"github.com/matt-g-everett/ledmotion/host"
	"github.com/matt-g-everett/ledmotion/scope"
	"github.com/matt-g-everett/ledmotion/timeline"
	"github.com/matt-g-everett/ledmotion/timing"
	"go.uber.org/zap"
)

// Config configures an Engine.
type Config struct {
	// AllowDeclarative routes animations on Style targets to Rules.
	AllowDeclarative bool
	// TickHz is the frame rate used when the host has no frame callback.
	TickHz int
	// Rules receives generated keyframe rules. Declarative playback is
	// disabled without it.
	Rules RuleSink
	// Setters override how individual attributes are written.
	Setters map[string]Setter
	Logger  *zap.Logger
	// Curves caches timing curve evaluators; nil uses a private cache.
	Curves *timing.Cache
}

// Engine is the animation runtime.
type Engine struct {
	host             host.Scheduler
	allowDeclarative bool
	setters          map[string]Setter
	curves           *timing.Cache
	sheet            *Stylesheet
	timer            *Timer
	log              *zap.Logger

	nextToken uint64
	tickable  []*PlaybackState
}

// New creates an engine running on h.
func New(h host.Scheduler, cfg Config) *Engine {
	e := new(Engine)
	e.host = h
	e.allowDeclarative = cfg.AllowDeclarative && cfg.Rules != nil
	e.setters = cfg.Setters
	e.curves = cfg.Curves
	if e.curves == nil {
		e.curves = timing.NewCache()
	}
	if cfg.Rules != nil {
		e.sheet = NewStylesheet(cfg.Rules)
	}
	e.log = cfg.Logger
	if e.log == nil {
		e.log = zap.NewNop()
	}
	e.timer = NewTimer(h, cfg.TickHz)
	e.timer.AddCallback(e.tick)
	return e
}

// Stylesheet returns the engine's keyframe rule cache, or nil when
// declarative playback is unavailable.
func (e *Engine) Stylesheet() *Stylesheet {
	return e.sheet
}

// Timer returns the engine's frame timer.
func (e *Engine) Timer() *Timer {
	return e.timer
}

// Active returns the number of states waiting on frames.
func (e *Engine) Active() int {
	return len(e.tickable)
}

// Prepare builds the playback state for tl with targets resolved in sc. No
// state is returned unless every animation could be scheduled.
func (e *Engine) Prepare(tl *timeline.Timeline, sc *scope.Scope) (*PlaybackState, error) {
	s, err := newPlaybackState(e, tl, sc)
	if err != nil {
		e.log.Warn("preparing timeline", zap.String("timeline", tl.Name()), zap.Error(err))
		return nil, err
	}
	e.log.Debug("prepared timeline",
		zap.String("timeline", tl.Name()),
		zap.Float64("duration", s.duration),
		zap.Int("tweens", len(s.tweens)),
		zap.Int("styleAnimations", len(s.styles)))
	return s, nil
}

// Play starts s from the beginning, restarting it if it is playing.
// onComplete, if not nil, is called once when this play ends: with nil when
// it completes, is stopped or is restarted, and with the error when a frame
// fails to write.
func (e *Engine) Play(s *PlaybackState, onComplete func(error)) {
	// A preempted callback may itself play s again, so keep ending until the
	// state is idle before taking a token.
	for s.playing {
		s.ended(nil)
	}
	e.nextToken++
	s.start(e.nextToken, onComplete)

	if s.needsTick && s.playing {
		if !s.scheduled {
			s.scheduled = true
			e.tickable = append(e.tickable, s)
		}
		e.timer.Start()
	}
}

// Stop ends s immediately and fires its callback.
func (e *Engine) Stop(s *PlaybackState) {
	if !s.playing {
		return
	}
	e.unschedule(s)
	if len(e.tickable) == 0 {
		e.timer.Stop()
	}
	// Ended last so the callback may play again.
	s.ended(nil)
}

func (e *Engine) unschedule(s *PlaybackState) {
	if !s.scheduled {
		return
	}
	s.scheduled = false
	for i, x := range e.tickable {
		if x == s {
			e.tickable = append(e.tickable[:i], e.tickable[i+1:]...)
			return
		}
	}
}

func (e *Engine) tick(now time.Time) bool {
	states := make([]*PlaybackState, len(e.tickable))
	copy(states, e.tickable)

	for _, s := range states {
		if !s.scheduled {
			continue
		}
		token := s.token
		more, err := s.tick(now)
		if err != nil {
			e.log.Error("tick failed",
				zap.String("timeline", s.timeline.Name()),
				zap.Error(err))
			e.unschedule(s)
			s.ended(err)
			continue
		}
		if !more && s.playing && s.token != token {
			// Restarted from its own completion callback.
			more = true
		}
		if !more {
			e.unschedule(s)
		}
	}
	return len(e.tickable) > 0
}
