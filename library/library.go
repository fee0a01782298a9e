// Package library keeps the named timelines that can be played on a strip.
// A Library is not safe for concurrent use; drive it from the host loop.
package library

import (
	"errors"
	"fmt"
	"sort"

	"github.com/matt-g-everett/ledmotion/engine"
	"github.com/matt-g-everett/ledmotion/scope"
	"github.com/matt-g-everett/ledmotion/timeline"
	"go.uber.org/zap"
)

var (
	ErrNotFound = errors.New("timeline not found")
	ErrUnnamed  = errors.New("timeline has no name")
)

// Status summarises one timeline.
type Status struct {
	Name     string  `json:"name"`
	Duration float64 `json:"duration"`
	Playing  bool    `json:"playing"`
	Source   string  `json:"source,omitempty"`
}

type entry struct {
	seq    *engine.Sequence
	source string
}

// Library maps timeline names to prepared sequences.
type Library struct {
	engine  *engine.Engine
	scope   *scope.Scope
	log     *zap.Logger
	entries map[string]*entry
}

// New creates an empty library playing on e with targets from sc.
func New(e *engine.Engine, sc *scope.Scope, log *zap.Logger) *Library {
	if log == nil {
		log = zap.NewNop()
	}
	l := new(Library)
	l.engine = e
	l.scope = sc
	l.log = log
	l.entries = make(map[string]*entry)
	return l
}

// Add prepares tl and stores it under its name. A timeline already stored
// under that name is replaced; if it was playing, the new one starts in its
// place.
func (l *Library) Add(tl *timeline.Timeline) error {
	return l.add(tl, "")
}

func (l *Library) add(tl *timeline.Timeline, source string) error {
	if tl.Name() == "" {
		return ErrUnnamed
	}
	seq, err := engine.NewSequence(l.engine, tl, l.scope)
	if err != nil {
		return fmt.Errorf("timeline %q: %w", tl.Name(), err)
	}

	wasPlaying := false
	if old, ok := l.entries[tl.Name()]; ok {
		wasPlaying = old.seq.Playing()
		old.seq.Stop()
	}
	l.entries[tl.Name()] = &entry{seq: seq, source: source}
	l.log.Info("timeline added",
		zap.String("timeline", tl.Name()),
		zap.Float64("duration", tl.Duration()),
		zap.String("source", source))

	if wasPlaying {
		return seq.Play(l.done(tl.Name()))
	}
	return nil
}

// Remove stops and forgets the named timeline.
func (l *Library) Remove(name string) error {
	e, ok := l.entries[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	e.seq.Stop()
	delete(l.entries, name)
	l.log.Info("timeline removed", zap.String("timeline", name))
	return nil
}

// Get returns the named timeline.
func (l *Library) Get(name string) (*timeline.Timeline, bool) {
	e, ok := l.entries[name]
	if !ok {
		return nil, false
	}
	return e.seq.Timeline(), true
}

// Play starts the named timeline from the beginning. onComplete may be nil.
func (l *Library) Play(name string, onComplete func(error)) error {
	e, ok := l.entries[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	done := l.done(name)
	return e.seq.Play(func(err error) {
		done(err)
		if onComplete != nil {
			onComplete(err)
		}
	})
}

func (l *Library) done(name string) func(error) {
	return func(err error) {
		if err != nil {
			l.log.Error("timeline failed", zap.String("timeline", name), zap.Error(err))
			return
		}
		l.log.Debug("timeline ended", zap.String("timeline", name))
	}
}

// Stop stops the named timeline.
func (l *Library) Stop(name string) error {
	e, ok := l.entries[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	e.seq.Stop()
	return nil
}

// StopAll stops every timeline.
func (l *Library) StopAll() {
	for _, e := range l.entries {
		e.seq.Stop()
	}
}

// Names returns the stored timeline names in order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.entries))
	for name := range l.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Status reports every timeline in name order.
func (l *Library) Status() []Status {
	names := l.Names()
	out := make([]Status, 0, len(names))
	for _, name := range names {
		e := l.entries[name]
		out = append(out, Status{
			Name:     name,
			Duration: e.seq.Timeline().Duration(),
			Playing:  e.seq.Playing(),
			Source:   e.source,
		})
	}
	return out
}
