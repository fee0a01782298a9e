package engine

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/matt-g-everett/ledmotion/host"
	"github.com/matt-g-everett/ledmotion/scope"
	"github.com/matt-g-everett/ledmotion/timeline"
	"go.uber.org/zap"
)

// Backend is the execution strategy chosen for one animation.
type Backend int

const (
	// Imperative animations are interpolated by tweens every frame.
	Imperative Backend = iota
	// Declarative animations run as keyframe rules on a Style target.
	Declarative
)

func (b Backend) String() string {
	if b == Declarative {
		return "declarative"
	}
	return "imperative"
}

// PlaybackState is the prepared, runnable schedule for one timeline. It
// runs in one of three modes: tweens only, style animations only, or both.
type PlaybackState struct {
	timeline *timeline.Timeline
	host     host.Scheduler
	log      *zap.Logger

	duration  float64
	backends  []Backend
	tweens    []Tween
	styles    []*styleAnimation
	needsTick bool

	playing       bool
	token         uint64
	startTime     time.Time
	callback      func(error)
	cursor        int
	stylesRunning bool
	cancelTimeout func()
	cancelApply   func()

	// scheduled is true while the engine holds the state in its tick list.
	scheduled bool
}

func newPlaybackState(e *Engine, tl *timeline.Timeline, sc *scope.Scope) (*PlaybackState, error) {
	s := new(PlaybackState)
	s.timeline = tl
	s.host = e.host
	s.log = e.log
	s.duration = tl.Duration()

	for _, a := range tl.Animations() {
		obj, ok := sc.Get(a.Target())
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrTargetNotFound, a.Target())
		}

		backend := Imperative
		style, isStyle := obj.(Style)
		if isStyle && e.allowDeclarative {
			backend = Declarative
		}
		s.backends = append(s.backends, backend)

		switch backend {
		case Declarative:
			if err := s.addStyleAnimations(e, a, style); err != nil {
				return nil, fmt.Errorf("animation %q: %w", a.Target(), err)
			}
		case Imperative:
			target, ok := obj.(Target)
			if !ok {
				return nil, fmt.Errorf("%w: %q is %T", ErrUnsupportedTarget, a.Target(), obj)
			}
			if err := s.addTweens(e, a, target); err != nil {
				return nil, fmt.Errorf("animation %q: %w", a.Target(), err)
			}
		}
	}

	if len(s.tweens) > 0 {
		s.needsTick = true
		sort.SliceStable(s.tweens, func(i, j int) bool {
			return s.tweens[i].StartTime() < s.tweens[j].StartTime()
		})
	}
	return s, nil
}

// addTweens builds one tween per keyframe attribute. Each tween runs from
// the previous keyframe's time to its own.
func (s *PlaybackState) addTweens(e *Engine, a *timeline.Animation, target Target) error {
	last := make(map[string]timeline.Value)
	keyframes := a.SortedKeyframes()
	for m, k := range keyframes {
		at := k.Time()
		duration := 0.0
		if m > 0 {
			duration = at - keyframes[m-1].Time()
		}
		startTime := at - duration

		for _, attr := range k.Attributes() {
			name := attr.Name()
			current, hasCurrent := target.Attribute(name)

			to, ok := attr.Value()
			if !ok {
				if !hasCurrent {
					return fmt.Errorf("%w: %s at %vs", ErrMissingValue, name, at)
				}
				to = current
			}
			from, ok := last[name]
			if !ok {
				from = to
				if m > 0 && hasCurrent {
					from = current
				}
			}
			last[name] = to

			f, t, unit, err := numericPair(from, to)
			if err != nil {
				return fmt.Errorf("%s at %vs: %w", name, at, err)
			}
			evaluator := e.curves.Get(attr.Curve())
			s.tweens = append(s.tweens, NewNumericTween(target, name, e.setters[name],
				startTime, duration, evaluator, f, t, unit))
		}
	}
	return nil
}

// addStyleAnimations groups the animation's attributes by timing curve and
// registers one keyframe rule per group.
func (s *PlaybackState) addStyleAnimations(e *Engine, a *timeline.Animation, style Style) error {
	groups := make(map[string]*styleAnimation)
	var order []*styleAnimation

	for _, k := range a.SortedKeyframes() {
		percent := 100.0
		if s.duration > 0 {
			percent = k.Time() / s.duration * 100
		}
		for _, attr := range k.Attributes() {
			name := attr.Name()
			value, ok := attr.Value()
			if !ok {
				value, ok = style.ComputedAttribute(name)
				if !ok {
					return fmt.Errorf("%w: %s at %vs", ErrMissingValue, name, k.Time())
				}
			}

			timing := attr.Curve().String()
			group, ok := groups[timing]
			if !ok {
				group = newStyleAnimation(style, 0, s.duration, timing)
				groups[timing] = group
				order = append(order, group)
			}
			group.add(percent, name, value)
		}
	}

	for _, group := range order {
		group.finalize()
		name, err := e.sheet.Register(group.fragment)
		if err != nil {
			return err
		}
		group.props.Name = name
		s.styles = append(s.styles, group)
	}
	return nil
}

// Timeline returns the timeline the state was prepared from.
func (s *PlaybackState) Timeline() *timeline.Timeline { return s.timeline }

// Duration is the total timeline duration in seconds.
func (s *PlaybackState) Duration() float64 { return s.duration }

// NeedsTick reports whether the state has tweens to run every frame.
func (s *PlaybackState) NeedsTick() bool { return s.needsTick }

// Playing reports whether a play cycle is in progress.
func (s *PlaybackState) Playing() bool { return s.playing }

// Backend returns the strategy chosen for the i'th animation.
func (s *PlaybackState) Backend(i int) Backend { return s.backends[i] }

// Tweens returns the tweens in start-time order.
func (s *PlaybackState) Tweens() []Tween { return s.tweens }

// StyleAnimations returns the number of natively run animations.
func (s *PlaybackState) StyleAnimations() int { return len(s.styles) }

// start begins a play cycle. The caller ends any cycle in progress first.
func (s *PlaybackState) start(token uint64, callback func(error)) {
	s.playing = true
	s.token = token
	s.startTime = s.host.Now()
	s.callback = callback
	s.cursor = 0

	if len(s.styles) == 0 {
		s.stylesRunning = false
		return
	}

	s.stylesRunning = true
	s.cancelTimeout = s.host.AfterFunc(seconds(s.duration), func() {
		if s.playing && s.token == token {
			s.ended(nil)
		}
	})

	// Clearing and applying in one pass lets the backend coalesce them into a
	// no-op, so the apply waits for the next turn of the host.
	var deferred []*styleAnimation
	for _, a := range s.styles {
		replaced, err := a.replace()
		if err != nil {
			s.ended(err)
			return
		}
		if replaced {
			continue
		}
		if err := a.clear(); err != nil {
			s.ended(err)
			return
		}
		deferred = append(deferred, a)
	}
	if len(deferred) == 0 {
		return
	}
	s.cancelApply = s.host.AfterFunc(0, func() {
		if !s.playing || s.token != token {
			return
		}
		for _, a := range deferred {
			if err := a.apply(); err != nil {
				s.ended(err)
				return
			}
		}
	})
}

// tick advances the tweens to now. It reports whether the state needs
// another frame.
func (s *PlaybackState) tick(now time.Time) (bool, error) {
	if !s.playing || len(s.tweens) == 0 {
		return false, nil
	}

	t := now.Sub(s.startTime).Seconds()
	anyActive := false
	first := 0
	n := s.cursor
	for ; n < len(s.tweens); n++ {
		tween := s.tweens[n]
		if tween.StartTime() > t {
			break
		}
		active, err := tween.Tick(t)
		if err != nil {
			return false, err
		}
		if active && !anyActive {
			anyActive = true
			first = n
		}
	}

	if anyActive {
		s.cursor = first
		return true, nil
	}
	s.cursor = n
	if n < len(s.tweens) {
		return true, nil
	}

	if !s.stylesRunning {
		s.ended(nil)
	}
	return false, nil
}

// ended finishes the current play cycle and fires its callback. It does
// nothing if no cycle is in progress.
func (s *PlaybackState) ended(err error) {
	if !s.playing {
		return
	}

	callback := s.callback
	s.playing = false
	s.token = 0
	s.startTime = time.Time{}
	s.callback = nil
	s.cursor = 0

	if s.cancelTimeout != nil {
		s.cancelTimeout()
		s.cancelTimeout = nil
	}
	if s.cancelApply != nil {
		s.cancelApply()
		s.cancelApply = nil
	}

	if s.stylesRunning {
		s.stylesRunning = false
		for _, a := range s.styles {
			if clearErr := a.clear(); clearErr != nil {
				s.log.Warn("clearing style animation", zap.String("name", a.props.Name), zap.Error(clearErr))
				err = errors.Join(err, clearErr)
			}
		}
	}

	if callback != nil {
		callback(err)
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
