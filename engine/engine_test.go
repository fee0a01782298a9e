package engine

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/matt-g-everett/ledmotion/host"
	"github.com/matt-g-everett/ledmotion/scope"
	"github.com/matt-g-everett/ledmotion/timeline"
	"github.com/matt-g-everett/ledmotion/timing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2020, 12, 24, 18, 0, 0, 0, time.UTC)

type fakeTarget struct {
	attrs  map[string]timeline.Value
	writes int
	fail   error
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{attrs: make(map[string]timeline.Value)}
}

func (f *fakeTarget) Attribute(name string) (timeline.Value, bool) {
	v, ok := f.attrs[name]
	return v, ok
}

func (f *fakeTarget) SetAttribute(name string, v timeline.Value) error {
	if f.fail != nil {
		return f.fail
	}
	f.writes++
	f.attrs[name] = v
	return nil
}

type fakeStyle struct {
	fakeTarget
	events []string
}

func newFakeStyle() *fakeStyle {
	return &fakeStyle{fakeTarget: fakeTarget{attrs: make(map[string]timeline.Value)}}
}

func (f *fakeStyle) SetAttribute(name string, v timeline.Value) error {
	f.events = append(f.events, "set:"+name+"="+v.String())
	return f.fakeTarget.SetAttribute(name, v)
}

func (f *fakeStyle) ComputedAttribute(name string) (timeline.Value, bool) {
	return f.Attribute(name)
}

func (f *fakeStyle) SetAnimation(props AnimationProps) error {
	f.events = append(f.events, "anim:"+props.Name)
	return nil
}

type replacingStyle struct {
	*fakeStyle
}

func (r replacingStyle) ReplaceAnimation(props AnimationProps) error {
	r.events = append(r.events, "replace:"+props.Name)
	return nil
}

type fakeRules struct {
	names []string
	texts []string
}

func (f *fakeRules) AddRules(name, text string) error {
	f.names = append(f.names, name)
	f.texts = append(f.texts, text)
	return nil
}

// intervalHost hides the manual host's frame callback so the timer falls
// back to an interval.
type intervalHost struct {
	m *host.Manual
}

func (h intervalHost) Now() time.Time { return h.m.Now() }

func (h intervalHost) AfterFunc(d time.Duration, fn func()) func() {
	return h.m.AfterFunc(d, fn)
}

func (h intervalHost) Every(d time.Duration, fn func(now time.Time)) func() {
	return h.m.Every(d, fn)
}

type callbacks struct {
	calls []error
}

func (c *callbacks) done(err error) {
	c.calls = append(c.calls, err)
}

func fade(name, target string, from, to *timeline.Value, duration float64) *timeline.Timeline {
	tl := timeline.New(name)
	a := tl.Animate(target, false, false)
	a.Keyframe(0).Attribute("opacity", from, timing.Linear)
	a.Keyframe(duration).Attribute("opacity", to, timing.Linear)
	return tl
}

func TestOpacityTween(t *testing.T) {
	m := host.NewManual(epoch)
	e := New(m, Config{})
	box := newFakeTarget()
	sc := scope.New(nil, map[string]interface{}{"box": box})

	s, err := e.Prepare(fade("fade", "box", timeline.NumberPtr(0), timeline.NumberPtr(1), 1), sc)
	require.NoError(t, err)
	assert.True(t, s.NeedsTick())
	assert.Equal(t, Imperative, s.Backend(0))
	assert.Len(t, s.Tweens(), 2)

	var cb callbacks
	e.Play(s, cb.done)
	assert.True(t, s.Playing())
	assert.Equal(t, 1, m.PendingFrames())

	m.Step(500 * time.Millisecond)
	assert.Equal(t, timeline.Number(0.5), box.attrs["opacity"])
	assert.Empty(t, cb.calls)

	m.Step(500 * time.Millisecond)
	assert.Equal(t, timeline.Number(1), box.attrs["opacity"])
	require.Len(t, cb.calls, 1)
	assert.NoError(t, cb.calls[0])
	assert.False(t, s.Playing())
	assert.Equal(t, 0, e.Active())
	assert.False(t, e.Timer().Running())
	assert.Equal(t, 0, m.PendingFrames())
}

func TestUnitTween(t *testing.T) {
	m := host.NewManual(epoch)
	e := New(m, Config{})
	box := newFakeTarget()
	sc := scope.New(nil, map[string]interface{}{"box": box})

	tl := timeline.New("grow")
	a := tl.Animate("box", false, false)
	a.Keyframe(0).Attribute("width", timeline.StringPtr("10px"), timing.Linear)
	a.Keyframe(1).Attribute("width", timeline.StringPtr("50px"), timing.Linear)

	s, err := e.Prepare(tl, sc)
	require.NoError(t, err)
	e.Play(s, nil)

	m.Step(500 * time.Millisecond)
	assert.Equal(t, timeline.String("30px"), box.attrs["width"])
	m.Step(time.Second)
	assert.Equal(t, timeline.String("50px"), box.attrs["width"])
	assert.False(t, s.Playing())
}

func TestCurvedTweenConvergesOnFinalValue(t *testing.T) {
	m := host.NewManual(epoch)
	e := New(m, Config{})
	box := newFakeTarget()
	sc := scope.New(nil, map[string]interface{}{"box": box})

	tl := timeline.New("ease")
	a := tl.Animate("box", false, false)
	a.Keyframe(0).Attribute("x", timeline.NumberPtr(10), timing.Ease)
	a.Keyframe(2).Attribute("x", timeline.NumberPtr(50), timing.Ease)

	s, err := e.Prepare(tl, sc)
	require.NoError(t, err)
	e.Play(s, nil)

	prev := 10.0
	for s.Playing() {
		m.Step(100 * time.Millisecond)
		x := box.attrs["x"].Float()
		assert.GreaterOrEqual(t, x, prev-1e-9)
		prev = x
	}
	assert.Equal(t, 50.0, prev)
}

func TestZeroDurationTween(t *testing.T) {
	m := host.NewManual(epoch)
	e := New(m, Config{})
	box := newFakeTarget()
	sc := scope.New(nil, map[string]interface{}{"box": box})

	tl := timeline.New("snap")
	tl.Animate("box", false, false).Keyframe(0).Attribute("opacity", timeline.NumberPtr(0.25), timing.Ease)

	s, err := e.Prepare(tl, sc)
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.Duration())

	var cb callbacks
	e.Play(s, cb.done)
	m.Frame()
	assert.Equal(t, timeline.Number(0.25), box.attrs["opacity"])
	assert.Len(t, cb.calls, 1)
}

func TestGapBetweenTweensKeepsTicking(t *testing.T) {
	m := host.NewManual(epoch)
	e := New(m, Config{})
	a, b := newFakeTarget(), newFakeTarget()
	sc := scope.New(nil, map[string]interface{}{"a": a, "b": b})

	tl := timeline.New("gap")
	first := tl.Animate("a", false, false)
	first.Keyframe(0).Attribute("x", timeline.NumberPtr(0), timing.Linear)
	first.Keyframe(1).Attribute("x", timeline.NumberPtr(1), timing.Linear)
	second := tl.Animate("b", false, false)
	second.Keyframe(2).Attribute("x", timeline.NumberPtr(0), timing.Linear)
	second.Keyframe(3).Attribute("x", timeline.NumberPtr(1), timing.Linear)

	s, err := e.Prepare(tl, sc)
	require.NoError(t, err)
	e.Play(s, nil)

	m.Step(1500 * time.Millisecond)
	assert.Equal(t, timeline.Number(1), a.attrs["x"])
	_, touched := b.attrs["x"]
	assert.False(t, touched)
	assert.True(t, s.Playing())
	assert.Equal(t, 1, m.PendingFrames())

	m.Step(time.Second)
	assert.Equal(t, timeline.Number(0.5), b.attrs["x"])

	m.Step(time.Second)
	assert.Equal(t, timeline.Number(1), b.attrs["x"])
	assert.False(t, s.Playing())
}

func TestLateAttributeTweensFromCurrentValue(t *testing.T) {
	m := host.NewManual(epoch)
	e := New(m, Config{})
	box := newFakeTarget()
	box.attrs["x"] = timeline.Number(4)
	sc := scope.New(nil, map[string]interface{}{"box": box})

	tl := timeline.New("late")
	a := tl.Animate("box", false, false)
	a.Keyframe(0).Attribute("y", timeline.NumberPtr(0), timing.Linear)
	a.Keyframe(2).Attribute("x", timeline.NumberPtr(8), timing.Linear)

	s, err := e.Prepare(tl, sc)
	require.NoError(t, err)
	tween := s.Tweens()[1].(*NumericTween)
	assert.Equal(t, 4.0, tween.From())
	assert.Equal(t, 8.0, tween.To())
	assert.Equal(t, 0.0, tween.StartTime())
	assert.Equal(t, 2.0, tween.Duration())
}

func TestCursorSkipsFinishedTweens(t *testing.T) {
	m := host.NewManual(epoch)
	e := New(m, Config{})
	box := newFakeTarget()
	sc := scope.New(nil, map[string]interface{}{"box": box})

	tl := timeline.New("steps")
	a := tl.Animate("box", false, false)
	for n := 0; n <= 10; n++ {
		a.Keyframe(float64(n)).Attribute("x", timeline.NumberPtr(float64(n)), timing.Linear)
	}

	s, err := e.Prepare(tl, sc)
	require.NoError(t, err)
	require.Len(t, s.Tweens(), 11)
	e.Play(s, nil)

	for s.Playing() {
		before := box.writes
		m.Step(500 * time.Millisecond)
		assert.LessOrEqual(t, box.writes-before, 2)
	}
	assert.Equal(t, timeline.Number(10), box.attrs["x"])
}

func TestRestartFiresPreviousCallbackOnce(t *testing.T) {
	m := host.NewManual(epoch)
	e := New(m, Config{})
	box := newFakeTarget()
	sc := scope.New(nil, map[string]interface{}{"box": box})

	s, err := e.Prepare(fade("fade", "box", timeline.NumberPtr(0), timeline.NumberPtr(1), 1), sc)
	require.NoError(t, err)

	var first, second callbacks
	e.Play(s, first.done)
	m.Step(500 * time.Millisecond)

	e.Play(s, second.done)
	require.Len(t, first.calls, 1)
	assert.NoError(t, first.calls[0])
	assert.True(t, s.Playing())
	assert.Equal(t, 1, e.Active())

	m.Step(500 * time.Millisecond)
	assert.Equal(t, timeline.Number(0.5), box.attrs["opacity"])
	m.Step(500 * time.Millisecond)
	assert.Len(t, first.calls, 1)
	assert.Len(t, second.calls, 1)
	assert.False(t, s.Playing())
}

func TestRestartWhenPreemptedCallbackPlaysAgain(t *testing.T) {
	m := host.NewManual(epoch)
	e := New(m, Config{})
	box := newFakeTarget()
	sc := scope.New(nil, map[string]interface{}{"box": box})

	s, err := e.Prepare(fade("fade", "box", timeline.NumberPtr(0), timeline.NumberPtr(1), 1), sc)
	require.NoError(t, err)

	var second, third callbacks
	replayed := false
	e.Play(s, func(err error) {
		assert.NoError(t, err)
		if !replayed {
			replayed = true
			e.Play(s, third.done)
		}
	})
	m.Step(100 * time.Millisecond)

	e.Play(s, second.done)
	assert.True(t, replayed)
	require.Len(t, third.calls, 1)
	assert.NoError(t, third.calls[0])
	assert.Empty(t, second.calls)
	assert.Equal(t, uint64(3), s.token)
	assert.True(t, s.Playing())

	m.Step(5 * time.Second)
	assert.Len(t, third.calls, 1)
	require.Len(t, second.calls, 1)
	assert.NoError(t, second.calls[0])
	assert.False(t, s.Playing())
	assert.Equal(t, 0, e.Active())
}

func TestReplayFromCompletionCallback(t *testing.T) {
	m := host.NewManual(epoch)
	e := New(m, Config{})
	box := newFakeTarget()
	sc := scope.New(nil, map[string]interface{}{"box": box})

	s, err := e.Prepare(fade("fade", "box", timeline.NumberPtr(0), timeline.NumberPtr(1), 1), sc)
	require.NoError(t, err)

	loops := 0
	var again func(error)
	again = func(err error) {
		assert.NoError(t, err)
		loops++
		if loops < 3 {
			e.Play(s, again)
		}
	}
	e.Play(s, again)

	for n := 0; n < 10 && s.Playing(); n++ {
		m.Step(time.Second)
	}
	assert.Equal(t, 3, loops)
	assert.False(t, s.Playing())
	assert.Equal(t, 0, e.Active())
}

func TestStop(t *testing.T) {
	m := host.NewManual(epoch)
	e := New(m, Config{})
	box := newFakeTarget()
	sc := scope.New(nil, map[string]interface{}{"box": box})

	s, err := e.Prepare(fade("fade", "box", timeline.NumberPtr(0), timeline.NumberPtr(1), 1), sc)
	require.NoError(t, err)

	var cb callbacks
	e.Play(s, cb.done)
	m.Step(250 * time.Millisecond)
	e.Stop(s)

	require.Len(t, cb.calls, 1)
	assert.NoError(t, cb.calls[0])
	assert.False(t, s.Playing())
	assert.False(t, e.Timer().Running())

	m.Step(time.Second)
	assert.Equal(t, timeline.Number(0.25), box.attrs["opacity"])

	e.Stop(s)
	assert.Len(t, cb.calls, 1)
}

func TestTickErrorEndsOnlyFailingState(t *testing.T) {
	m := host.NewManual(epoch)
	e := New(m, Config{})
	good, bad := newFakeTarget(), newFakeTarget()
	sc := scope.New(nil, map[string]interface{}{"good": good, "bad": bad})

	s1, err := e.Prepare(fade("one", "good", timeline.NumberPtr(0), timeline.NumberPtr(1), 1), sc)
	require.NoError(t, err)
	s2, err := e.Prepare(fade("two", "bad", timeline.NumberPtr(0), timeline.NumberPtr(1), 1), sc)
	require.NoError(t, err)

	var cb1, cb2 callbacks
	e.Play(s1, cb1.done)
	e.Play(s2, cb2.done)
	assert.Equal(t, 1, m.PendingFrames())

	boom := errors.New("boom")
	bad.fail = boom
	m.Step(500 * time.Millisecond)

	require.Len(t, cb2.calls, 1)
	assert.ErrorIs(t, cb2.calls[0], boom)
	assert.False(t, s2.Playing())
	assert.True(t, s1.Playing())
	assert.Equal(t, 1, e.Active())

	m.Step(500 * time.Millisecond)
	require.Len(t, cb1.calls, 1)
	assert.NoError(t, cb1.calls[0])
}

func TestPrepareErrors(t *testing.T) {
	m := host.NewManual(epoch)
	e := New(m, Config{})
	box := newFakeTarget()
	sc := scope.New(nil, map[string]interface{}{"box": box, "number": 7})

	_, err := e.Prepare(fade("missing", "ghost", timeline.NumberPtr(0), timeline.NumberPtr(1), 1), sc)
	assert.ErrorIs(t, err, ErrTargetNotFound)

	_, err = e.Prepare(fade("number", "number", timeline.NumberPtr(0), timeline.NumberPtr(1), 1), sc)
	assert.ErrorIs(t, err, ErrUnsupportedTarget)

	_, err = e.Prepare(fade("colour", "box", timeline.StringPtr("red"), timeline.StringPtr("blue"), 1), sc)
	assert.ErrorIs(t, err, ErrUnsupportedAttribute)

	_, err = e.Prepare(fade("units", "box", timeline.StringPtr("10px"), timeline.StringPtr("2em"), 1), sc)
	assert.ErrorIs(t, err, ErrUnsupportedAttribute)

	_, err = e.Prepare(fade("novalue", "box", nil, timeline.NumberPtr(1), 1), sc)
	assert.ErrorIs(t, err, ErrMissingValue)
}

func TestUnitOf(t *testing.T) {
	for in, want := range map[string]string{
		"10px": "px",
		"1.5":  "",
		"1em":  "em",
		"50%":  "%",
		"3 s":  " s",
		"":     "",
	} {
		assert.Equal(t, want, UnitOf(in), in)
	}

	f, unit, err := ParseNumeric(timeline.String("3 s"))
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)
	assert.Equal(t, "s", unit)
}

func TestSetterOverride(t *testing.T) {
	m := host.NewManual(epoch)
	var written []string
	e := New(m, Config{Setters: map[string]Setter{
		"opacity": func(target Target, name string, v timeline.Value) error {
			written = append(written, v.String())
			return nil
		},
	}})
	box := newFakeTarget()
	sc := scope.New(nil, map[string]interface{}{"box": box})

	s, err := e.Prepare(fade("fade", "box", timeline.NumberPtr(0), timeline.NumberPtr(1), 1), sc)
	require.NoError(t, err)
	e.Play(s, nil)
	m.Step(time.Second)

	assert.Equal(t, []string{"0", "1"}, written)
	assert.Equal(t, 0, box.writes)
}

func TestTimerSingleOutstandingFrame(t *testing.T) {
	m := host.NewManual(epoch)
	e := New(m, Config{})
	box := newFakeTarget()
	sc := scope.New(nil, map[string]interface{}{"box": box})

	for n := 0; n < 3; n++ {
		s, err := e.Prepare(fade(fmt.Sprint(n), "box", timeline.NumberPtr(0), timeline.NumberPtr(1), 1), sc)
		require.NoError(t, err)
		e.Play(s, nil)
	}
	assert.Equal(t, 3, e.Active())
	assert.Equal(t, 1, m.PendingFrames())

	m.Step(100 * time.Millisecond)
	assert.Equal(t, 1, m.PendingFrames())
}

func TestTimerStopsWhenIdle(t *testing.T) {
	m := host.NewManual(epoch)
	timer := NewTimer(m, 0)
	frames := 0
	timer.AddCallback(func(now time.Time) bool {
		frames++
		return frames < 3
	})

	timer.Start()
	timer.Start()
	assert.True(t, timer.Running())
	assert.Equal(t, 1, m.PendingFrames())

	for n := 0; n < 5; n++ {
		m.Frame()
	}
	assert.Equal(t, 3, frames)
	assert.False(t, timer.Running())
	assert.Equal(t, 0, m.PendingFrames())
}

func TestTimerIntervalFallback(t *testing.T) {
	m := host.NewManual(epoch)
	e := New(intervalHost{m}, Config{TickHz: 60})
	box := newFakeTarget()
	sc := scope.New(nil, map[string]interface{}{"box": box})

	s, err := e.Prepare(fade("fade", "box", timeline.NumberPtr(0), timeline.NumberPtr(1), 1), sc)
	require.NoError(t, err)
	e.Play(s, nil)
	assert.Equal(t, 0, m.PendingFrames())
	assert.Equal(t, 1, m.Pending())

	m.Advance(500 * time.Millisecond)
	assert.InDelta(t, 0.5, box.attrs["opacity"].Float(), 1e-6)

	m.Advance(600 * time.Millisecond)
	assert.Equal(t, timeline.Number(1), box.attrs["opacity"])
	assert.False(t, s.Playing())
	assert.False(t, e.Timer().Running())
	assert.Equal(t, 0, m.Pending())
}

func glow(name, target string) *timeline.Timeline {
	tl := timeline.New(name)
	a := tl.Animate(target, false, false)
	a.Keyframe(0).Attribute("hue", timeline.NumberPtr(0), timing.Ease)
	a.Keyframe(2).Attribute("hue", timeline.NumberPtr(120), timing.Ease)
	return tl
}

func TestDeclarativePlayback(t *testing.T) {
	m := host.NewManual(epoch)
	rules := new(fakeRules)
	e := New(m, Config{AllowDeclarative: true, Rules: rules})
	seg := newFakeStyle()
	seg.attrs["hue"] = timeline.Number(30)
	sc := scope.New(nil, map[string]interface{}{"seg": seg})

	s, err := e.Prepare(glow("glow", "seg"), sc)
	require.NoError(t, err)
	assert.Equal(t, Declarative, s.Backend(0))
	assert.False(t, s.NeedsTick())
	assert.Equal(t, 1, s.StyleAnimations())
	require.Equal(t, []string{"lm_a0"}, rules.names)
	assert.Equal(t, "@keyframes \"lm_a0\" {\n"+
		"  0% {\n    hue: 0;\n  }\n"+
		"  100% {\n    hue: 120;\n  }\n"+
		"}\n", rules.texts[0])

	var cb callbacks
	e.Play(s, cb.done)
	assert.Equal(t, []string{"set:hue=30", "anim:"}, seg.events)
	assert.Equal(t, 0, m.PendingFrames())

	seg.events = nil
	m.Advance(0)
	assert.Equal(t, []string{"set:hue=120", "anim:lm_a0"}, seg.events)
	assert.True(t, s.Playing())

	seg.events = nil
	m.Advance(1999 * time.Millisecond)
	assert.True(t, s.Playing())
	assert.Empty(t, cb.calls)

	m.Advance(time.Millisecond)
	assert.False(t, s.Playing())
	assert.Equal(t, []string{"set:hue=120", "anim:"}, seg.events)
	require.Len(t, cb.calls, 1)
	assert.NoError(t, cb.calls[0])
}

func TestDeclarativeRestartIgnoresStaleTimeout(t *testing.T) {
	m := host.NewManual(epoch)
	e := New(m, Config{AllowDeclarative: true, Rules: new(fakeRules)})
	seg := newFakeStyle()
	sc := scope.New(nil, map[string]interface{}{"seg": seg})

	s, err := e.Prepare(glow("glow", "seg"), sc)
	require.NoError(t, err)

	var first, second callbacks
	e.Play(s, first.done)
	m.Advance(time.Second)
	e.Play(s, second.done)
	assert.Len(t, first.calls, 1)

	m.Advance(1500 * time.Millisecond)
	assert.True(t, s.Playing())
	assert.Empty(t, second.calls)

	m.Advance(500 * time.Millisecond)
	assert.False(t, s.Playing())
	assert.Len(t, first.calls, 1)
	assert.Len(t, second.calls, 1)
}

func TestDeclarativeStopCancelsDeferredApply(t *testing.T) {
	m := host.NewManual(epoch)
	e := New(m, Config{AllowDeclarative: true, Rules: new(fakeRules)})
	seg := newFakeStyle()
	sc := scope.New(nil, map[string]interface{}{"seg": seg})

	s, err := e.Prepare(glow("glow", "seg"), sc)
	require.NoError(t, err)
	e.Play(s, nil)
	e.Stop(s)

	seg.events = nil
	m.Advance(3 * time.Second)
	assert.Empty(t, seg.events)
	assert.Equal(t, 0, m.Pending())
}

func TestReplacerRestartsInOneStep(t *testing.T) {
	m := host.NewManual(epoch)
	e := New(m, Config{AllowDeclarative: true, Rules: new(fakeRules)})
	seg := replacingStyle{newFakeStyle()}
	sc := scope.New(nil, map[string]interface{}{"seg": seg})

	s, err := e.Prepare(glow("glow", "seg"), sc)
	require.NoError(t, err)
	e.Play(s, nil)

	assert.Equal(t, []string{"set:hue=120", "replace:lm_a0"}, seg.events)
	// Only the completion timeout is pending.
	assert.Equal(t, 1, m.Pending())
}

func TestFragmentsAreShared(t *testing.T) {
	m := host.NewManual(epoch)
	rules := new(fakeRules)
	e := New(m, Config{AllowDeclarative: true, Rules: rules})
	sc := scope.New(nil, map[string]interface{}{"a": newFakeStyle(), "b": newFakeStyle()})

	s1, err := e.Prepare(glow("one", "a"), sc)
	require.NoError(t, err)
	s2, err := e.Prepare(glow("two", "b"), sc)
	require.NoError(t, err)

	assert.Equal(t, []string{"lm_a0"}, rules.names)
	assert.Equal(t, 1, e.Stylesheet().Len())
	assert.Equal(t, s1.styles[0].props, s2.styles[0].props)
}

func TestDeclarativeNeedsRules(t *testing.T) {
	m := host.NewManual(epoch)
	e := New(m, Config{AllowDeclarative: true})
	seg := newFakeStyle()
	sc := scope.New(nil, map[string]interface{}{"seg": seg})

	s, err := e.Prepare(glow("glow", "seg"), sc)
	require.NoError(t, err)
	assert.Equal(t, Imperative, s.Backend(0))
	assert.Nil(t, e.Stylesheet())
	assert.True(t, s.NeedsTick())
}

func TestSequenceReprepares(t *testing.T) {
	m := host.NewManual(epoch)
	e := New(m, Config{})
	box := newFakeTarget()
	sc := scope.New(nil, map[string]interface{}{"box": box})

	tl := fade("fade", "box", timeline.NumberPtr(0), timeline.NumberPtr(1), 1)
	seq, err := NewSequence(e, tl, sc)
	require.NoError(t, err)
	assert.False(t, tl.Dirty())
	prepared := seq.State()

	require.NoError(t, seq.Play(nil))
	assert.Same(t, prepared, seq.State())
	m.Step(2 * time.Second)
	assert.False(t, seq.Playing())

	tl.Animations()[0].Keyframes()[1].SetTime(2)
	require.True(t, tl.Dirty())
	require.NoError(t, seq.Play(nil))
	assert.NotSame(t, prepared, seq.State())
	assert.False(t, tl.Dirty())

	m.Step(time.Second)
	assert.Equal(t, timeline.Number(0.5), box.attrs["opacity"])

	// A timeline that no longer prepares keeps the running schedule.
	running := seq.State()
	tl.Animate("ghost", false, false).Keyframe(0).Attribute("x", timeline.NumberPtr(1), timing.Linear)
	assert.ErrorIs(t, seq.Play(nil), ErrTargetNotFound)
	assert.Same(t, running, seq.State())
	assert.True(t, seq.Playing())

	seq.Stop()
	assert.False(t, seq.Playing())
}
