package host

import (
	"time"
)

type manualTimer struct {
	at        time.Time
	every     time.Duration
	seq       int
	fn        func(now time.Time)
	cancelled bool
}

// Manual is a deterministic host for tests. Time only moves when Advance is
// called and frames only run when Frame is called.
type Manual struct {
	now    time.Time
	seq    int
	timers []*manualTimer
	frames []func(now time.Time)
}

// NewManual creates a manual host whose clock starts at start.
func NewManual(start time.Time) *Manual {
	m := new(Manual)
	m.now = start
	return m
}

// Now implements Scheduler.
func (m *Manual) Now() time.Time {
	return m.now
}

// AfterFunc implements Scheduler.
func (m *Manual) AfterFunc(d time.Duration, fn func()) func() {
	t := m.add(d, 0, func(time.Time) { fn() })
	return func() { t.cancelled = true }
}

// Every implements Scheduler.
func (m *Manual) Every(d time.Duration, fn func(now time.Time)) func() {
	if d <= 0 {
		d = time.Millisecond
	}
	t := m.add(d, d, fn)
	return func() { t.cancelled = true }
}

// RequestFrame implements FrameRequester.
func (m *Manual) RequestFrame(fn func(now time.Time)) {
	m.frames = append(m.frames, fn)
}

// PendingFrames returns the number of outstanding frame requests.
func (m *Manual) PendingFrames() int {
	return len(m.frames)
}

// Pending returns the number of live timers and intervals.
func (m *Manual) Pending() int {
	n := 0
	for _, t := range m.timers {
		if !t.cancelled {
			n++
		}
	}
	return n
}

func (m *Manual) add(d, every time.Duration, fn func(time.Time)) *manualTimer {
	m.seq++
	t := &manualTimer{at: m.now.Add(d), every: every, seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the clock forward by d, firing due timers and intervals in
// time order. Timers scheduled by those callbacks fire too if they fall due
// within d.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		next := m.nextDue(target)
		if next == nil {
			break
		}
		if next.at.After(m.now) {
			m.now = next.at
		}
		if next.every > 0 {
			next.at = next.at.Add(next.every)
			m.seq++
			next.seq = m.seq
		} else {
			next.cancelled = true
		}
		next.fn(m.now)
	}
	m.now = target
	m.compact()
}

// Frame runs the frame callbacks requested so far. Callbacks requested while
// running belong to the next frame.
func (m *Manual) Frame() int {
	frames := m.frames
	m.frames = nil
	for _, fn := range frames {
		fn(m.now)
	}
	return len(frames)
}

// Step advances the clock by d and then runs one frame.
func (m *Manual) Step(d time.Duration) int {
	m.Advance(d)
	return m.Frame()
}

func (m *Manual) nextDue(target time.Time) *manualTimer {
	var best *manualTimer
	for _, t := range m.timers {
		if t.cancelled || t.at.After(target) {
			continue
		}
		if best == nil || t.at.Before(best.at) || (t.at.Equal(best.at) && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (m *Manual) compact() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	m.timers = live
}
