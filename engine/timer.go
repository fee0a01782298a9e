package engine

import (
	"time"

	"github.com/matt-g-everett/ledmotion/host"
)

// DefaultTickHz is the fallback frame rate when the host has no native
// frame callback.
const DefaultTickHz = 60

// A FrameFunc is called once per frame and reports whether it needs
// another frame.
type FrameFunc func(now time.Time) bool

// Timer drives its callbacks once per frame and suspends itself when none of
// them need another frame. It never has more than one frame outstanding.
type Timer struct {
	host      host.Scheduler
	frames    host.FrameRequester
	interval  time.Duration
	callbacks []FrameFunc

	running bool
	pending bool
	cancel  func()
}

// NewTimer creates a stopped timer. Hosts implementing host.FrameRequester
// drive it frame by frame; others tick it at hz.
func NewTimer(h host.Scheduler, hz int) *Timer {
	if hz <= 0 {
		hz = DefaultTickHz
	}
	t := new(Timer)
	t.host = h
	t.interval = time.Second / time.Duration(hz)
	if fr, ok := h.(host.FrameRequester); ok {
		t.frames = fr
	}
	return t
}

// AddCallback registers fn to run every frame, after those already added.
func (t *Timer) AddCallback(fn FrameFunc) {
	t.callbacks = append(t.callbacks, fn)
}

// Running reports whether the timer is started.
func (t *Timer) Running() bool {
	return t.running
}

// Start starts the timer if it is stopped.
func (t *Timer) Start() {
	if t.running {
		return
	}
	t.running = true
	if t.frames != nil {
		t.request()
	} else {
		t.cancel = t.host.Every(t.interval, t.tick)
	}
}

// Stop stops the timer if it is running.
func (t *Timer) Stop() {
	if !t.running {
		return
	}
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.running = false
}

func (t *Timer) request() {
	if t.pending {
		return
	}
	t.pending = true
	t.frames.RequestFrame(t.frame)
}

func (t *Timer) frame(now time.Time) {
	t.pending = false
	t.tick(now)
}

func (t *Timer) tick(now time.Time) {
	if !t.running {
		return
	}

	anyUpdating := false
	for n := 0; n < len(t.callbacks); n++ {
		if t.callbacks[n](now) {
			anyUpdating = true
		}
	}

	if !anyUpdating {
		t.Stop()
		return
	}
	if t.running && t.frames != nil {
		t.request()
	}
}
