package stream

import (
	"time"

	"github.com/matt-g-everett/ledmotion/host"
	"go.uber.org/zap"
)

// DefaultFrameRate matches the ledrx refresh rate.
const DefaultFrameRate = 30

// A FrameSink receives every rendered frame.
type FrameSink interface {
	WriteFrame(f *Frame) error
}

// Streamer renders a strip at a fixed rate and fans the frames out to its
// sinks. Nothing is sent while the strip is unchanged.
type Streamer struct {
	strip    *Strip
	sinks    []FrameSink
	interval time.Duration
	log      *zap.Logger
	cancel   func()
	sent     int
}

// NewStreamer creates a stopped Streamer.
func NewStreamer(strip *Strip, frameRate int, log *zap.Logger, sinks ...FrameSink) *Streamer {
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := new(Streamer)
	s.strip = strip
	s.sinks = sinks
	s.interval = time.Second / time.Duration(frameRate)
	s.log = log
	return s
}

// AddSink adds a sink. Call it from the host goroutine.
func (s *Streamer) AddSink(sink FrameSink) {
	s.sinks = append(s.sinks, sink)
}

// Sent returns the number of frames sent.
func (s *Streamer) Sent() int {
	return s.sent
}

// SendFrame renders and sends the strip if it changed. A failing sink is
// logged and does not stop the others.
func (s *Streamer) SendFrame() {
	if !s.strip.Dirty() {
		return
	}
	f := s.strip.Render()
	for _, sink := range s.sinks {
		if err := sink.WriteFrame(f); err != nil {
			s.log.Warn("sending frame", zap.Error(err))
		}
	}
	s.sent++
}

// Run sends frames on h until Stop is called.
func (s *Streamer) Run(h host.Scheduler) {
	if s.cancel != nil {
		return
	}
	s.cancel = h.Every(s.interval, func(time.Time) {
		s.SendFrame()
	})
}

// Stop stops sending frames.
func (s *Streamer) Stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
