// Package host provides the scheduling primitives the engine runs on. All
// callbacks handed to a host run on a single goroutine, one at a time.
package host

import "time"

// A Scheduler defers work onto the host's goroutine.
type Scheduler interface {
	Now() time.Time
	// AfterFunc runs fn once after d. The returned func cancels it.
	AfterFunc(d time.Duration, fn func()) (cancel func())
	// Every runs fn every d until cancelled.
	Every(d time.Duration, fn func(now time.Time)) (cancel func())
}

// A FrameRequester is a host with a native per-frame callback. Each
// RequestFrame call schedules fn for the next frame only.
type FrameRequester interface {
	RequestFrame(fn func(now time.Time))
}
