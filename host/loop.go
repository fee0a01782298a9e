package host

import (
	"context"
	"time"
)

// Loop is a Scheduler backed by one goroutine. Other goroutines hand it work
// with Post or Call.
type Loop struct {
	tasks chan func()
	done  chan struct{}
}

// NewLoop creates a loop with room for queue pending tasks.
func NewLoop(queue int) *Loop {
	l := new(Loop)
	l.tasks = make(chan func(), queue)
	l.done = make(chan struct{})
	return l
}

// Run executes tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Post queues fn to run on the loop. It is dropped if the loop has exited.
func (l *Loop) Post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.done:
	}
}

// Call runs fn on the loop and waits for its result.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	l.Post(func() {
		result <- fn()
	})
	select {
	case err := <-result:
		return err
	case <-l.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Now implements Scheduler.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// AfterFunc implements Scheduler. cancel must be called from the loop.
func (l *Loop) AfterFunc(d time.Duration, fn func()) func() {
	cancelled := false
	t := time.AfterFunc(d, func() {
		l.Post(func() {
			if !cancelled {
				fn()
			}
		})
	})
	return func() {
		cancelled = true
		t.Stop()
	}
}

// Every implements Scheduler. cancel must be called from the loop.
func (l *Loop) Every(d time.Duration, fn func(now time.Time)) func() {
	ticker := time.NewTicker(d)
	quit := make(chan struct{})
	cancelled := false

	go func() {
		for {
			select {
			case now := <-ticker.C:
				l.Post(func() {
					if !cancelled {
						fn(now)
					}
				})
			case <-quit:
				return
			case <-l.done:
				return
			}
		}
	}()

	return func() {
		if cancelled {
			return
		}
		cancelled = true
		ticker.Stop()
		close(quit)
	}
}
