package library

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// A file must be quiet this long before it is reloaded.
const settleTime = 100 * time.Millisecond

// Watch reloads timeline files in dir as they change, until ctx is done.
// Reloads are handed to post, which must run them on the goroutine that
// owns l.
func (l *Library) Watch(ctx context.Context, dir string, post func(func())) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	l.log.Info("watching timelines", zap.String("dir", dir))

	pending := make(map[string]time.Time)
	checkTicker := time.NewTicker(settleTime / 2)
	defer checkTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !IsTimelineFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				pending[event.Name] = time.Now()
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				delete(pending, event.Name)
				path := event.Name
				post(func() { l.forget(path) })
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.log.Warn("watcher error", zap.Error(err))

		case now := <-checkTicker.C:
			for path, changed := range pending {
				if now.Sub(changed) < settleTime {
					continue
				}
				delete(pending, path)
				p := path
				post(func() {
					if _, err := l.LoadFile(p); err != nil {
						l.log.Warn("reloading timeline", zap.String("file", p), zap.Error(err))
					}
				})
			}
		}
	}
}
