package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/matt-g-everett/ledmotion/timeline"
	"go.uber.org/zap"
)

// IsTimelineFile reports whether path has a timeline extension.
func IsTimelineFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// ReadFile decodes the timeline at path, choosing JSON or YAML by extension.
func ReadFile(path string) (*timeline.Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tl *timeline.Timeline
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		tl, err = timeline.Parse(data)
	case ".yaml", ".yml":
		tl, err = timeline.ParseYAML(data)
	default:
		return nil, fmt.Errorf("%s: unsupported timeline file type", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tl, nil
}

// LoadFile reads path and adds the timeline it holds.
func (l *Library) LoadFile(path string) (*timeline.Timeline, error) {
	tl, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := l.add(tl, path); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tl, nil
}

// LoadDir loads every timeline file in dir. Files that fail are skipped and
// their errors returned together.
func (l *Library) LoadDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	var errs []error
	for _, de := range entries {
		if de.IsDir() || !IsTimelineFile(de.Name()) {
			continue
		}
		tl, err := l.LoadFile(filepath.Join(dir, de.Name()))
		if err != nil {
			l.log.Warn("skipping timeline file", zap.String("file", de.Name()), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		names = append(names, tl.Name())
	}
	sort.Strings(names)
	return names, errors.Join(errs...)
}

// forget removes whatever timeline was loaded from path.
func (l *Library) forget(path string) {
	for name, e := range l.entries {
		if e.source == path {
			e.seq.Stop()
			delete(l.entries, name)
			l.log.Info("timeline removed", zap.String("timeline", name), zap.String("source", path))
		}
	}
}
