// Copyright (c) 2025 Justin Cranford

package scanner

import (
	"context"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceWindow is how long Watch waits after the last event on a
// path before invoking the callback, coalescing the burst of events a
// single file write typically produces (spec §4.9, mirroring the
// original's 500ms debouncer timeout).
const DebounceWindow = 500 * time.Millisecond

// WatchCallback is invoked once per debounced, filtered, supported
// file create-or-write event: the discovered path and the name of the
// ImportSource that owns it.
type WatchCallback func(path, sourceName string)

// Watch blocks, watching every enabled local source for created or
// written files and invoking callback for each one that passes the source's
// include/exclude filters and has a supported format, until ctx is
// canceled (spec §4.9's watch mode). Email sources are not watched
// here; they're polled by the scheduler that calls Scan.
func (s *MultiSourceScanner) Watch(ctx context.Context, callback WatchCallback) error {
	if len(s.locals) == 0 {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	pathToSource := map[string]localSource{}
	for _, src := range s.locals {
		if err := addWatches(watcher, src); err != nil {
			continue
		}
		pathToSource[src.path] = src
	}

	if len(pathToSource) == 0 {
		<-ctx.Done()
		return nil
	}

	debouncer := newDebouncer(DebounceWindow, func(path string) {
		src, ok := findOwningSource(pathToSource, path)
		if !ok {
			return
		}
		if isInArchiveDir(path) {
			return
		}
		if !src.spec.Recursive && depthBelow(src.path, path) > 1 {
			return
		}
		if !s.matchesFilters(filepath.Base(path), src.spec) {
			return
		}
		ext := extOf(path)
		if s.formats != nil && !s.formats.Supports(ext) {
			return
		}
		callback(path, src.name)
	})
	defer debouncer.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				debouncer.trigger(event.Name)
			}
		case <-watcher.Errors:
			continue
		}
	}
}

// addWatches registers src's directory, and every subdirectory when
// src is recursive (fsnotify, unlike the original's notify crate,
// does not watch subtrees automatically).
func addWatches(watcher *fsnotify.Watcher, src localSource) error {
	if !src.spec.Recursive {
		return watcher.Add(src.path)
	}
	return filepath.WalkDir(src.path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr
		}
		if d.IsDir() {
			_ = watcher.Add(path)
		}
		return nil
	})
}

func findOwningSource(pathToSource map[string]localSource, path string) (localSource, bool) {
	for root, src := range pathToSource {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			continue
		}
		if filepath.IsLocal(rel) {
			return src, true
		}
	}
	return localSource{}, false
}

func extOf(path string) string {
	ext := filepath.Ext(path)
	if len(ext) > 0 {
		return ext[1:]
	}
	return ""
}

// debouncer coalesces repeated triggers for the same path within
// window into a single fire call.
type debouncer struct {
	window time.Duration
	fire   func(path string)

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

func newDebouncer(window time.Duration, fire func(path string)) *debouncer {
	return &debouncer{window: window, fire: fire, timers: map[string]*time.Timer{}}
}

func (d *debouncer) trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if t, ok := d.timers[path]; ok {
		t.Stop()
	}
	d.timers[path] = time.AfterFunc(d.window, func() { d.fire(path) })
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for _, t := range d.timers {
		t.Stop()
	}
}
