// Package watcher reports which export files changed on disk, once the
// writes settle.
package watcher

import (
	"context"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDelay is how long a directory must stay quiet before a batch is
// reported.
const DefaultDelay = 150 * time.Millisecond

const changeOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// Watcher batches fsnotify events per file name.
type Watcher struct {
	fsw      *fsnotify.Watcher
	delay    time.Duration
	ext      string
	onChange func(names []string)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDelay overrides DefaultDelay.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) { w.delay = d }
}

// WithExt drops events for files without the extension, e.g. ".json".
func WithExt(ext string) Option {
	return func(w *Watcher) { w.ext = ext }
}

// New watches dirs. onChange gets the sorted base names of the files touched
// since the last batch.
func New(dirs []string, onChange func(names []string), opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		if err := fsw.Add(d); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}

	w := &Watcher{fsw: fsw, delay: DefaultDelay, onChange: onChange}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run blocks until ctx is done or the watcher is closed. A batch still
// pending at that point is dropped. Watch errors go to errFn when set.
func (w *Watcher) Run(ctx context.Context, errFn func(error)) {
	pending := map[string]struct{}{}
	timer := time.NewTimer(w.delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&changeOps == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if w.ext != "" && filepath.Ext(name) != w.ext {
				continue
			}
			pending[name] = struct{}{}
			timer.Reset(w.delay)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			names := make([]string, 0, len(pending))
			for n := range pending {
				names = append(names, n)
			}
			slices.Sort(names)
			pending = map[string]struct{}{}
			w.onChange(names)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if errFn != nil {
				errFn(err)
			}
		}
	}
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}
