// Package watcher reports changes to commodity CSV files.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/jgoulah/billchart/pkg/models"
)

// Watcher maps file-change events on CSV exports to commodities. Parent
// directories are watched so that editors replacing a file by rename are seen.
type Watcher struct {
	fs       *fsnotify.Watcher
	files    map[string]models.Commodity
	debounce time.Duration
	log      logrus.FieldLogger
}

// New starts watching the given commodity files
func New(files map[models.Commodity]string, debounce time.Duration, log logrus.FieldLogger) (*Watcher, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	w := &Watcher{fs: fw, files: map[string]models.Commodity{}, debounce: debounce, log: log}
	dirs := map[string]bool{}
	for kind, path := range files {
		abs, err := filepath.Abs(path)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("resolving %s: %w", path, err)
		}
		w.files[abs] = kind

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	return w, nil
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run calls handle once per changed commodity after events have been quiet for
// the debounce window. Calls are made from Run's goroutine, one at a time,
// in commodity order. Run returns when ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, handle func(models.Commodity)) error {
	pending := map[models.Commodity]bool{}
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			kind, ok := w.files[filepath.Clean(ev.Name)]
			if !ok {
				continue
			}
			w.log.WithFields(logrus.Fields{"commodity": kind, "op": ev.Op}).Debug("file changed")
			pending[kind] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			for _, kind := range models.Commodities() {
				if pending[kind] {
					delete(pending, kind)
					handle(kind)
				}
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("file watcher error")
		}
	}
}
