// Package watch reports a save field every time the game rewrites the file.
//
// The usual use is confirming a discovered offset: start the watcher on the
// money field, spend or earn money in the game, save, and check that the
// reported value follows what the game shows. The directory is watched
// rather than the file because games commonly save by writing a new file and
// renaming it over the old one, which would drop a watch on the file itself.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jpl-au/savedit"
)

// Reading is the field value after one change to the save.
type Reading struct {
	Path      string
	Field     string
	Value     any
	Candidate bool
	Hash      string
	At        time.Time
	Err       error
}

func (r Reading) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s %s: %v", r.At.Format(time.TimeOnly), r.Field, r.Err)
	}
	tag := ""
	if r.Candidate {
		tag = " (candidate)"
	}
	return fmt.Sprintf("%s %s = %v%s", r.At.Format(time.TimeOnly), r.Field, r.Value, tag)
}

// Watcher reloads one save on change and reads one field from it.
type Watcher struct {
	path   string
	field  string
	config savedit.Config
	log    *savedit.Logger
	last   string
}

// New returns a watcher for field in the save at path. config is used for
// every reload.
func New(path, field string, config savedit.Config) *Watcher {
	log := config.Logger
	if log == nil {
		log = savedit.NoopLogger()
	}
	return &Watcher{
		path:   filepath.Clean(path),
		field:  field,
		config: config,
		log:    log.WithPath(path),
	}
}

// Run reports the current value, then a new Reading after every change
// to the save, until ctx is cancelled. Changes that leave the content
// identical are not reported.
func (w *Watcher) Run(ctx context.Context, report func(Reading)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	w.emit(report)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.emit(report)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) emit(report func(Reading)) {
	r := w.read()
	if r.Err == nil {
		if r.Hash == w.last {
			return
		}
		w.last = r.Hash
	}
	report(r)
}

func (w *Watcher) read() Reading {
	r := Reading{Path: w.path, Field: w.field, At: time.Now()}
	doc, err := savedit.Open(w.path, w.config)
	if err != nil {
		r.Err = err
		return r
	}
	r.Hash = doc.Hash()
	res, err := doc.Resolve(w.field)
	if err != nil {
		if errors.Is(err, savedit.ErrOutOfBounds) {
			// A partially written file is shorter than the field; the
			// next write event will have the rest.
			w.log.Debug("field beyond end of save", "field", w.field, "size", doc.Len())
		}
		r.Err = err
		return r
	}
	r.Value = res.Value
	r.Candidate = res.Candidate
	return r
}
