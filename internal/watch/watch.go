// Package watch rebuilds the structure index whenever source files under a
// directory change.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/phobologic/typelens/internal/discover"
	"github.com/phobologic/typelens/internal/lang"
	"github.com/phobologic/typelens/internal/logging"
)

// DefaultDebounce is used when Watcher.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// RebuildFunc rebuilds from scratch. An error is logged and watching
// continues.
type RebuildFunc func(ctx context.Context) error

// Watcher runs Rebuild once at start and again after each burst of source
// file changes below Root.
type Watcher struct {
	Root     string
	Options  discover.Options
	Debounce time.Duration
	Logger   *zap.SugaredLogger
	Rebuild  RebuildFunc
}

// Run blocks until ctx is done or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	log := w.Logger
	if log == nil {
		log = logging.Nop()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	info, err := os.Stat(w.Root)
	if err != nil {
		return errors.Wrap(err, "watch root")
	}
	if !info.IsDir() {
		return errors.Newf("%s: not a directory", w.Root)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating file watcher")
	}
	defer fw.Close()

	dirs, err := discover.Dirs(w.Root, w.Options)
	if err != nil {
		return errors.Wrapf(err, "listing directories under %s", w.Root)
	}
	for _, d := range dirs {
		if err := fw.Add(d); err != nil {
			return errors.Wrapf(err, "watching %s", d)
		}
	}
	log.Infow("watching", "root", w.Root, "directories", len(dirs))

	w.rebuild(ctx, log)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.addIfDir(fw, event, log) || relevant(event) {
				log.Debugw("change detected", "file", event.Name, "op", event.Op.String())
				if pending && !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
				pending = true
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warnw("watcher error", "error", err)

		case <-timer.C:
			pending = false
			w.rebuild(ctx, log)
		}
	}
}

func (w *Watcher) rebuild(ctx context.Context, log *zap.SugaredLogger) {
	if w.Rebuild == nil {
		return
	}
	if err := w.Rebuild(ctx); err != nil {
		log.Errorw("rebuild failed", "error", err)
	}
}

// addIfDir starts watching directories created after Run began. It reports
// whether the event was such a directory.
func (w *Watcher) addIfDir(fw *fsnotify.Watcher, event fsnotify.Event, log *zap.SugaredLogger) bool {
	if !event.Has(fsnotify.Create) {
		return false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.IsDir() {
		return false
	}
	if discover.SkipDir(filepath.Base(event.Name), w.Options) {
		return false
	}
	dirs, err := discover.Dirs(event.Name, w.Options)
	if err != nil {
		log.Warnw("cannot list new directory", "dir", event.Name, "error", err)
		return true
	}
	for _, d := range dirs {
		if err := fw.Add(d); err != nil {
			log.Warnw("cannot watch new directory", "dir", d, "error", err)
		}
	}
	return true
}

// relevant reports whether the event touches a supported source file.
func relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	return lang.ForPath(event.Name) != nil
}
