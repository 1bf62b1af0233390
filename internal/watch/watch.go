package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dgallion1/mdpage/internal/pipeline"
)

// DefaultDebounce is the quiet period before a burst of changes triggers.
const DefaultDebounce = 300 * time.Millisecond

// Watcher calls Trigger after supported documents under Root are created,
// written, removed or renamed. Navigation depends on the whole tree, so every
// change triggers a full workspace export.
type Watcher struct {
	Root     string
	Debounce time.Duration
	Trigger  func(ctx context.Context) error
	Log      *slog.Logger

	ready chan struct{}
}

func New(root string, debounce time.Duration, trigger func(ctx context.Context) error, log *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		Root:     root,
		Debounce: debounce,
		Trigger:  trigger,
		Log:      log,
		ready:    make(chan struct{}),
	}
}

// Ready is closed once the initial directory tree is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled. Trigger errors are logged and do not
// stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.Root); err != nil {
		return err
	}
	close(w.ready)
	w.Log.Info("watching workspace", "root", w.Root, "debounce", w.Debounce)

	timer := time.NewTimer(w.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !hidden(ev.Name) {
					if err := w.addTree(fw, ev.Name); err != nil {
						w.Log.Warn("cannot watch directory", "dir", ev.Name, "error", err)
					}
					continue
				}
			}
			if !relevant(ev) {
				continue
			}
			w.Log.Debug("document changed", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(w.Debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.Log.Warn("watch error", "error", err)

		case <-timer.C:
			w.Log.Info("re-exporting workspace", "root", w.Root)
			if err := w.Trigger(ctx); err != nil {
				w.Log.Error("re-export failed", "error", err)
			}
		}
	}
}

// addTree watches dir and every non-hidden directory below it.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && hidden(p) {
			return filepath.SkipDir
		}
		if err := fw.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return pipeline.IsSupported(ev.Name) && !strings.HasPrefix(filepath.Base(ev.Name), ".")
}

func hidden(p string) bool {
	return strings.HasPrefix(filepath.Base(p), ".")
}
