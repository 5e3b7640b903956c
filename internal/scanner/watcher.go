package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher turns raw file-system events under the library root into rescan
// triggers. A copy of a large library produces thousands of events; the
// watcher debounces them into one trigger per quiet period.
type Watcher struct {
	root     string
	debounce time.Duration
	fsw      *fsnotify.Watcher
	rescans  chan struct{}
	logger   *slog.Logger
}

// NewWatcher creates a watcher over root and all its subdirectories.
func NewWatcher(root string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:     root,
		debounce: debounce,
		fsw:      fsw,
		rescans:  make(chan struct{}, 1),
		logger:   logger,
	}
	if err := w.addRecursive(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Rescans delivers one signal per settled burst of file-system changes.
func (w *Watcher) Rescans() <-chan struct{} { return w.rescans }

// Run processes events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			// New directories must be watched before files land in them
			if event.Op.Has(fsnotify.Create) {
				if err := w.addRecursive(event.Name); err == nil {
					w.logger.Debug("watching new directory", "path", event.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(w.debounce)
			}

		case <-fire:
			timer = nil
			fire = nil
			select {
			case w.rescans <- struct{}{}:
			default:
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// relevant filters out events that cannot change the catalog.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op.Has(fsnotify.Chmod) {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	if ext == "" {
		return true // directory create/remove
	}
	_, ok := videoExtensions[ext]
	return ok
}

// addRecursive watches path and every directory below it. A non-directory
// path is ignored.
func (w *Watcher) addRecursive(path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && p != path {
			return fs.SkipDir
		}
		return w.fsw.Add(p)
	})
}
