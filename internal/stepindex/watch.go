package stepindex

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"stepload/internal/logging"
)

// Watcher clears the index cache whenever a step file under the builder's
// root is created, written, renamed or removed.
type Watcher struct {
	builder  *Builder
	root     string
	watcher  *fsnotify.Watcher
	onChange func(path string)
}

// NewWatcher watches every non-excluded directory under the builder root.
// onChange, when set, runs after the cache has been cleared.
func NewWatcher(b *Builder, onChange func(path string)) (*Watcher, error) {
	root, err := filepath.Abs(b.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", b.Root, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{builder: b, root: root, watcher: fw, onChange: onChange}
	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	logger := logging.For(w.builder.Logger, "watch")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event, logger)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", logging.Err(err))
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) handle(event fsnotify.Event, logger *slog.Logger) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				logger.Warn("failed to watch new directory", "dir", event.Name, logging.Err(err))
			}
			return
		}
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || !w.builder.Matches(filepath.ToSlash(rel)) {
		return
	}
	logger.Debug("step file changed, clearing index cache", "file", rel, "op", event.Op.String())
	if err := ClearCache(w.builder.CachePath()); err != nil {
		logger.Warn("failed to clear index cache", logging.Err(err))
	}
	if w.onChange != nil {
		w.onChange(event.Name)
	}
}

func (w *Watcher) addTree(dir string) error {
	cacheDir := filepath.Dir(w.builder.CachePath())
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != w.root && (path == cacheDir || w.excludedDir(entry.Name())) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) excludedDir(name string) bool {
	exclude := w.builder.ExcludeDirs
	if exclude == nil {
		exclude = DefaultExcludeDirs
	}
	for _, dir := range exclude {
		if name == dir {
			return true
		}
	}
	return strings.HasPrefix(name, ".")
}
