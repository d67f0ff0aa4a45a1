package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period after the last change before a batch
// is handed to the callback.
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc receives the sorted paths of fact files changed in one batch.
type ChangeFunc func(ctx context.Context, changed []string) error

// watchRoot is one watched root with its ignore rules. file is set when the
// root names a single file.
type watchRoot struct {
	dir     string
	file    string
	matcher gitignore.Matcher
}

// Watch calls onChange with each debounced batch of changed fact files under
// roots until ctx is cancelled. Callback errors are logged and watching
// continues. Directories created while watching are picked up.
func Watch(ctx context.Context, roots []string, debounce time.Duration, log *zap.Logger, onChange ChangeFunc) error {
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("source: create watcher: %w", err)
	}
	defer watcher.Close()

	var watched []watchRoot
	for _, root := range roots {
		wr, err := addRoot(watcher, root)
		if err != nil {
			return err
		}
		watched = append(watched, wr)
	}

	changed := make(map[string]bool)
	batchTimer := time.NewTimer(debounce)
	batchTimer.Stop()

	log.Info("watching for changes", zap.Strings("roots", roots))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			wr, ok := owner(watched, event.Name)
			if !ok {
				continue
			}
			if event.Has(fsnotify.Create) && wr.file == "" {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !ignored(wr.matcher, wr.dir, event.Name, true) {
						if err := addTree(watcher, wr, event.Name); err != nil {
							log.Warn("watch new directory", zap.String("dir", event.Name), zap.Error(err))
						}
					}
					continue
				}
			}
			if !wr.accepts(event.Name) {
				continue
			}
			changed[event.Name] = true
			batchTimer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))

		case <-batchTimer.C:
			if len(changed) == 0 {
				continue
			}
			paths := make([]string, 0, len(changed))
			for p := range changed {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			changed = make(map[string]bool)

			log.Debug("change batch", zap.Int("files", len(paths)))
			if err := onChange(ctx, paths); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Error("processing changes", zap.Error(err))
			}
		}
	}
}

func addRoot(w *fsnotify.Watcher, root string) (watchRoot, error) {
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return watchRoot{}, fmt.Errorf("source: %w", err)
	}
	if !info.IsDir() {
		dir := filepath.Dir(root)
		if err := w.Add(dir); err != nil {
			return watchRoot{}, fmt.Errorf("source: watch %s: %w", dir, err)
		}
		return watchRoot{dir: dir, file: root, matcher: gitignore.NewMatcher(nil)}, nil
	}
	matcher, err := loadMatcher(root)
	if err != nil {
		return watchRoot{}, err
	}
	wr := watchRoot{dir: root, matcher: matcher}
	return wr, addTree(w, wr, root)
}

// addTree watches dir and every non-ignored directory below it.
func addTree(w *fsnotify.Watcher, wr watchRoot, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != wr.dir && ignored(wr.matcher, wr.dir, path, true) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("source: watch %s: %w", path, err)
		}
		return nil
	})
}

func (wr watchRoot) accepts(path string) bool {
	if wr.file != "" {
		return path == wr.file
	}
	return IsSource(path) && !ignored(wr.matcher, wr.dir, path, false)
}

// owner returns the watched root with the longest directory containing path.
func owner(roots []watchRoot, path string) (watchRoot, bool) {
	var (
		best  watchRoot
		found bool
	)
	for _, wr := range roots {
		if path != wr.dir && !strings.HasPrefix(path, wr.dir+string(filepath.Separator)) {
			continue
		}
		if wr.file != "" && path != wr.file {
			continue
		}
		if !found || len(wr.dir) > len(best.dir) {
			best, found = wr, true
		}
	}
	return best, found
}
