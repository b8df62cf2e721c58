package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits for more events before
// reporting a batch of changes.
const DefaultDebounce = 500 * time.Millisecond

// ChangeHandler receives the batch of changed ontology files. Entries of
// deleted files are absent; their paths are listed in removed.
type ChangeHandler func(ctx context.Context, changed []FileEntry, removed []string) error

// WatchOptions configures WatchFiles.
type WatchOptions struct {
	Debounce time.Duration
	Logger   *zap.Logger
}

// WatchFiles monitors root (a directory or a single ontology file) and calls
// onChange with every batch of content changes. Files whose content hash is
// unchanged are not reported. Blocks until the context is cancelled.
func WatchFiles(ctx context.Context, root string, opts WatchOptions, onChange ChangeHandler) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}
	dir, single := root, ""
	if !info.IsDir() {
		dir, single = filepath.Dir(root), filepath.Base(root)
	}

	patterns, err := loadGitignore(dir)
	if err != nil {
		logger.Warn("ignoring unreadable .gitignore", zap.Error(err))
	}
	matcher := newMatcher(patterns)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if single != "" {
		err = watcher.Add(dir)
	} else {
		err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != dir && shouldSkipDir(d.Name(), path, dir, matcher) {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		})
	}
	if err != nil {
		return fmt.Errorf("setting up watcher: %w", err)
	}

	hashes := make(map[string]string)
	if existing, err := WalkOntologyFiles(root); err == nil {
		for _, e := range existing {
			hashes[e.Path] = e.SHA256
		}
	}

	changed := make(map[string]bool)
	batchTimer := time.NewTimer(opts.Debounce)
	batchTimer.Stop()

	logger.Info("watching for changes", zap.String("path", root))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if single != "" && filepath.Base(event.Name) != single {
				continue
			}
			if !shouldWatchFile(event.Name, dir, matcher) {
				continue
			}
			changed[event.Name] = true
			batchTimer.Reset(opts.Debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))

		case <-batchTimer.C:
			entries, removed := collectChanges(changed, dir, hashes)
			changed = make(map[string]bool)
			if len(entries) == 0 && len(removed) == 0 {
				continue
			}
			if err := onChange(ctx, entries, removed); err != nil {
				logger.Error("processing changes", zap.Error(err))
			}
		}
	}
}

// collectChanges reads the changed paths and drops those whose content
// hash is unchanged. hashes is updated in place.
func collectChanges(changed map[string]bool, root string, hashes map[string]string) ([]FileEntry, []string) {
	paths := make([]string, 0, len(changed))
	for p := range changed {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var entries []FileEntry
	var removed []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if os.IsNotExist(err) {
			if _, known := hashes[abs]; known {
				delete(hashes, abs)
				removed = append(removed, abs)
			}
			continue
		}
		if err != nil || info.IsDir() {
			continue
		}

		entry, err := readEntry(abs, root)
		if err != nil {
			continue
		}
		if hashes[abs] == entry.SHA256 {
			continue
		}
		hashes[abs] = entry.SHA256
		entries = append(entries, entry)
	}
	return entries, removed
}

// shouldWatchFile checks if a file should be watched.
func shouldWatchFile(path, root string, matcher gitignore.Matcher) bool {
	if !isSupportedFile(path) {
		return false
	}
	relPath, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if matcher != nil && matcher.Match(strings.Split(relPath, string(filepath.Separator)), false) {
		return false
	}
	return true
}
