package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay coalesces the burst of events an editor produces on save.
const settleDelay = 500 * time.Millisecond

// Watch imports path once, then again whenever it changes, until ctx is
// cancelled. The parent directory is watched so atomic renames are seen.
// Import failures are logged and do not stop the watch.
func (imp *Importer) Watch(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	imp.importLogged(ctx, abs)

	timer := time.NewTimer(settleDelay)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(settleDelay)
			}
		case <-timer.C:
			imp.importLogged(ctx, abs)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			imp.log.Warn("watcher error", "error", err)
		}
	}
}

func (imp *Importer) importLogged(ctx context.Context, path string) {
	if _, err := imp.Import(ctx, path); err != nil {
		imp.log.Error("catalog import failed", "path", path, "error", err)
	}
}
