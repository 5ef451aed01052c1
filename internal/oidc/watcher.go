package oidc

import (
	"context"
	"fmt"

	"ssc/pkg/logging"

	"github.com/fsnotify/fsnotify"
)

// watchFile reports removals of path until ctx is done. It watches the parent
// directory because editors and os.Rename replace the inode.
func watchFile(ctx context.Context, dir, path string, onRemoved func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create storage watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Name != path {
					continue
				}
				if ev.Has(fsnotify.Remove) {
					onRemoved()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logging.Warn("OIDC", "storage watcher error: %v", err)
			}
		}
	}()
	return nil
}
