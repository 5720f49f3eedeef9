package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 100 * time.Millisecond

// Watch reloads the settings file whenever it changes on disk and hands the
// freshly parsed config to onChange. Broken edits are logged and skipped.
// It returns once the watcher is installed; watching stops with ctx.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()

		return fmt.Errorf("resolve %s: %w", path, err)
	}

	// Editors replace files on save, so the directory is watched instead of the file.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()

		return fmt.Errorf("watch directory: %w", err)
	}

	go watchLoop(ctx, watcher, abs, onChange)

	return nil
}

func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string, onChange func(*Config)) {
	defer watcher.Close()

	var debounce *time.Timer

	reload := func() {
		cfg, err := LoadFile(path)
		if err != nil {
			slog.WarnContext(ctx, "ignoring settings change", "path", path, "error", err)

			return
		}

		onChange(cfg)
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}

			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if filepath.Clean(event.Name) != path {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			if debounce != nil {
				debounce.Stop()
			}

			debounce = time.AfterFunc(watchDebounce, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}

			slog.ErrorContext(ctx, "settings watcher error", "error", err)
		}
	}
}
