package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/fsnotify/fsnotify"
)

const (
	watchDebounce     = 200 * time.Millisecond
	watchRetries      = 5
	watchRetryBackoff = 250 * time.Millisecond
)

// watch runs fn once, then again after every change to path, until ctx
// ends. The parent directory is watched so that editors replacing the file
// are seen. Failed runs are retried while the file may still be written and
// then logged; they never stop the watch.
func watch(ctx context.Context, path string, logger *slog.Logger, fn func() error) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	runWithRetry(ctx, logger, abs, fn)
	logger.Info("watching for changes", "file", abs)

	// stopped timer; armed by the first relevant event
	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

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
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("file changed", "file", abs, "op", event.Op.String())
			timer.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", "error", err)
		case <-timer.C:
			runWithRetry(ctx, logger, abs, fn)
		}
	}
}

func runWithRetry(ctx context.Context, logger *slog.Logger, path string, fn func() error) {
	err := retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(watchRetries),
		retry.Delay(watchRetryBackoff),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug("analysis failed, retrying", "file", path, "attempt", n+1, "error", err)
		}),
	)
	if err != nil && ctx.Err() == nil {
		logger.Error("analysis failed", "file", path, "error", err)
	}
}
