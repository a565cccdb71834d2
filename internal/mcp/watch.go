package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bobmcallan/toolsmith/internal/common"
)

// Watch watches a local spec source file and invokes reload after changes,
// debounced so one editor save produces one reload. Blocks until ctx is
// cancelled. Reload failures are logged and the current tool set stays
// registered.
func Watch(ctx context.Context, source string, debounce time.Duration, logger *common.Logger, reload func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	target, err := filepath.Abs(source)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", source, err)
	}

	// Watch the directory, not the file. Editors often replace the file on
	// save, which silently drops a watch registered on the file itself.
	dir := filepath.Dir(target)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	logger.Info().Str("source", source).Msg("Watching spec source for changes")

	var mu sync.Mutex
	var timer *time.Timer
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	reloads := make(chan struct{}, 1)
	schedule := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, func() {
			select {
			case reloads <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !matchesSource(event.Name, target) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("spec source changed")
			schedule()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Str("error", err.Error()).Msg("watcher error")

		case <-reloads:
			logger.Info().Str("source", source).Msg("Spec source changed, re-running pipeline")
			if err := reload(ctx); err != nil {
				logger.Warn().Str("error", err.Error()).Msg("reload failed, keeping current tools")
			}
		}
	}
}

// matchesSource reports whether the event path resolves to the watched file.
func matchesSource(eventPath, target string) bool {
	abs, err := filepath.Abs(eventPath)
	if err != nil {
		return false
	}
	return abs == target
}
