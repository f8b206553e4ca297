package engine

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillgate/pkg/logger"
	"github.com/jingkaihe/skillgate/pkg/sources"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher reloads the engine's registry whenever the watched skill
// directories change. Events are debounced so an editor save burst triggers
// one atomic reload, not one per file.
type Watcher struct {
	engine   *Engine
	source   sources.Source
	dirs     []string
	debounce time.Duration
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides the reload debounce interval.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher creates a watcher that reloads eng from source when any of dirs
// (or their immediate skill subdirectories) change.
func NewWatcher(eng *Engine, source sources.Source, dirs []string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		engine:   eng,
		source:   source,
		dirs:     dirs,
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks, reloading on changes, until the context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create filesystem watcher")
	}
	defer watcher.Close()

	w.addWatchDirs(ctx, watcher)

	var timer *time.Timer
	pending := make(chan struct{}, 1)
	schedule := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, func() {
			select {
			case pending <- struct{}{}:
			default:
			}
		})
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			logger.G(ctx).WithField("event", event.String()).Debug("skill directory changed")
			schedule()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.G(ctx).WithError(err).Warn("filesystem watcher error")
		case <-pending:
			result, err := w.engine.Reload(ctx, w.source)
			if err != nil {
				logger.G(ctx).WithError(err).Error("reload failed")
				continue
			}
			if err := result.Err(); err != nil {
				logger.G(ctx).WithError(err).Warn("some skills were rejected during reload")
			}
			// New skill directories may have appeared.
			w.addWatchDirs(ctx, watcher)
		}
	}
}

// addWatchDirs registers the configured directories and their immediate
// subdirectories. Missing directories are skipped; they may appear later
// under an already watched parent.
func (w *Watcher) addWatchDirs(ctx context.Context, watcher *fsnotify.Watcher) {
	for _, dir := range w.dirs {
		if err := watcher.Add(dir); err != nil {
			logger.G(ctx).WithError(err).WithField("dir", dir).Debug("cannot watch skill directory")
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			_ = watcher.Add(filepath.Join(dir, entry.Name()))
		}
	}
}
