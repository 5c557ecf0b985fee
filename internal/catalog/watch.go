package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/goliatone/go-formembed/internal/store"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher keeps a store in sync with a catalog file. Invalid revisions are
// logged and ignored so the last good catalog stays served.
type Watcher struct {
	path     string
	forms    store.Forms
	prune    bool
	debounce time.Duration
	logger   *zap.Logger
	onApply  func(Report, error)

	mu      sync.Mutex
	pending time.Time
}

// WatchOption customises a Watcher.
type WatchOption func(*Watcher)

// WithPrune deletes stored forms that disappear from the catalog.
func WithPrune(prune bool) WatchOption {
	return func(w *Watcher) { w.prune = prune }
}

// WithDebounce sets how long the file must be quiet before a reload.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatchLogger attaches a logger.
func WithWatchLogger(logger *zap.Logger) WatchOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithOnApply registers a hook called after every reload attempt.
func WithOnApply(fn func(Report, error)) WatchOption {
	return func(w *Watcher) { w.onApply = fn }
}

// NewWatcher prepares a watcher for the catalog at path.
func NewWatcher(path string, forms store.Forms, opts ...WatchOption) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("catalog: watch path is required")
	}
	if forms == nil {
		return nil, errors.New("catalog: forms store is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: resolve %s: %w", path, err)
	}
	w := &Watcher{
		path:     abs,
		forms:    forms,
		debounce: defaultDebounce,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Load applies the catalog once.
func (w *Watcher) Load(ctx context.Context) (Report, error) {
	defs, err := LoadFile(w.path)
	if err != nil {
		return Report{}, err
	}
	return Apply(ctx, w.forms, defs, w.prune)
}

// Run watches the catalog's directory until ctx is done. Editors that save
// by rename are handled because the directory, not the file, is watched.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("catalog: watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("catalog: watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info("watching catalog", zap.String("path", w.path))

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("catalog watcher error", zap.Error(err))
		case <-ticker.C:
			if w.due() {
				w.reload(ctx)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return
	}
	w.mu.Lock()
	w.pending = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) due() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounce {
		return false
	}
	w.pending = time.Time{}
	return true
}

func (w *Watcher) reload(ctx context.Context) {
	report, err := w.Load(ctx)
	if err != nil {
		w.logger.Error("catalog reload failed", zap.String("path", w.path), zap.Error(err))
	} else {
		w.logger.Info("catalog reloaded",
			zap.String("path", w.path),
			zap.Int("upserted", len(report.Upserted)),
			zap.Int("removed", len(report.Removed)),
		)
	}
	if w.onApply != nil {
		w.onApply(report, err)
	}
}
