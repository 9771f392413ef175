// Package watcher keeps the catalog in sync with catalog files on disk.
//
// Created or modified files are imported after a quiet period; removed or renamed-away
// files have their records deleted.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Handler applies catalog file changes. catalog.Importer implements it.
type Handler interface {
	ImportFile(ctx context.Context, path string) (int, error)
	RemoveFile(ctx context.Context, path string) (int64, error)
}

// Watcher watches catalog directories and forwards file changes to a Handler.
type Watcher struct {
	roots      []string
	extensions []string
	recursive  bool
	handler    Handler
	debounce   time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	pending map[string]*time.Timer
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger. If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets how long a file must be quiet before it is imported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a watcher over roots. extensions filters catalog files (empty = all).
func New(roots, extensions []string, recursive bool, handler Handler, opts ...Option) *Watcher {
	w := &Watcher{
		roots:      append([]string(nil), roots...),
		extensions: extensions,
		recursive:  recursive,
		handler:    handler,
		debounce:   defaultDebounce,
		pending:    make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	return w
}

// Start begins watching. Missing roots are created. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw != nil {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, root := range w.roots {
		if err := w.watchTree(fsw, root); err != nil {
			_ = fsw.Close()
			return err
		}
	}
	w.fsw = fsw
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.logger.Info("watching catalog directories",
		zap.Strings("roots", w.roots), zap.Strings("extensions", w.extensions), zap.Bool("recursive", w.recursive))
	go w.run(w.ctx, fsw, w.done)
	return nil
}

// watchTree adds root (and its subdirectories when recursive) to fsw.
func (w *Watcher) watchTree(fsw *fsnotify.Watcher, root string) error {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0755); err != nil {
		return err
	}
	if !w.recursive {
		return fsw.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, ev fsnotify.Event) {
	path := ev.Name
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))

	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			if w.recursive {
				if err := w.watchTree(fsw, path); err != nil {
					w.logger.Warn("failed to watch new directory", zap.String("path", path), zap.Error(err))
				}
				w.syncDirectory(ctx, path)
			}
			return
		}
		if matchExtension(path, w.extensions) {
			w.schedule(ctx, path)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		w.cancelPending(path)
		if matchExtension(path, w.extensions) {
			w.remove(ctx, path)
		}
	}
}

// schedule imports path once it has been quiet for the debounce period.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		if ctx.Err() == nil {
			w.importFile(ctx, path)
		}
	})
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) importFile(ctx context.Context, path string) {
	n, err := w.handler.ImportFile(ctx, path)
	if err != nil {
		w.logger.Warn("catalog import failed", zap.String("path", path), zap.Error(err))
		return
	}
	w.logger.Debug("catalog file imported", zap.String("path", path), zap.Int("records", n))
}

func (w *Watcher) remove(ctx context.Context, path string) {
	n, err := w.handler.RemoveFile(ctx, path)
	if err != nil {
		w.logger.Warn("catalog remove failed", zap.String("path", path), zap.Error(err))
		return
	}
	w.logger.Debug("catalog file removed", zap.String("path", path), zap.Int64("records", n))
}

func (w *Watcher) syncDirectory(ctx context.Context, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && !w.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if matchExtension(path, w.extensions) {
			w.importFile(ctx, path)
		}
		return nil
	})
}

// SyncExistingFiles imports every matching file already present under the roots.
func (w *Watcher) SyncExistingFiles(ctx context.Context) {
	for _, root := range w.Directories() {
		w.syncDirectory(ctx, filepath.Clean(root))
	}
}

// Directories returns a copy of the watched roots.
func (w *Watcher) Directories() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.roots...)
}

// Stop stops watching and waits for the event loop to exit. Pending imports are dropped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.fsw == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.cancel()
	fsw, done := w.fsw, w.done
	w.fsw = nil
	w.mu.Unlock()

	_ = fsw.Close()
	<-done
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}
