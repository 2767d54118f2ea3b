// Package watch reloads schema models when their files change on disk.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/jacoelho/xsdmodel/internal/model"
)

// DefaultDebounce is how long changes are collected before reloading.
const DefaultDebounce = 100 * time.Millisecond

// Reloader is the part of the registry the watcher drives.
type Reloader interface {
	Get(identity string) (*model.Model, bool)
	Reload(ctx context.Context, identity string) (*model.Model, error)
	Discard(identity string) bool
}

// Op is the action taken for a changed file.
type Op string

const (
	OpReload  Op = "reload"
	OpDiscard Op = "discard"
)

// Event reports one handled change.
type Event struct {
	Identity string
	Op       Op
	// Valid is the model state after a reload.
	Valid bool
	Err   error
}

// Config configures a watcher.
type Config struct {
	// Root is the directory the registry filesystem is rooted at.
	Root     string
	Debounce time.Duration
	Logger   *zap.Logger
}

// Watcher forwards file changes under Root to a Reloader. Only files the
// registry already holds are acted on.
type Watcher struct {
	root     string
	debounce time.Duration
	logger   *zap.Logger
	reloader Reloader
	fsw      *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	events chan Event
}

// New creates a watcher. Run starts it.
func New(cfg Config, r Reloader) (*Watcher, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("watch: root is required")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		root:     filepath.Clean(cfg.Root),
		debounce: debounce,
		logger:   logger.Named("watch"),
		reloader: r,
		fsw:      fsw,
		pending:  make(map[string]fsnotify.Op),
		events:   make(chan Event, 64),
	}, nil
}

// Events returns handled changes. The channel is closed when Run returns.
func (w *Watcher) Events() <-chan Event { return w.events }

// Run watches until ctx is done. It always releases the underlying
// watcher before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	defer w.fsw.Close()

	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	w.logger.Info("watching schemas", zap.String("root", w.root), zap.Duration("debounce", w.debounce))

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", zap.Error(err))
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", zap.String("path", path), zap.Error(err))
		}
		return nil
	})
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if isDir, err := statDir(ev.Name); err == nil && isDir {
			if err := w.addRecursive(ev.Name); err != nil {
				w.logger.Warn("failed to watch new directory", zap.String("path", ev.Name), zap.Error(err))
			}
			return
		}
	}
	id, ok := w.identity(ev.Name)
	if !ok {
		return
	}
	w.pendingMu.Lock()
	w.pending[id] = ev.Op
	w.pendingMu.Unlock()
	w.logger.Debug("change detected", zap.String("identity", id), zap.Stringer("op", ev.Op))
}

// identity maps an OS path to the slash-separated registry identity.
func (w *Watcher) identity(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) flush(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	batch := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for id, op := range batch {
		if _, held := w.reloader.Get(id); !held {
			continue
		}
		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			if w.reloader.Discard(id) {
				w.publish(Event{Identity: id, Op: OpDiscard})
			}
			continue
		}
		m, err := w.reloader.Reload(ctx, id)
		ev := Event{Identity: id, Op: OpReload, Err: err}
		if m != nil {
			ev.Valid = m.Valid()
		}
		if err != nil {
			w.logger.Warn("reload failed", zap.String("identity", id), zap.Error(err))
		}
		w.publish(ev)
	}
}

func (w *Watcher) publish(ev Event) {
	select {
	case w.events <- ev:
	default:
		w.logger.Warn("watch event dropped", zap.String("identity", ev.Identity))
	}
}
