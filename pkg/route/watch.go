package route

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Watcher serves a route table loaded from a file and reloads it whenever the
// file is written. A failed reload keeps the previous table.
type Watcher struct {
	path   string
	logger *log.Logger

	mu    sync.RWMutex
	table Table

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Watch loads path and starts watching it for changes until ctx is cancelled
// or Close is called. If logger is nil, log.Default() is used.
func Watch(ctx context.Context, path string, logger *log.Logger) (*Watcher, error) {
	if logger == nil {
		logger = log.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	table, err := Load(abs)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	// Watch the directory: editors often replace files instead of writing in place.
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", abs, err)
	}

	w := &Watcher{
		path:    abs,
		logger:  logger,
		table:   table,
		watcher: fw,
		done:    make(chan struct{}),
	}
	go w.run(ctx)
	return w, nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.reload()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("route watcher error", "err", err)
		}
	}
}

func (w *Watcher) reload() {
	table, err := Load(w.path)
	if err != nil {
		w.logger.Warn("route table reload failed, keeping previous", "path", w.path, "err", err)
		return
	}
	w.mu.Lock()
	w.table = table
	w.mu.Unlock()
	w.logger.Info("reloaded route table", "path", w.path, "destinations", len(table))
}

// Lookup returns the hops for dest from the most recently loaded table.
func (w *Watcher) Lookup(ctx context.Context, dest string) ([]Hop, error) {
	w.mu.RLock()
	t := w.table
	w.mu.RUnlock()
	return t.Lookup(ctx, dest)
}

// Destinations returns the destinations of the current table.
func (w *Watcher) Destinations(ctx context.Context) ([]string, error) {
	w.mu.RLock()
	t := w.table
	w.mu.RUnlock()
	return t.Destinations(ctx)
}

// Close stops watching and waits for the watch goroutine to exit.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

var _ Source = (*Watcher)(nil)
