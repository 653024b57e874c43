package graphs

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/aristath/qdo/internal/modules/graph"
)

// WatchedFile caches the parsed graph of one file and drops the cache whenever the file
// changes on disk, so the next Get reloads it.
type WatchedFile struct {
	source *FileSource
	path   string
	log    zerolog.Logger

	mu      sync.RWMutex
	cached  *graph.WeightedGraph
	gen     uint64
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatchedFile creates a cache for path. Call Start to begin watching.
func NewWatchedFile(source *FileSource, path string, log zerolog.Logger) *WatchedFile {
	full, err := filepath.Abs(source.Resolve(path))
	if err != nil {
		full = source.Resolve(path)
	}
	return &WatchedFile{
		source: source,
		path:   full,
		log:    log.With().Str("component", "graph_watcher").Str("path", full).Logger(),
	}
}

// Path returns the absolute path being watched.
func (w *WatchedFile) Path() string {
	return w.path
}

// Get returns the cached graph, loading it on first use or after a change.
func (w *WatchedFile) Get(ctx context.Context) (*graph.WeightedGraph, error) {
	w.mu.RLock()
	g, gen := w.cached, w.gen
	w.mu.RUnlock()
	if g != nil {
		return g, nil
	}

	g, err := w.source.Load(ctx, w.path)
	if err != nil {
		return nil, err
	}

	// A change that landed while loading wins; the next Get reloads.
	w.mu.Lock()
	if w.gen == gen {
		w.cached = g
	}
	w.mu.Unlock()
	return g, nil
}

// Invalidate drops the cached graph.
func (w *WatchedFile) Invalidate() {
	w.mu.Lock()
	w.cached = nil
	w.gen++
	w.mu.Unlock()
}

// Start watches the file's directory until ctx is done or Stop is called. The directory
// is watched rather than the file so editors that replace the file are still seen.
func (w *WatchedFile) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	w.mu.Lock()
	w.watcher = watcher
	w.done = make(chan struct{})
	w.mu.Unlock()

	go w.loop(ctx, watcher, w.done)
	w.log.Info().Msg("Watching default graph for changes")
	return nil
}

// Stop ends the watch loop.
func (w *WatchedFile) Stop() error {
	w.mu.Lock()
	watcher, done := w.watcher, w.done
	w.watcher = nil
	w.mu.Unlock()

	if watcher == nil {
		return nil
	}
	err := watcher.Close()
	<-done
	return err
}

func (w *WatchedFile) loop(ctx context.Context, watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.Invalidate()
				w.log.Debug().Str("op", event.Op.String()).Msg("Default graph changed, cache dropped")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("File watcher error")
		}
	}
}
