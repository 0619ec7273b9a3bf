// Package watch monitors a downloads directory for new PDF files.
package watch

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gridwise-labs/regtrack/internal/logger"
)

// DefaultSettleDelay is how long a file must stay quiet after its last
// write before it is emitted. Downloads arrive as a create followed by
// a burst of writes, and indexing a half-written PDF wastes a pass.
const DefaultSettleDelay = 2 * time.Second

// pollInterval is how often pending files are checked for settlement.
const pollInterval = 250 * time.Millisecond

// Watcher emits paths of PDFs dropped into a directory.
type Watcher struct {
	watcher     *fsnotify.Watcher
	settleDelay time.Duration
}

// NewWatcher creates a directory watcher.
func NewWatcher() (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:     w,
		settleDelay: DefaultSettleDelay,
	}, nil
}

// Watch starts monitoring the directory and emits the path of each PDF
// once it has settled. The channel closes when ctx is cancelled or the
// watcher is stopped.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan string, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	paths := make(chan string, 100)

	go func() {
		defer close(paths)

		// Last-write times for files still settling.
		pending := make(map[string]time.Time)

		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !isPDF(event.Name) {
					continue
				}
				// Every create or write pushes the emission back, so a
				// path fires only after its write burst ends.
				if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
					pending[event.Name] = time.Now()
				}
			case now := <-ticker.C:
				for path, lastWrite := range pending {
					if now.Sub(lastWrite) < w.settleDelay {
						continue
					}
					delete(pending, path)
					select {
					case paths <- path:
					case <-ctx.Done():
						return
					}
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error: %v", err)
			}
		}
	}()

	return paths, nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
