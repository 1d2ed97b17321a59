package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce collapses the burst of events a single save produces.
const watchDebounce = 150 * time.Millisecond

// watchFile sends the new contents of path each time it changes. The parent
// directory is watched so editors that save by rename are followed. The
// channel is closed when ctx is done.
func watchFile(ctx context.Context, path string, log *slog.Logger) (<-chan []byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}

	out := make(chan []byte, 1)
	go func() {
		defer close(out)
		defer w.Close()

		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				fire = time.After(watchDebounce)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("watch error", "path", abs, "err", err)
			case <-fire:
				fire = nil
				data, err := os.ReadFile(abs)
				if err != nil {
					log.Warn("reload failed", "path", abs, "err", err)
					continue
				}
				log.Info("file changed", "path", abs, "size", len(data))
				select {
				case out <- data:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
