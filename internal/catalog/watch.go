package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 150 * time.Millisecond

// WatchOption customizes Watch.
type WatchOption func(*watchConfig)

type watchConfig struct {
	debounce time.Duration
	onError  func(error)
}

// WithDebounce sets the quiet period that coalesces bursts of events.
func WithDebounce(d time.Duration) WatchOption {
	return func(c *watchConfig) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithErrorHandler receives watcher errors; they never stop the loop.
func WithErrorHandler(fn func(error)) WatchOption {
	return func(c *watchConfig) {
		if fn != nil {
			c.onError = fn
		}
	}
}

// Watch calls onChange after files below root change, until ctx is done.
// Directories created while watching are picked up automatically.
func Watch(ctx context.Context, root string, onChange func(), opts ...WatchOption) error {
	if onChange == nil {
		return fmt.Errorf("catalog: watch: change handler is required")
	}
	cfg := watchConfig{debounce: defaultDebounce, onError: func(error) {}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("catalog: watch: %w", err)
	}
	defer watcher.Close()
	if err := addTree(watcher, root); err != nil {
		return err
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(cfg.debounce, onChange)
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := statDir(event.Name); err == nil && info {
					if err := addTree(watcher, event.Name); err != nil {
						cfg.onError(err)
					}
				}
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				trigger()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cfg.onError(err)
		}
	}
}

func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("catalog: watch %s: %w", p, err)
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("catalog: watch %s: %w", p, err)
		}
		return nil
	})
}

func statDir(p string) (bool, error) {
	info, err := os.Stat(p)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
