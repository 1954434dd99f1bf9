package config

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watcher reloads the configuration file when it changes and hands the
// fresh copy to every registered handler.
type Watcher struct {
	path     string
	debounce time.Duration
	mu       sync.RWMutex
	handlers []func(*Config)
	watcher  *fsnotify.Watcher
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewWatcher creates a watcher for path. A zero debounce uses 500ms.
func NewWatcher(path string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{path: path, debounce: debounce, ctx: ctx, cancel: cancel, done: make(chan struct{})}
}

// OnReload registers a handler called with each successfully loaded config.
func (w *Watcher) OnReload(h func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, h)
}

// Start begins watching the file.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.path); err != nil {
		fw.Close()
		return err
	}
	w.watcher = fw
	log.Info().Str("path", w.path).Dur("debounce", w.debounce).Msg("config watcher started")
	go w.watch()
	return nil
}

// Stop ends watching and waits for the loop to exit.
func (w *Watcher) Stop() error {
	w.cancel()
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) watch() {
	defer close(w.done)
	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-w.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// some editors replace the file instead of writing it
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("config watcher error")
		}
	}
}

func (w *Watcher) reload() {
	c, err := Load(w.path)
	if err != nil {
		log.Warn().Err(err).Str("path", w.path).Msg("config reload failed")
		return
	}
	log.Info().Str("path", w.path).Msg("config reloaded")
	w.mu.RLock()
	handlers := append([]func(*Config){}, w.handlers...)
	w.mu.RUnlock()
	for _, h := range handlers {
		h(c)
	}
}
