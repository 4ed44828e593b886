// Package watcher turns bursts of page-change signals into debounced
// re-evaluation calls, with a slow fallback tick for changes nothing
// signalled about.
package watcher

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Config for a Watcher.
type Config struct {
	// Debounce is how long a burst of notifications must stay quiet before
	// the callback runs once for the whole burst.
	Debounce time.Duration
	// Fallback is the period of unconditional callback runs; zero disables
	// the fallback tick.
	Fallback time.Duration
	// Callback is invoked on the watcher goroutine, so runs never overlap.
	Callback func()
}

// Watcher coalesces Notify calls into debounced callback runs. Signals that
// arrive while the callback is running collapse into at most one further run.
type Watcher struct {
	config    Config
	ctx       context.Context
	ctxCancel context.CancelFunc
	log       *zap.SugaredLogger

	// notify has capacity 1: a signal during a callback queues exactly one
	// re-run, further signals merge into it.
	notify chan struct{}
	done   chan struct{}
}

func New(config Config, ctx context.Context) *Watcher {
	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		config:    config,
		ctx:       ctx,
		ctxCancel: cancel,
		log:       zap.S().Named("watcher"),
		notify:    make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	go w.run()
	return w
}

// Notify signals that the page may have changed. Never blocks.
func (w *Watcher) Notify() {
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// Close stops the watcher and waits for the goroutine to exit.
func (w *Watcher) Close() {
	w.ctxCancel()
	<-w.done
}

func (w *Watcher) run() {
	defer close(w.done)

	var fallback <-chan time.Time
	if w.config.Fallback > 0 {
		ticker := time.NewTicker(w.config.Fallback)
		defer ticker.Stop()
		fallback = ticker.C
	}

	debounce := time.NewTimer(w.config.Debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()
	armed := false

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.notify:
			// Every signal restarts the quiet window.
			if armed && !debounce.Stop() {
				<-debounce.C
			}
			debounce.Reset(w.config.Debounce)
			armed = true
		case <-debounce.C:
			armed = false
			w.config.Callback()
		case <-fallback:
			w.config.Callback()
		}
	}
}
