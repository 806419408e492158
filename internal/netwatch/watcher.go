// Package netwatch turns periodic reachability probes into connectivity
// change notifications.
package netwatch

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/inspectsync/internal/logging"
)

// Mode is the last observed reachability.
type Mode int

const (
	ModeUnknown Mode = iota
	ModeOffline
	ModeOnline
)

func (m Mode) String() string {
	switch m {
	case ModeOnline:
		return "online"
	case ModeOffline:
		return "offline"
	default:
		return "unknown"
	}
}

const (
	DefaultInterval = 10 * time.Second
	probeTimeout    = 3 * time.Second
)

// Prober checks whether the remote side can be reached.
type Prober interface {
	Ping(ctx context.Context) error
}

type ProberFunc func(ctx context.Context) error

func (f ProberFunc) Ping(ctx context.Context) error { return f(ctx) }

// Handler is told about every switch to online (the first successful probe
// included) and every switch from online to offline.
type Handler func(ctx context.Context, online bool)

// Watcher polls a Prober and reports changes of reachability.
type Watcher struct {
	prober   Prober
	interval time.Duration
	timeout  time.Duration
	handler  Handler
	log      logging.Logger

	mu   sync.RWMutex
	mode Mode

	wg sync.WaitGroup
}

// New returns a Watcher probing every interval. handler is called on
// every transition into and out of Online.
func New(prober Prober, interval time.Duration, handler Handler, log logging.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	timeout := probeTimeout
	if interval < timeout {
		timeout = interval
	}
	return &Watcher{
		prober:   prober,
		interval: interval,
		timeout:  timeout,
		handler:  handler,
		log:      log,
	}
}

// Run probes immediately and then every interval until ctx is done. Handlers
// run in their own goroutines so a long sweep does not delay probing; Run
// waits for them before returning.
func (w *Watcher) Run(ctx context.Context) {
	defer w.wg.Wait()

	w.Check(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Check runs one probe, updates the mode and dispatches the handler on a
// transition. It returns the resulting mode.
func (w *Watcher) Check(ctx context.Context) Mode {
	pctx, cancel := context.WithTimeout(ctx, w.timeout)
	err := w.prober.Ping(pctx)
	cancel()

	next := ModeOnline
	if err != nil {
		next = ModeOffline
	}

	prev := w.setMode(next)
	if prev == next {
		return next
	}

	w.log.Info(ctx, "connectivity changed", "from", prev.String(), "to", next.String())
	if err != nil {
		w.log.Debug(ctx, "probe failed", "error", err)
	}

	switch {
	case next == ModeOnline:
		w.dispatch(ctx, true)
	case prev == ModeOnline:
		w.dispatch(ctx, false)
	}
	return next
}

func (w *Watcher) Mode() Mode {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.mode
}

func (w *Watcher) Online() bool {
	return w.Mode() == ModeOnline
}

// Wait blocks until dispatched handlers have returned.
func (w *Watcher) Wait() {
	w.wg.Wait()
}

func (w *Watcher) setMode(m Mode) Mode {
	w.mu.Lock()
	defer w.mu.Unlock()
	prev := w.mode
	w.mode = m
	return prev
}

func (w *Watcher) dispatch(ctx context.Context, online bool) {
	if w.handler == nil {
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.handler(ctx, online)
	}()
}
