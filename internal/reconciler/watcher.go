package reconciler

import (
	"context"
	"time"
)

// Watcher runs the reconciler on a fixed interval, with an on-demand kick
// after user actions so the view refreshes immediately.
type Watcher struct {
	reconciler *Reconciler
	interval   time.Duration
	kick       chan struct{}
	onUpdate   func(View)
}

// NewWatcher constructs a watcher. onUpdate is invoked after every poll
// attempt, successful or not, with the current view.
func NewWatcher(r *Reconciler, interval time.Duration, onUpdate func(View)) *Watcher {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Watcher{
		reconciler: r,
		interval:   interval,
		kick:       make(chan struct{}, 1),
		onUpdate:   onUpdate,
	}
}

// Kick requests an immediate refresh; coalesces if one is already pending.
func (w *Watcher) Kick() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Run polls until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pollOnce(ctx)
		case <-w.kick:
			w.pollOnce(ctx)
		}
	}
}

func (w *Watcher) pollOnce(ctx context.Context) {
	_ = w.reconciler.Poll(ctx)
	if w.onUpdate != nil {
		w.onUpdate(w.reconciler.Snapshot())
	}
}
