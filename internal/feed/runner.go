package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"salesdash/internal/fetcher"
)

// ErrStopped is returned by Refresh once the runner has been stopped
var ErrStopped = errors.New("feed stopped")

// Runner keeps one feed's State up to date: it owns the feed descriptor,
// its Store and the poller that refreshes it.
type Runner[T any] struct {
	doer  fetcher.Doer
	store *Store[T]

	mu      sync.Mutex
	feed    Feed[T]
	handle  *Handle
	ctx     context.Context
	cancel  context.CancelFunc
	stopped bool
}

// NewRunner creates an idle runner for f
func NewRunner[T any](doer fetcher.Doer, f Feed[T], opts ...StoreOption[T]) *Runner[T] {
	return &Runner[T]{
		doer:  doer,
		store: NewStore(opts...),
		feed:  f,
	}
}

// Name returns the feed name
func (r *Runner[T]) Name() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.feed.Name
}

// Feed returns the current feed descriptor
func (r *Runner[T]) Feed() Feed[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.feed
}

// State returns a copy of the feed state
func (r *Runner[T]) State() State[T] {
	return r.store.State()
}

// Start begins polling: one fetch now, then one per feed interval.
// Calling Start on a running or stopped runner does nothing.
func (r *Runner[T]) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped || r.handle != nil {
		return
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	// parent cancellation freezes the state the same way Stop does
	context.AfterFunc(r.ctx, r.Stop)
	r.startLocked()
}

// Running reports whether the poller is active
func (r *Runner[T]) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handle != nil && !r.stopped
}

// Refresh performs one fetch outside the poller cadence and waits for it
func (r *Runner[T]) Refresh(ctx context.Context) error {
	r.mu.Lock()
	guard := r.ctx
	r.mu.Unlock()

	if guard == nil {
		guard = context.Background()
	}
	return r.refresh(guard, ctx)
}

// Swap replaces the feed descriptor. Results of fetches started for the old
// descriptor are discarded and, if the runner is polling, the poller restarts
// with an immediate fetch of the new one. A stopped runner returns ErrStopped.
func (r *Runner[T]) Swap(f Feed[T]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return ErrStopped
	}

	r.feed = f
	r.store.Invalidate()

	if r.handle != nil {
		r.handle.Cancel()
		r.startLocked()
	}
	return nil
}

// Stop cancels the poller and freezes the state. It does not wait for an
// in-flight fetch; whatever that fetch returns is ignored.
func (r *Runner[T]) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return
	}

	r.stopped = true
	r.store.Close()
	if r.handle != nil {
		r.handle.Cancel()
	}
	if r.cancel != nil {
		r.cancel()
	}
}

// Wait blocks until the current poller loop has exited
func (r *Runner[T]) Wait() {
	r.mu.Lock()
	h := r.handle
	r.mu.Unlock()

	if h != nil {
		<-h.Done()
	}
}

// startLocked must be called with r.mu held
func (r *Runner[T]) startLocked() {
	r.handle = Start(r.ctx, r.feed.interval(), func(ctx context.Context) {
		_ = r.refresh(ctx, ctx)
	})
}

// refresh runs one fetch. guard is the context whose cancellation makes the
// trigger stale; ctx bounds the request itself.
func (r *Runner[T]) refresh(guard, ctx context.Context) error {
	r.mu.Lock()
	if r.stopped || guard.Err() != nil {
		r.mu.Unlock()
		return ErrStopped
	}
	seq := r.store.Begin()
	f := r.feed
	r.mu.Unlock()

	data, err := Fetch(ctx, r.doer, f)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped || guard.Err() != nil {
		slog.Debug("discarded feed result after cancellation", "feed", f.Name, "seq", seq)
		return ErrStopped
	}

	if err != nil {
		if r.store.Fail(seq, ErrorMessage(f.label(), err)) {
			slog.Warn("feed fetch failed", "feed", f.Name, "error", err)
		}
		return err
	}

	if r.store.Succeed(seq, data) {
		slog.Debug("feed updated", "feed", f.Name)
	} else {
		slog.Debug("discarded stale feed result", "feed", f.Name, "seq", seq)
	}
	return nil
}
