package feed

import (
	"context"
	"sync"
	"time"
)

// Handle controls a running poller
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start calls trigger immediately and then once every interval until the
// handle is cancelled or ctx is done. Two triggers never start less than
// interval apart; a trigger that overruns its slot delays the next one
// instead of queueing a tick.
//
// The context passed to trigger is cancelled together with the handle.
func Start(ctx context.Context, interval time.Duration, trigger func(ctx context.Context)) *Handle {
	if interval <= 0 {
		interval = DefaultInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(h.done)

		// run immediately on start
		started := time.Now()
		trigger(ctx)

		timer := time.NewTimer(nextDelay(started, interval))
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				if ctx.Err() != nil {
					return
				}
				started = time.Now()
				trigger(ctx)
				timer.Reset(nextDelay(started, interval))
			}
		}
	}()

	return h
}

// Cancel stops future triggers. It is safe to call more than once and
// does not wait for a trigger that is already running.
func (h *Handle) Cancel() {
	h.once.Do(h.cancel)
}

// Done is closed once the poller loop has exited
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// nextDelay is the wait left before the next trigger, measured from the start of the last one
func nextDelay(started time.Time, interval time.Duration) time.Duration {
	return max(interval-time.Since(started), 0)
}
