package feed

import (
	"sync"
	"time"
)

// State is the latest known view of a feed, shown directly by the UI
type State[T any] struct {
	Data        *T         `json:"data" yaml:"data"`
	Loading     bool       `json:"loading" yaml:"loading"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
	LastUpdated *time.Time `json:"last_updated,omitempty" yaml:"last_updated,omitempty"`
}

// HasData reports whether a fetch has ever succeeded
func (s State[T]) HasData() bool {
	return s.Data != nil
}

// Store holds the State of a single feed and applies fetch transitions to it.
//
// Every fetch takes a sequence number from Begin. Succeed and Fail only apply
// when their sequence number is still the latest one issued, so an older
// response can never overwrite a newer one. After Close every transition is
// a no-op.
type Store[T any] struct {
	mu       sync.Mutex
	state    State[T]
	seq      uint64
	closed   bool
	now      func() time.Time
	onChange func()
}

// StoreOption configures a Store
type StoreOption[T any] func(*Store[T])

// WithClock overrides the time source used for LastUpdated
func WithClock[T any](now func() time.Time) StoreOption[T] {
	return func(s *Store[T]) { s.now = now }
}

// WithOnChange registers a callback invoked after every applied transition.
// It runs outside the store lock but must not call back into a Runner owning the store.
func WithOnChange[T any](fn func()) StoreOption[T] {
	return func(s *Store[T]) { s.onChange = fn }
}

// NewStore creates an idle store
func NewStore[T any](opts ...StoreOption[T]) *Store[T] {
	s := &Store[T]{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin marks a fetch as started and returns its sequence number
func (s *Store[T]) Begin() uint64 {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	if s.closed {
		s.mu.Unlock()
		return seq
	}
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()

	s.changed()
	return seq
}

// Succeed applies a successful fetch. It returns false if the result was discarded.
func (s *Store[T]) Succeed(seq uint64, data T) bool {
	s.mu.Lock()
	if !s.current(seq) {
		s.mu.Unlock()
		return false
	}
	s.state.Loading = false
	s.state.Data = &data
	s.state.Error = ""
	now := s.now()
	s.state.LastUpdated = &now
	s.mu.Unlock()

	s.changed()
	return true
}

// Fail applies a failed fetch, keeping previously fetched data for display.
// It returns false if the result was discarded.
func (s *Store[T]) Fail(seq uint64, msg string) bool {
	s.mu.Lock()
	if !s.current(seq) {
		s.mu.Unlock()
		return false
	}
	s.state.Loading = false
	s.state.Error = msg
	s.mu.Unlock()

	s.changed()
	return true
}

// Invalidate drops every fetch currently in flight. Nothing is outstanding
// afterwards, so Loading is cleared; data and error stay as they are.
func (s *Store[T]) Invalidate() {
	s.mu.Lock()
	s.seq++
	if s.closed || !s.state.Loading {
		s.mu.Unlock()
		return
	}
	s.state.Loading = false
	s.mu.Unlock()

	s.changed()
}

// Close freezes the store; later completions are ignored
func (s *Store[T]) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Closed reports whether Close was called
func (s *Store[T]) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// State returns a copy of the current state
func (s *Store[T]) State() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// current must be called with the lock held
func (s *Store[T]) current(seq uint64) bool {
	return !s.closed && seq == s.seq
}

func (s *Store[T]) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
