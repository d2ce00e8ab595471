package sync

import (
	"context"
	"log"
	gosync "sync"
	"time"

	"designboards/internal/board"
)

// WriteFunc performs one durable write of the full object model.
// Writes are idempotent; saving the same state twice is harmless.
type WriteFunc func(ctx context.Context, objects []board.Object) error

const retryBackoffBase = 100 * time.Millisecond

// Saver coalesces bursts of mutations into single durable writes. Rapid
// Schedule calls within the debounce window collapse into one write
// carrying the newest state, and at most one write is in flight at any
// time: a state scheduled while a write is running is written immediately
// after it completes, never interleaved with it.
type Saver struct {
	write      WriteFunc
	window     time.Duration
	maxRetries int

	mu       gosync.Mutex
	cond     *gosync.Cond
	timer    *time.Timer
	pending  []board.Object
	dirty    bool
	inFlight bool
	unsaved  bool
	closed   bool
}

func NewSaver(write WriteFunc, window time.Duration, maxRetries int) *Saver {
	if window <= 0 {
		window = time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	s := &Saver{
		write:      write,
		window:     window,
		maxRetries: maxRetries,
	}
	s.cond = gosync.NewCond(&s.mu)
	return s
}

// Schedule notes the newest state and (re)starts the debounce timer
func (s *Saver) Schedule(objects []board.Object) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		log.Println("[SAVE] schedule after close, dropping")
		return
	}

	s.pending = objects
	s.dirty = true

	if s.timer == nil {
		s.timer = time.AfterFunc(s.window, s.fire)
	} else {
		s.timer.Reset(s.window)
	}
}

// fire runs on the timer goroutine when the quiet period elapses
func (s *Saver) fire() {
	s.mu.Lock()
	if s.inFlight {
		// the completing write picks the pending state up
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.drain()
}

// drain writes pending states until none remain, one at a time
func (s *Saver) drain() {
	for {
		s.mu.Lock()
		if !s.dirty || s.inFlight {
			s.mu.Unlock()
			return
		}
		state := s.pending
		s.dirty = false
		s.inFlight = true
		s.mu.Unlock()

		err := s.attempt(state)

		s.mu.Lock()
		s.inFlight = false
		if err != nil {
			// keep the state in memory; it is retried on the next activity
			s.unsaved = true
			if !s.dirty {
				s.pending = state
				s.dirty = true
			}
			s.cond.Broadcast()
			s.mu.Unlock()
			log.Printf("[SAVE] write failed after retries: %v", err)
			return
		}
		s.unsaved = false
		s.cond.Broadcast()
		s.mu.Unlock()
	}
}

// attempt runs one write with bounded exponential backoff
func (s *Saver) attempt(state []board.Object) error {
	var err error
	backoff := retryBackoffBase
	for i := 0; i <= s.maxRetries; i++ {
		if i > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}
		err = s.write(context.Background(), state)
		if err == nil {
			return nil
		}
	}
	return err
}

// Flush cancels the debounce timer and writes any pending state before
// returning. A write already in flight is waited on, not cancelled.
func (s *Saver) Flush() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	for s.inFlight {
		s.cond.Wait()
	}
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	state := s.pending
	s.dirty = false
	s.inFlight = true
	s.mu.Unlock()

	err := s.attempt(state)

	s.mu.Lock()
	s.inFlight = false
	if err != nil {
		s.unsaved = true
		if !s.dirty {
			s.pending = state
			s.dirty = true
		}
	} else {
		s.unsaved = false
	}
	s.cond.Broadcast()
	s.mu.Unlock()

	return err
}

// Unsaved reports whether the last write attempt exhausted its retries.
// Surfaced to the user as a "changes not saved" indicator.
func (s *Saver) Unsaved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsaved
}

// Close flushes synchronously and stops accepting schedules
func (s *Saver) Close() error {
	err := s.Flush()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	return err
}
