package runner

import "context"

// Semaphore bounds how many policy runs execute at once.
type Semaphore struct {
	ch chan struct{}
}

// NewSemaphore creates a semaphore with n slots. n <= 0 returns nil, which
// never blocks.
func NewSemaphore(n int) *Semaphore {
	if n <= 0 {
		return nil
	}
	return &Semaphore{ch: make(chan struct{}, n)}
}

// Acquire blocks until a slot is free. It returns false if ctx ends first.
func (s *Semaphore) Acquire(ctx context.Context) bool {
	if s == nil {
		return true
	}
	select {
	case s.ch <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

// Release frees a slot.
func (s *Semaphore) Release() {
	if s == nil {
		return
	}
	<-s.ch
}

// Capacity returns the slot count, 0 meaning unlimited.
func (s *Semaphore) Capacity() int {
	if s == nil {
		return 0
	}
	return cap(s.ch)
}
