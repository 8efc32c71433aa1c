// Package snapshot
package snapshot

import (
	"sync"
	"time"
)

// Store holds the most recent value of T and when it was set.
type Store[T any] struct {
	mu    sync.RWMutex
	data  T
	setAt time.Time
}

func (s *Store[T]) Set(v T) {
	s.mu.Lock()
	s.data = v
	s.setAt = time.Now()
	s.mu.Unlock()
}

// Get returns the stored value and false when nothing was set yet.
func (s *Store[T]) Get() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data, !s.setAt.IsZero()
}

func (s *Store[T]) Age() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.setAt.IsZero() {
		return 0
	}
	return time.Since(s.setAt)
}
