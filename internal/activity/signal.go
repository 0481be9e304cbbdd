// Package activity carries the "drop activity happened" flag from notification
// producers to the monitor loop.
package activity

import (
	"sync/atomic"
	"time"
)

// Signal is a shared boolean set by any number of producers and cleared by a
// single consumer. The zero value is ready to use.
type Signal struct {
	pending atomic.Bool
	total   atomic.Uint64
	last    atomic.Int64 // unix nanos of the latest Notify
}

// New returns a cleared signal.
func New() *Signal {
	return &Signal{}
}

// Notify marks activity as pending. Safe to call from any goroutine.
func (s *Signal) Notify() {
	s.last.Store(time.Now().UnixNano())
	s.total.Add(1)
	s.pending.Store(true)
}

// Pending reports whether activity is waiting to be consumed.
func (s *Signal) Pending() bool {
	return s.pending.Load()
}

// Consume clears the flag and reports whether it was set.
func (s *Signal) Consume() bool {
	return s.pending.Swap(false)
}

// Total returns the number of notifications received since creation.
func (s *Signal) Total() uint64 {
	return s.total.Load()
}

// LastNotified returns the wall time of the latest notification, or the zero time.
func (s *Signal) LastNotified() time.Time {
	n := s.last.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
