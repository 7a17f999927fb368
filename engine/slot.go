package engine

import "sync/atomic"

// Slot is an atomic single-result handoff between the analysis goroutine and
// a reader (typically the UI). The writer publishes each new result; readers
// always observe a complete one. Results are immutable, so sharing the
// pointer is safe.
type Slot struct {
	current atomic.Pointer[Result]
}

// Publish makes result the latest visible one
func (s *Slot) Publish(result *Result) {
	s.current.Store(result)
}

// Latest returns the most recently published result, or nil before the
// first publish
func (s *Slot) Latest() *Result {
	return s.current.Load()
}
