package engine

import (
	"context"

	"github.com/pulseviz/pulseviz/logging"
)

// Stream consumes frames from a capture channel and keeps a Slot current.
// Backpressure policy: when analysis falls behind, stale frames are dropped
// and only the newest pending frame is analyzed. Responsiveness beats
// completeness here; queueing frames without bound would only grow latency.
type Stream struct {
	engine *Engine
	slot   Slot
	logger logging.Logger
}

// NewStream wraps an engine for channel-driven operation
func NewStream(e *Engine) *Stream {
	return &Stream{
		engine: e,
		logger: logging.WithFields(logging.Fields{"component": "stream"}),
	}
}

// Latest returns the most recent analysis result, or nil before the first
// frame completes. Safe to call from any goroutine.
func (s *Stream) Latest() *Result {
	return s.slot.Latest()
}

// Run processes frames until the channel closes or the context is canceled.
// Skipped frames (malformed input) are logged and do not stop the stream.
func (s *Stream) Run(ctx context.Context, frames <-chan Frame) error {
	for {
		var frame Frame
		var ok bool

		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok = <-frames:
			if !ok {
				return nil
			}
		}

		// Drop stale frames: analyze only the newest one pending.
		dropped := 0
	drain:
		for {
			select {
			case next, more := <-frames:
				if !more {
					break drain
				}
				frame = next
				dropped++
			default:
				break drain
			}
		}
		if dropped > 0 {
			s.logger.Debug("dropped stale frames", logging.Fields{"count": dropped})
		}

		result, err := s.engine.Analyze(frame)
		if err != nil {
			s.logger.Warn("frame skipped", logging.Fields{
				"frame": frame.Index,
				"error": err.Error(),
			})
		}
		s.slot.Publish(result)
	}
}
