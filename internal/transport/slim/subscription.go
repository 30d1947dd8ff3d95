package slim

import (
	"context"

	"github.com/agntcy/go-bridge-sdk/internal/transport"
)

// subscription serializes frame delivery for one topic: enqueue is called
// from readPump goroutines (possibly several, one per peer connection),
// loop drains the queue on a single goroutine so handler invocations for
// this topic are observed in arrival order (spec.md §5).
type subscription struct {
	topic   string
	handler transport.Handler
	queue   chan transport.Frame
	done    chan struct{}
	t       *Transport
}

func (s *subscription) Topic() string { return s.topic }

func (s *subscription) enqueue(frame transport.Frame) {
	select {
	case s.queue <- frame:
	default:
		s.t.logger.Warnf("slim: subscription %s queue full, dropping frame", s.topic)
	}
}

func (s *subscription) loop(ctx context.Context) {
	for {
		select {
		case frame, ok := <-s.queue:
			if !ok {
				return
			}
			s.handler(ctx, frame)
		case <-s.done:
			return
		}
	}
}

func (s *subscription) Close() error {
	s.t.mu.Lock()
	if existing, ok := s.t.subs[s.topic]; ok && existing == s {
		delete(s.t.subs, s.topic)
	}
	s.t.mu.Unlock()

	select {
	case <-s.done:
	default:
		close(s.done)
	}
	return nil
}
