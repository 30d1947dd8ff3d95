package nats

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/agntcy/go-bridge-sdk/internal/transport"
)

// subscription queues inbound frames so handler invocations for this
// subject are observed in arrival order (spec.md §5), mirroring the SLIM
// transport's subscription shape.
type subscription struct {
	topic   string
	handler transport.Handler
	queue   chan transport.Frame
	done    chan struct{}
	natsSub *nats.Subscription
	t       *Transport
}

func (s *subscription) Topic() string { return s.topic }

func (s *subscription) enqueue(frame transport.Frame) {
	select {
	case s.queue <- frame:
	default:
		s.t.logger.Warnf("nats: subscription %s queue full, dropping frame", s.topic)
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

	if s.natsSub != nil {
		_ = s.natsSub.Unsubscribe()
	}

	select {
	case <-s.done:
	default:
		close(s.done)
	}
	return nil
}
