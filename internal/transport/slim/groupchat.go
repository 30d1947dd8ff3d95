package slim

import (
	"context"
	"sync"

	"github.com/agntcy/go-bridge-sdk/internal/transport"
)

// groupChatSession is the moderator's view of a SLIM group chat channel: it
// relays every inbound publish on the channel to the other participants and
// exposes the same stream to the moderator's own caller via Recv.
type groupChatSession struct {
	channel      string
	participants []string

	mu      sync.Mutex
	members map[string]*peerConn

	inbox  chan transport.Frame
	sub    transport.Subscription
	t      *Transport
	once   sync.Once
	closed chan struct{}
}

func (s *groupChatSession) Channel() string { return s.channel }

func (s *groupChatSession) Participants() []string {
	return append([]string(nil), s.participants...)
}

// onRelay is the subscription handler bound to the channel topic: it fans
// the frame out to every other known participant and makes it available to
// the moderator's own Recv.
func (s *groupChatSession) onRelay(ctx context.Context, frame transport.Frame) {
	s.mu.Lock()
	members := make(map[string]*peerConn, len(s.members))
	for participant, pc := range s.members {
		members[participant] = pc
	}
	s.mu.Unlock()

	for participant, pc := range members {
		if participant == frame.From {
			continue
		}
		_ = pc.send(envelope{Kind: kindRelay, Channel: s.channel, From: frame.From, Payload: frame.Payload})
	}

	select {
	case s.inbox <- frame:
	default:
		s.t.logger.Warnf("slim: groupchat %s inbox full, dropping relay", s.channel)
	}
}

func (s *groupChatSession) Recv(ctx context.Context) (transport.Frame, error) {
	select {
	case frame, ok := <-s.inbox:
		if !ok {
			return transport.Frame{}, transport.ErrCancelled
		}
		return frame, nil
	case <-s.closed:
		return transport.Frame{}, transport.ErrCancelled
	case <-ctx.Done():
		return transport.Frame{}, ctx.Err()
	}
}

// Send emits payload as the moderator's own participant voice; onRelay fans
// it out to everyone else and makes it visible to the moderator's own Recv,
// the same as an inbound publish from a participant would.
func (s *groupChatSession) Send(ctx context.Context, payload []byte) error {
	s.onRelay(ctx, transport.NewFrame(payload, s.t.identity, "", ""))
	return nil
}

func (s *groupChatSession) Close() error {
	s.once.Do(func() {
		close(s.closed)
		if s.sub != nil {
			_ = s.sub.Close()
		}
		s.t.mu.Lock()
		delete(s.t.groups, s.channel)
		s.t.mu.Unlock()
	})
	return nil
}
