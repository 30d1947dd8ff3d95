// Package nats implements the NATS transport variant: subject-based
// pub/sub with a fresh inbox subject per request_reply call. Subjects
// follow the three-segment topic identity; group chat is unsupported.
package nats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/agntcy/go-bridge-sdk/internal/transport"
)

// Transport is the NATS carrier. It satisfies transport.Transport.
type Transport struct {
	logger *logrus.Logger

	mu     sync.RWMutex
	nc     *nats.Conn
	subs   map[string]*subscription
	closed bool
}

// New constructs an unconnected NATS transport.
func New(logger *logrus.Logger) *Transport {
	if logger == nil {
		logger = logrus.New()
	}
	return &Transport{logger: logger, subs: make(map[string]*subscription)}
}

// Connect dials endpoint (bare "host:port" is accepted and normalized to a
// nats:// URL). Idempotent while the existing connection is healthy.
func (t *Transport) Connect(ctx context.Context, endpoint string, creds transport.Credentials) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.nc != nil && !t.nc.IsClosed() {
		return nil
	}

	url := endpoint
	if !strings.Contains(url, "://") {
		url = "nats://" + url
	}

	var opts []nats.Option
	if creds.Identity != "" {
		opts = append(opts, nats.Name(creds.Identity))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return fmt.Errorf("%w: %v", transport.ErrConnect, err)
	}

	t.nc = nc
	return nil
}

func (t *Transport) conn() (*nats.Conn, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.nc == nil {
		return nil, fmt.Errorf("%w: not connected", transport.ErrConnect)
	}
	return t.nc, nil
}

// Subscribe registers handler for every message published on topic.
func (t *Transport) Subscribe(ctx context.Context, topic string, handler transport.Handler) (transport.Subscription, error) {
	t.mu.Lock()
	if _, exists := t.subs[topic]; exists {
		t.mu.Unlock()
		return nil, transport.ErrAlreadySubscribed
	}
	nc := t.nc
	t.mu.Unlock()

	if nc == nil {
		return nil, fmt.Errorf("%w: not connected", transport.ErrConnect)
	}

	sub := &subscription{
		topic:   topic,
		handler: handler,
		queue:   make(chan transport.Frame, 64),
		done:    make(chan struct{}),
		t:       t,
	}

	natsSub, err := nc.Subscribe(topic, func(msg *nats.Msg) {
		sub.enqueue(transport.NewFrame(msg.Data, "", msg.Reply, ""))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", transport.ErrTransport, err)
	}
	sub.natsSub = natsSub

	t.mu.Lock()
	t.subs[topic] = sub
	t.mu.Unlock()

	go sub.loop(ctx)

	return sub, nil
}

// Publish sends payload on topic, fire-and-forget. When opts.SessionID is
// set it is used as the NATS reply-to subject, letting a handler answer a
// request_reply call by publishing back to frame.ReplyTo.
func (t *Transport) Publish(ctx context.Context, topic string, payload []byte, opts transport.PublishOptions) error {
	nc, err := t.conn()
	if err != nil {
		return err
	}
	if opts.SessionID != "" {
		err = nc.PublishRequest(topic, opts.SessionID, payload)
	} else {
		err = nc.Publish(topic, payload)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", transport.ErrTransport, err)
	}
	return nil
}

// RequestReply sends payload on topic via a fresh inbox subject and awaits
// exactly one reply, per spec.md §4.1's NATS rule.
func (t *Transport) RequestReply(ctx context.Context, topic string, payload []byte, timeout time.Duration) ([]byte, error) {
	nc, err := t.conn()
	if err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msg, err := nc.RequestWithContext(reqCtx, topic, payload)
	if err != nil {
		if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			return nil, transport.ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", transport.ErrTransport, err)
	}
	return msg.Data, nil
}

// Broadcast publishes once on topic with a fresh inbox as the reply-to and
// collects replies on that inbox until expected arrive or timeout elapses.
// recipients bounds the expected reply count but does not address
// individual peers — NATS broadcast is scatter-gather over one subject, not
// per-recipient delivery.
func (t *Transport) Broadcast(ctx context.Context, topic string, payload []byte, recipients []string, expected int, timeout time.Duration) ([][]byte, error) {
	nc, err := t.conn()
	if err != nil {
		return nil, err
	}

	inbox := nats.NewInbox()
	resultsCh := make(chan []byte, len(recipients)+1)

	inboxSub, err := nc.Subscribe(inbox, func(msg *nats.Msg) {
		select {
		case resultsCh <- msg.Data:
		default:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", transport.ErrTransport, err)
	}
	defer inboxSub.Unsubscribe()

	if err := nc.PublishMsg(&nats.Msg{Subject: topic, Reply: inbox, Data: payload}); err != nil {
		return nil, fmt.Errorf("%w: %v", transport.ErrTransport, err)
	}

	maxResults := expected
	if len(recipients) > 0 && (maxResults == 0 || len(recipients) < maxResults) {
		maxResults = len(recipients)
	}

	deadline := time.After(timeout)
	var results [][]byte
	for maxResults <= 0 || len(results) < maxResults {
		select {
		case data := <-resultsCh:
			results = append(results, data)
		case <-deadline:
			return results, nil
		case <-ctx.Done():
			return results, ctx.Err()
		}
	}
	return results, nil
}

// StartGroupChat always fails: NATS has no moderated multi-party session
// primitive (spec.md §4.1).
func (t *Transport) StartGroupChat(ctx context.Context, channel string, participants []string) (transport.GroupChatSession, error) {
	return nil, fmt.Errorf("%w: NATS transport does not support group chat", transport.ErrUnsupportedOperation)
}

// Close unsubscribes every subscription and closes the underlying
// connection.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true

	subs := t.subs
	t.subs = make(map[string]*subscription)
	nc := t.nc
	t.mu.Unlock()

	for _, sub := range subs {
		if sub.natsSub != nil {
			_ = sub.natsSub.Unsubscribe()
		}
		close(sub.done)
	}

	if nc != nil {
		nc.Close()
	}
	return nil
}
