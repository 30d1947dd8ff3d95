package bridge

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/agntcy/go-bridge-sdk/internal/a2a"
	"github.com/agntcy/go-bridge-sdk/internal/transport"
)

// A2ASlimRPCBridge owns a native RPC subscription bound to the agent's
// identity topic: each inbound frame is a JSON-RPC request, dispatched
// through the A2A engine and answered on the frame's own reply route
// (spec.md §4.3's A2A-SlimRPC variant — the unary case, no fan-out or
// group chat).
type A2ASlimRPCBridge struct {
	tr      transport.Transport
	topic   string
	handler *a2a.JSONRPCHandler
	logger  *logrus.Logger

	mu  sync.Mutex
	sub transport.Subscription
}

// NewA2ASlimRPCBridge constructs a bridge that will subscribe on topic once
// Start is called.
func NewA2ASlimRPCBridge(tr transport.Transport, topic string, handler *a2a.JSONRPCHandler, logger *logrus.Logger) *A2ASlimRPCBridge {
	if logger == nil {
		logger = logrus.New()
	}
	return &A2ASlimRPCBridge{tr: tr, topic: topic, handler: handler, logger: logger}
}

// Start subscribes on topic. Inbound frames are processed in arrival order
// by the transport's subscription (spec.md §5).
func (b *A2ASlimRPCBridge) Start(ctx context.Context) error {
	sub, err := b.tr.Subscribe(ctx, b.topic, b.onFrame)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.sub = sub
	b.mu.Unlock()
	return nil
}

func (b *A2ASlimRPCBridge) onFrame(ctx context.Context, frame transport.Frame) {
	var req a2a.JSONRPCRequest
	if err := json.Unmarshal(frame.Payload, &req); err != nil {
		b.logger.Warnf("bridge: a2a-slimrpc discarding malformed request on %s: %v", b.topic, err)
		return
	}

	resp := b.handler.Dispatch(ctx, req)
	data, err := json.Marshal(resp)
	if err != nil {
		b.logger.Errorf("bridge: a2a-slimrpc encode response: %v", err)
		return
	}

	replyTo := frame.ReplyTo
	if replyTo == "" {
		replyTo = b.topic
	}
	if err := b.tr.Publish(ctx, replyTo, data, transport.PublishOptions{SessionID: frame.SessionID}); err != nil {
		b.logger.Errorf("bridge: a2a-slimrpc publish reply: %v", err)
	}
}

// Close unsubscribes, releasing the topic for reuse.
func (b *A2ASlimRPCBridge) Close() error {
	b.mu.Lock()
	sub := b.sub
	b.sub = nil
	b.mu.Unlock()
	if sub == nil {
		return nil
	}
	return sub.Close()
}
