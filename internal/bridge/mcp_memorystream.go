package bridge

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/agntcy/go-bridge-sdk/internal/codec"
	"github.com/agntcy/go-bridge-sdk/internal/mcpengine"
	"github.com/agntcy/go-bridge-sdk/internal/transport"
)

const replyQueueCapacity = 256

// pendingReply correlates one outbound engine response with the stream it
// belongs to and the route to publish it on, since frames for several
// logical MCP streams can share one subscription (spec.md §4.2).
type pendingReply struct {
	streamID string
	replyTo  string
}

// MCPMemoryStreamBridge owns a pair of bounded ordered channels bridging a
// transport subscription to a low-level MCP server's run loop (spec.md
// §4.3's MCP-MemoryStream variant). Inbound transport payloads are decoded
// from their {stream_id, seq, payload_bytes} envelope and pumped into the
// engine; the engine's replies are drained, re-wrapped in the same
// envelope, and published back on each request's own reply route. Requests
// on one subscription are processed strictly in arrival order, so a FIFO of
// pending stream/reply pairs is enough to correlate replies without an
// explicit per-request id.
type MCPMemoryStreamBridge struct {
	tr     transport.Transport
	topic  string
	engine *mcpengine.Engine
	logger *logrus.Logger

	mu     sync.Mutex
	sub    transport.Subscription
	pair   *mcpengine.StreamPair
	cancel context.CancelFunc
}

// NewMCPMemoryStreamBridge constructs a bridge that will subscribe on topic
// and start engine's run loop once Start is called.
func NewMCPMemoryStreamBridge(tr transport.Transport, topic string, engine *mcpengine.Engine, logger *logrus.Logger) *MCPMemoryStreamBridge {
	if logger == nil {
		logger = logrus.New()
	}
	return &MCPMemoryStreamBridge{tr: tr, topic: topic, engine: engine, logger: logger}
}

func (b *MCPMemoryStreamBridge) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	pair := mcpengine.NewStreamPair()
	replyQ := make(chan pendingReply, replyQueueCapacity)

	sub, err := b.tr.Subscribe(ctx, b.topic, func(_ context.Context, frame transport.Frame) {
		mcpFrame, err := codec.DecodeMCPFrame(frame.Payload)
		if err != nil {
			b.logger.Warnf("bridge: mcp-memorystream discarding malformed frame on %s: %v", b.topic, err)
			return
		}

		select {
		case replyQ <- pendingReply{streamID: mcpFrame.StreamID, replyTo: frame.ReplyTo}:
		default:
			b.logger.Warnf("bridge: mcp-memorystream %s reply queue full, dropping frame", b.topic)
			return
		}

		select {
		case pair.Inbound <- mcpFrame.PayloadBytes:
		case <-runCtx.Done():
		}
	})
	if err != nil {
		cancel()
		return err
	}

	go b.engine.Run(runCtx, pair)
	go b.pumpOutbound(runCtx, pair, replyQ)

	b.mu.Lock()
	b.sub = sub
	b.pair = pair
	b.cancel = cancel
	b.mu.Unlock()
	return nil
}

// pumpOutbound drains the engine's replies and republishes each one on the
// route its originating request carried in. It is the bridge's single
// writer for this direction — the concurrent inbound pump never touches
// these channels — satisfying spec.md §5's no-interleaved-writes rule.
func (b *MCPMemoryStreamBridge) pumpOutbound(ctx context.Context, pair *mcpengine.StreamPair, replyQ chan pendingReply) {
	seq := make(map[string]uint64)
	for {
		select {
		case payload, ok := <-pair.Outbound:
			if !ok {
				return
			}

			var pr pendingReply
			select {
			case pr = <-replyQ:
			default:
			}
			replyTo := pr.replyTo
			if replyTo == "" {
				replyTo = b.topic
			}

			n := seq[pr.streamID]
			seq[pr.streamID] = n + 1

			data, err := codec.EncodeMCPFrame(pr.streamID, n, payload)
			if err != nil {
				b.logger.Errorf("bridge: mcp-memorystream encode reply: %v", err)
				continue
			}
			if err := b.tr.Publish(ctx, replyTo, data, transport.PublishOptions{}); err != nil {
				b.logger.Errorf("bridge: mcp-memorystream publish reply: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close cancels the engine's run loop, closes the memory-stream pair, and
// unsubscribes from the transport.
func (b *MCPMemoryStreamBridge) Close() error {
	b.mu.Lock()
	sub := b.sub
	pair := b.pair
	cancel := b.cancel
	b.sub = nil
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if pair != nil {
		pair.Close()
	}
	if sub == nil {
		return nil
	}
	return sub.Close()
}
