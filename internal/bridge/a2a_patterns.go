package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agntcy/go-bridge-sdk/internal/a2a"
	"github.com/agntcy/go-bridge-sdk/internal/transport"
)

// groupChatMethod is the JSON-RPC method name signaling a group-chat
// session initiation rather than an ordinary unary call (spec.md §4.3).
const groupChatMethod = "groupchat init"

const defaultGroupChatTimeout = 30 * time.Second

type groupChatInitParams struct {
	Channel      string   `json:"channel"`
	Participants []string `json:"participants"`
	EndMessage   string   `json:"endMessage"`
	TimeoutMS    int64    `json:"timeoutMs"`
}

// A2APatternsBridge owns a pub/sub subscription on the agent's derived
// topic over SLIM or NATS, dispatching each inbound envelope through the
// A2A engine directly with no HTTP layer in front (spec.md §4.3's
// A2A-Patterns variant). It supports unary request/reply, broadcast-group
// fan-out, and moderated group chat.
type A2APatternsBridge struct {
	tr      transport.Transport
	topic   string
	handler *a2a.JSONRPCHandler
	logger  *logrus.Logger

	mu  sync.Mutex
	sub transport.Subscription
}

// NewA2APatternsBridge constructs a bridge that will subscribe on topic
// once Start is called.
func NewA2APatternsBridge(tr transport.Transport, topic string, handler *a2a.JSONRPCHandler, logger *logrus.Logger) *A2APatternsBridge {
	if logger == nil {
		logger = logrus.New()
	}
	return &A2APatternsBridge{tr: tr, topic: topic, handler: handler, logger: logger}
}

func (b *A2APatternsBridge) Start(ctx context.Context) error {
	sub, err := b.tr.Subscribe(ctx, b.topic, b.onEnvelope)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.sub = sub
	b.mu.Unlock()
	return nil
}

func (b *A2APatternsBridge) onEnvelope(ctx context.Context, frame transport.Frame) {
	var env a2a.BroadcastEnvelope
	if err := json.Unmarshal(frame.Payload, &env); err != nil {
		b.logger.Warnf("bridge: a2a-patterns discarding malformed envelope on %s: %v", b.topic, err)
		return
	}

	if env.Method == groupChatMethod {
		b.handleGroupChatInit(ctx, env)
		return
	}

	resp := b.handler.Dispatch(ctx, env.JSONRPCRequest)
	data, err := json.Marshal(resp)
	if err != nil {
		b.logger.Errorf("bridge: a2a-patterns encode response: %v", err)
		return
	}

	// A request addressed to a broadcast group replies to the group's reply
	// subject instead of the frame's own reply route (spec.md §4.3 fan-out).
	replyTo := frame.ReplyTo
	if env.BroadcastTopic != "" {
		replyTo = env.BroadcastTopic
	}
	if replyTo == "" {
		b.logger.Warn("bridge: a2a-patterns request carries no reply route, dropping response")
		return
	}
	if err := b.tr.Publish(ctx, replyTo, data, transport.PublishOptions{SessionID: frame.SessionID}); err != nil {
		b.logger.Errorf("bridge: a2a-patterns publish reply: %v", err)
	}
}

func (b *A2APatternsBridge) handleGroupChatInit(ctx context.Context, env a2a.BroadcastEnvelope) {
	var params groupChatInitParams
	if err := json.Unmarshal(env.Params, &params); err != nil {
		b.logger.Warnf("bridge: a2a-patterns malformed groupchat init: %v", err)
		return
	}

	timeout := time.Duration(params.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultGroupChatTimeout
	}

	// The relay channel must be distinct from the bridge's own control topic:
	// b.topic already carries a subscription for incoming envelopes, and
	// StartGroupChat subscribes again on whatever channel it is given.
	channel := params.Channel
	if channel == "" {
		channel = b.topic + "/groupchat"
	}

	session, err := b.tr.StartGroupChat(ctx, channel, params.Participants)
	if err != nil {
		b.logger.Errorf("bridge: a2a-patterns start groupchat: %v", err)
		return
	}
	go b.runGroupChat(ctx, session, params.EndMessage, timeout)
}

// runGroupChat watches the relayed transcript for endMessage, closing the
// session once seen or once timeout elapses. Relaying itself is the
// transport's job (GroupChatSession fans out every participant's emission);
// this loop only decides when the conversation is over. Per the policy
// decision in DESIGN.md, the message carrying endMessage is still relayed
// to the other participants before the session closes — it is observed
// here, not suppressed.
func (b *A2APatternsBridge) runGroupChat(ctx context.Context, session transport.GroupChatSession, endMessage string, timeout time.Duration) {
	defer session.Close()

	deadlineCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		frame, err := session.Recv(deadlineCtx)
		if err != nil {
			return
		}
		if string(frame.Payload) == endMessage {
			return
		}
	}
}

func (b *A2APatternsBridge) Close() error {
	b.mu.Lock()
	sub := b.sub
	b.sub = nil
	b.mu.Unlock()
	if sub == nil {
		return nil
	}
	return sub.Close()
}
