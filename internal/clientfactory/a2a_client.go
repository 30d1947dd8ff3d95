package clientfactory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/agntcy/go-bridge-sdk/internal/a2a"
	"github.com/agntcy/go-bridge-sdk/internal/transport"
	"github.com/agntcy/go-bridge-sdk/internal/transport/nats"
	"github.com/agntcy/go-bridge-sdk/internal/transport/slim"
	"github.com/agntcy/go-bridge-sdk/pkg/agentcard"
)

const defaultRPCTimeout = 15 * time.Second

// A2AClient is the unary client every negotiated transport satisfies:
// send a message, poll a task, cancel a task (spec.md §4.5's base client).
type A2AClient interface {
	SendMessage(ctx context.Context, msg a2a.Message) (a2a.Task, error)
	GetTask(ctx context.Context, taskID string) (a2a.Task, error)
	CancelTask(ctx context.Context, taskID string) (a2a.Task, error)
	Close() error
}

// A2AExperimentalClient extends A2AClient with the pub/sub-pattern
// operations only slimpatterns/natspatterns support (spec.md §4.5 step 5).
type A2AExperimentalClient interface {
	A2AClient
	BroadcastMessage(ctx context.Context, msg a2a.Message, recipients []string, expected int, timeout time.Duration) ([]a2a.Task, error)
	StartGroupChat(ctx context.Context, channel string, participants []string) (transport.GroupChatSession, error)
}

// A2AFactory builds A2AClient/A2AExperimentalClient values against a single
// client-side transport configuration.
type A2AFactory struct {
	cfg    transport.ClientConfig
	logger *logrus.Logger
}

// A2A returns a factory scoped to cfg (spec.md §4.5's factory.a2a(config)).
func A2A(cfg transport.ClientConfig, logger *logrus.Logger) *A2AFactory {
	if logger == nil {
		logger = logrus.New()
	}
	return &A2AFactory{cfg: cfg, logger: logger}
}

// Create negotiates a transport against card and returns the matching
// client. For slimpatterns/natspatterns it returns an A2AExperimentalClient;
// for slimrpc/jsonrpc it returns the base A2AClient (spec.md §4.5 step 5).
func (f *A2AFactory) Create(ctx context.Context, card *agentcard.Card) (A2AClient, error) {
	chosen, err := negotiate(card, f.cfg)
	if err != nil {
		return nil, err
	}

	url, _ := card.URLForTransport(chosen)

	switch chosen {
	case agentcard.TransportSlimRPC:
		tr, err := f.dialSlim(ctx, url)
		if err != nil {
			return nil, err
		}
		return &slimRPCClient{tr: tr, topic: url, logger: f.logger}, nil

	case agentcard.TransportSlimPatterns:
		tr, err := f.dialSlim(ctx, url)
		if err != nil {
			return nil, err
		}
		return &patternsClient{tr: tr, topic: url, replyTopic: url + "/reply/" + uuid.NewString(), logger: f.logger}, nil

	case agentcard.TransportNatsPatterns:
		tr, err := f.dialNats(ctx, url)
		if err != nil {
			return nil, err
		}
		return &patternsClient{tr: tr, topic: url, replyTopic: url + ".reply." + uuid.NewString(), logger: f.logger}, nil

	case agentcard.TransportJSONRPC:
		if f.cfg.HTTPBaseURL == "" {
			return nil, fmt.Errorf("clientfactory: jsonrpc negotiated but HTTPBaseURL not configured")
		}
		return newHTTPJSONRPCClient(f.cfg.HTTPBaseURL, url, f.logger), nil

	default:
		return nil, fmt.Errorf("clientfactory: %w: unrecognized transport %q", transport.ErrNoCompatibleTransport, chosen)
	}
}

// dialSlim connects a fresh SLIM transport for this client and routes topic
// to the peer address configured in ClientConfig.Slim.Endpoint. The client
// itself listens on an ephemeral address, which peers dial back to deliver
// broadcast replies to its reply topic and group chat invites, mirroring the
// client-side connect pattern every slim bridge test uses.
func (f *A2AFactory) dialSlim(ctx context.Context, topic string) (transport.Transport, error) {
	if f.cfg.RPCChannel != nil {
		return f.cfg.RPCChannel()
	}
	if f.cfg.Slim == nil {
		return nil, fmt.Errorf("clientfactory: slim transport negotiated but no Slim config supplied")
	}
	tr := slim.New(f.logger)
	creds := transport.Credentials{Identity: f.cfg.Slim.Identity, SharedSecret: f.cfg.Slim.SharedSecret, TLSInsecure: f.cfg.Slim.TLSInsecure}
	if err := tr.Connect(ctx, "127.0.0.1:0", creds); err != nil {
		return nil, err
	}
	if topic != "" {
		tr.SetRoute(topic, f.cfg.Slim.Endpoint)
	}
	return tr, nil
}

func (f *A2AFactory) dialNats(ctx context.Context, endpoint string) (transport.Transport, error) {
	if f.cfg.Nats == nil {
		return nil, fmt.Errorf("clientfactory: nats transport negotiated but no Nats config supplied")
	}
	tr := nats.New(f.logger)
	if err := tr.Connect(ctx, f.cfg.Nats.Endpoint, transport.Credentials{}); err != nil {
		return nil, err
	}
	_ = endpoint
	return tr, nil
}

// slimRPCClient is the plain unary client: one JSON-RPC request per call,
// carried over transport.RequestReply with no envelope (spec.md §4.2's
// "slimrpc carries raw JSON-RPC bytes").
type slimRPCClient struct {
	tr     transport.Transport
	topic  string
	logger *logrus.Logger
}

func (c *slimRPCClient) call(ctx context.Context, method string, params interface{}) (a2a.Task, error) {
	var task a2a.Task
	raw, err := json.Marshal(params)
	if err != nil {
		return task, err
	}
	req := a2a.JSONRPCRequest{JSONRPC: "2.0", ID: uuid.NewString(), Method: method, Params: raw}
	data, err := json.Marshal(req)
	if err != nil {
		return task, err
	}

	replyRaw, err := c.tr.RequestReply(ctx, c.topic, data, defaultRPCTimeout)
	if err != nil {
		return task, err
	}

	var resp a2a.JSONRPCResponse
	if err := json.Unmarshal(replyRaw, &resp); err != nil {
		return task, fmt.Errorf("%w: decode %s response: %v", transport.ErrDecode, method, err)
	}
	if resp.Error != nil {
		return task, resp.Error
	}
	if err := json.Unmarshal(resp.Result, &task); err != nil {
		return task, fmt.Errorf("%w: decode %s result: %v", transport.ErrDecode, method, err)
	}
	return task, nil
}

func (c *slimRPCClient) SendMessage(ctx context.Context, msg a2a.Message) (a2a.Task, error) {
	return c.call(ctx, "message/send", map[string]interface{}{"message": msg})
}

func (c *slimRPCClient) GetTask(ctx context.Context, taskID string) (a2a.Task, error) {
	return c.call(ctx, "tasks/get", map[string]interface{}{"id": taskID})
}

func (c *slimRPCClient) CancelTask(ctx context.Context, taskID string) (a2a.Task, error) {
	return c.call(ctx, "tasks/cancel", map[string]interface{}{"id": taskID})
}

func (c *slimRPCClient) Close() error {
	return c.tr.Close()
}

// patternsClient is the experimental client for slimpatterns/natspatterns:
// same unary calls as slimRPCClient, plus broadcast and group chat driven
// directly through the underlying transport.Transport (spec.md §4.5 step 5).
type patternsClient struct {
	tr         transport.Transport
	topic      string
	replyTopic string
	logger     *logrus.Logger

	mu        sync.Mutex
	replySub  transport.Subscription
	replyChan chan []byte
}

func (c *patternsClient) call(ctx context.Context, method string, params interface{}) (a2a.Task, error) {
	var task a2a.Task
	raw, err := json.Marshal(params)
	if err != nil {
		return task, err
	}
	req := a2a.JSONRPCRequest{JSONRPC: "2.0", ID: uuid.NewString(), Method: method, Params: raw}
	data, err := json.Marshal(req)
	if err != nil {
		return task, err
	}

	replyRaw, err := c.tr.RequestReply(ctx, c.topic, data, defaultRPCTimeout)
	if err != nil {
		return task, err
	}

	var resp a2a.JSONRPCResponse
	if err := json.Unmarshal(replyRaw, &resp); err != nil {
		return task, fmt.Errorf("%w: decode %s response: %v", transport.ErrDecode, method, err)
	}
	if resp.Error != nil {
		return task, resp.Error
	}
	if err := json.Unmarshal(resp.Result, &task); err != nil {
		return task, fmt.Errorf("%w: decode %s result: %v", transport.ErrDecode, method, err)
	}
	return task, nil
}

func (c *patternsClient) SendMessage(ctx context.Context, msg a2a.Message) (a2a.Task, error) {
	return c.call(ctx, "message/send", map[string]interface{}{"message": msg})
}

func (c *patternsClient) GetTask(ctx context.Context, taskID string) (a2a.Task, error) {
	return c.call(ctx, "tasks/get", map[string]interface{}{"id": taskID})
}

func (c *patternsClient) CancelTask(ctx context.Context, taskID string) (a2a.Task, error) {
	return c.call(ctx, "tasks/cancel", map[string]interface{}{"id": taskID})
}

// ensureReplySub lazily opens the dedicated reply-topic subscription every
// broadcast reply is routed to (BroadcastEnvelope.BroadcastTopic), mirroring
// the pattern internal/bridge's own broadcast test drives the bridge with:
// a separate subscription, not the transport's built-in Broadcast/request
// correlation, since A2APatternsBridge.onEnvelope publishes its reply to
// BroadcastTopic rather than replying through the transport's own
// kindReply/kindBroadcast correlation.
func (c *patternsClient) ensureReplySub(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.replySub != nil {
		return nil
	}
	ch := make(chan []byte, 16)
	sub, err := c.tr.Subscribe(ctx, c.replyTopic, func(_ context.Context, frame transport.Frame) {
		select {
		case ch <- frame.Payload:
		default:
			c.logger.Warn("clientfactory: broadcast reply channel full, dropping reply")
		}
	})
	if err != nil {
		return err
	}
	c.replySub = sub
	c.replyChan = ch
	return nil
}

// BroadcastMessage publishes msg to every recipient topic with BroadcastTopic
// set to this client's own reply topic, then collects up to expected replies
// (or whatever arrives before timeout), per spec.md §4.3's fan-out pattern
// and §8 Scenario 3 (independent servers on distinct topics, one call
// collecting replies from however many answer). recipients addresses each
// server individually: this transport routes one topic to one peer, so
// reaching several peers means publishing to each of their topics, not just
// embedding the list in the envelope. An empty recipients list falls back
// to c.topic, treating it as a single broadcast group.
func (c *patternsClient) BroadcastMessage(ctx context.Context, msg a2a.Message, recipients []string, expected int, timeout time.Duration) ([]a2a.Task, error) {
	if err := c.ensureReplySub(ctx); err != nil {
		return nil, err
	}

	params, err := json.Marshal(map[string]interface{}{"message": msg})
	if err != nil {
		return nil, err
	}
	env := a2a.BroadcastEnvelope{
		JSONRPCRequest: a2a.JSONRPCRequest{JSONRPC: "2.0", ID: uuid.NewString(), Method: "message/send", Params: params},
		BroadcastTopic: c.replyTopic,
		Recipients:     recipients,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}

	targets := recipients
	if len(targets) == 0 {
		targets = []string{c.topic}
	}
	published := 0
	for _, topic := range targets {
		if err := c.tr.Publish(ctx, topic, data, transport.PublishOptions{}); err != nil {
			c.logger.Warnf("clientfactory: broadcast publish to %s failed: %v", topic, err)
			continue
		}
		published++
	}
	if published == 0 {
		return nil, fmt.Errorf("clientfactory: broadcast reached no recipients out of %d", len(targets))
	}

	deadline := time.After(timeout)
	tasks := make([]a2a.Task, 0, expected)
	for expected <= 0 || len(tasks) < expected {
		select {
		case raw := <-c.replyChan:
			var resp a2a.JSONRPCResponse
			if err := json.Unmarshal(raw, &resp); err != nil {
				c.logger.Warnf("clientfactory: discarding malformed broadcast reply: %v", err)
				continue
			}
			if resp.Error != nil {
				c.logger.Warnf("clientfactory: broadcast reply error: %v", resp.Error)
				continue
			}
			var task a2a.Task
			if err := json.Unmarshal(resp.Result, &task); err != nil {
				c.logger.Warnf("clientfactory: discarding undecodable broadcast task: %v", err)
				continue
			}
			tasks = append(tasks, task)
		case <-deadline:
			return tasks, nil
		case <-ctx.Done():
			return tasks, ctx.Err()
		}
	}
	return tasks, nil
}

// StartGroupChat opens a moderated session with participants, delegating
// directly to the transport (spec.md §4.3's group chat pattern).
func (c *patternsClient) StartGroupChat(ctx context.Context, channel string, participants []string) (transport.GroupChatSession, error) {
	return c.tr.StartGroupChat(ctx, channel, participants)
}

func (c *patternsClient) Close() error {
	c.mu.Lock()
	sub := c.replySub
	c.mu.Unlock()
	if sub != nil {
		_ = sub.Close()
	}
	return c.tr.Close()
}
