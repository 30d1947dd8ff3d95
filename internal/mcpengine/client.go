package mcpengine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/agntcy/go-bridge-sdk/internal/transport"
	"github.com/agntcy/go-bridge-sdk/internal/transport/pending"
)

// wireRequest/wireResponse are the minimal JSON-RPC 2.0 envelope the client
// and Engine's run loop agree on; MCP's own payload (tool name, arguments,
// content) lives in Params/Result, per spec.md §4.2's "opaque JSON-RPC"
// framing of MCP frames.
type wireRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type wireResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *wireError      `json:"error,omitempty"`
}

type wireError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Client calls tools on a remote MCP server reachable over a transport
// subscription rather than stdio — the reverse of Engine.Run: it writes
// requests out on topic and resolves replies read back in against a
// pending-request table (spec.md §4.5).
type Client struct {
	tr      transport.Transport
	topic   string
	pending *pending.Table
	sub     transport.Subscription
	logger  *logrus.Logger
}

// NewClient constructs a client that sends requests on topic. Call Open
// before CallTool/ListTools when tr does not answer RequestReply
// synchronously (the patterns/NATS pub-sub variants); the slimrpc variant
// needs no reply subscription.
func NewClient(tr transport.Transport, topic string, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{tr: tr, topic: topic, pending: pending.New(), logger: logger}
}

// Open subscribes to replyTopic so asynchronous replies can be matched
// against outstanding requests by JSON-RPC id.
func (c *Client) Open(ctx context.Context, replyTopic string) error {
	sub, err := c.tr.Subscribe(ctx, replyTopic, func(_ context.Context, frame transport.Frame) {
		var resp wireResponse
		if err := json.Unmarshal(frame.Payload, &resp); err != nil {
			c.logger.Warnf("mcpengine: client discarding malformed reply on %s: %v", replyTopic, err)
			return
		}
		c.pending.Resolve(resp.ID, frame.Payload)
	})
	if err != nil {
		return err
	}
	c.sub = sub
	return nil
}

func (c *Client) roundTrip(ctx context.Context, id string, data []byte, timeout time.Duration) ([]byte, error) {
	if c.sub == nil {
		return c.tr.RequestReply(ctx, c.topic, data, timeout)
	}

	replyCh, errCh := c.pending.Register(id)
	if err := c.tr.Publish(ctx, c.topic, data, transport.PublishOptions{}); err != nil {
		c.pending.Forget(id)
		return nil, err
	}

	select {
	case raw := <-replyCh:
		return raw, nil
	case err := <-errCh:
		return nil, err
	case <-time.After(timeout):
		c.pending.Forget(id)
		return nil, transport.ErrTimeout
	case <-ctx.Done():
		c.pending.Forget(id)
		return nil, ctx.Err()
	}
}

// CallTool invokes name on the remote server with args, waiting up to
// timeout for the correlated reply.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}, timeout time.Duration) (*mcp.CallToolResult, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	id := uuid.NewString()
	data, err := json.Marshal(wireRequest{JSONRPC: "2.0", ID: id, Method: "tools/call", Params: req.Params})
	if err != nil {
		return nil, fmt.Errorf("%w: encode tools/call: %v", transport.ErrDecode, err)
	}

	raw, err := c.roundTrip(ctx, id, data, timeout)
	if err != nil {
		return nil, err
	}

	var resp wireResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode tools/call response: %v", transport.ErrDecode, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("mcp error %d: %s", resp.Error.Code, resp.Error.Message)
	}

	result, err := mcp.ParseCallToolResult(&resp.Result)
	if err != nil {
		return nil, fmt.Errorf("%w: decode tools/call result: %v", transport.ErrDecode, err)
	}
	return result, nil
}

// ListTools lists the tools the remote server advertises.
func (c *Client) ListTools(ctx context.Context, timeout time.Duration) ([]mcp.Tool, error) {
	id := uuid.NewString()
	data, err := json.Marshal(wireRequest{JSONRPC: "2.0", ID: id, Method: "tools/list"})
	if err != nil {
		return nil, fmt.Errorf("%w: encode tools/list: %v", transport.ErrDecode, err)
	}

	raw, err := c.roundTrip(ctx, id, data, timeout)
	if err != nil {
		return nil, err
	}

	var resp wireResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode tools/list response: %v", transport.ErrDecode, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("mcp error %d: %s", resp.Error.Code, resp.Error.Message)
	}

	var result mcp.ListToolsResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("%w: decode tools/list result: %v", transport.ErrDecode, err)
	}
	return result.Tools, nil
}

// Close cancels any in-flight requests and unsubscribes from the reply
// topic, if one was opened.
func (c *Client) Close() error {
	c.pending.CancelAll()
	if c.sub != nil {
		return c.sub.Close()
	}
	return nil
}
