package session

import (
	"fmt"

	"github.com/agntcy/go-bridge-sdk/internal/a2a"
	"github.com/agntcy/go-bridge-sdk/internal/bridge"
	"github.com/agntcy/go-bridge-sdk/internal/mcpengine"
	"github.com/agntcy/go-bridge-sdk/internal/transport"
)

// Builder accumulates the fields spec.md §4.4 requires before a child can be
// built, then picks the bridge variant by which Build* method is called —
// the Go equivalent of the target-type inspection the Python container
// performs at runtime, since Go's static typing already tells the builder
// which variant is wanted.
type Builder struct {
	sup       *Supervisor
	sessionID string
	topic     string
	tr        transport.Transport
	addr      string
}

// WithTopic sets the bridge's subscription/control topic. If omitted, each
// Build* method derives a default from the session id.
func (b *Builder) WithTopic(topic string) *Builder {
	b.topic = topic
	return b
}

// WithTransport attaches the transport a pub/sub or memory-stream bridge
// subscribes on. Required for A2A-Patterns and MCP-MemoryStream; optional
// for FastMCP-HTTP (enables the transport mirror); unused by A2A-SlimRPC
// only in the sense that slimrpc's transport is passed directly to
// BuildA2ASlimRPC rather than staged here, since it is never optional.
func (b *Builder) WithTransport(tr transport.Transport) *Builder {
	b.tr = tr
	return b
}

// WithAddr sets the HTTP listen address for FastMCP-HTTP and
// A2A-HTTP-JSONRPC (host:port; empty binds the bridge's own default).
func (b *Builder) WithAddr(addr string) *Builder {
	b.addr = addr
	return b
}

func (b *Builder) defaultTopic() string {
	if b.topic != "" {
		return b.topic
	}
	return b.sessionID
}

// BuildA2ASlimRPC registers an A2A-SlimRPC child: a unary request/reply
// bridge over tr (spec.md §4.3/§4.4's "A2A RPC config object" row).
func (b *Builder) BuildA2ASlimRPC(tr transport.Transport, handler *a2a.JSONRPCHandler) (*Child, error) {
	if tr == nil {
		return nil, fmt.Errorf("session: a2a-slimrpc child %s requires a transport", b.sessionID)
	}
	topic := b.defaultTopic()
	child := &Child{
		SessionID: b.sessionID,
		Topic:     topic,
		Kind:      "a2a-slimrpc",
		state:     StatePending,
		b:         bridge.NewA2ASlimRPCBridge(tr, topic, handler, b.sup.logger),
	}
	b.sup.register(child)
	return child, nil
}

// BuildA2APatterns registers an A2A-Patterns child: pub/sub with broadcast
// fan-out and moderated group chat (spec.md §4.4's "A2A app with Starlette,
// transport present" row). A transport is required.
func (b *Builder) BuildA2APatterns(handler *a2a.JSONRPCHandler) (*Child, error) {
	if b.tr == nil {
		return nil, fmt.Errorf("session: a2a-patterns child %s requires WithTransport", b.sessionID)
	}
	topic := b.defaultTopic()
	child := &Child{
		SessionID: b.sessionID,
		Topic:     topic,
		Kind:      "a2a-patterns",
		state:     StatePending,
		b:         bridge.NewA2APatternsBridge(b.tr, topic, handler, b.sup.logger),
	}
	b.sup.register(child)
	return child, nil
}

// BuildMCPMemoryStream registers an MCP-MemoryStream child: a low-level MCP
// server bridged to transport over a bounded channel pair (spec.md §4.4's
// "Low-level MCP server, transport required" row).
func (b *Builder) BuildMCPMemoryStream(engine *mcpengine.Engine) (*Child, error) {
	if b.tr == nil {
		return nil, fmt.Errorf("session: mcp-memorystream child %s requires WithTransport", b.sessionID)
	}
	topic := b.defaultTopic()
	child := &Child{
		SessionID: b.sessionID,
		Topic:     topic,
		Kind:      "mcp-memorystream",
		state:     StatePending,
		b:         bridge.NewMCPMemoryStreamBridge(b.tr, topic, engine, b.sup.logger),
	}
	b.sup.register(child)
	return child, nil
}

// BuildA2AHTTPJSONRPC registers an A2A-HTTP-JSONRPC child: a plain HTTP
// server answering one JSON-RPC request per POST, no SLIM/NATS session
// involved (spec.md §4.4's "A2A app with Starlette, no transport" row).
func (b *Builder) BuildA2AHTTPJSONRPC(handler *a2a.JSONRPCHandler) (*Child, error) {
	topic := b.defaultTopic()
	child := &Child{
		SessionID: b.sessionID,
		Topic:     topic,
		Kind:      "a2a-http-jsonrpc",
		state:     StatePending,
		b:         bridge.NewA2AHTTPJSONRPCBridge(b.addr, handler, b.sup.logger),
	}
	b.sup.register(child)
	return child, nil
}

// BuildFastMCPHTTP registers a FastMCP-HTTP child: the streamable-HTTP
// handshake server, optionally mirrored over a transport (spec.md §4.4's
// "FastMCP server, transport optional" row).
func (b *Builder) BuildFastMCPHTTP(engine *mcpengine.Engine) (*Child, error) {
	topic := b.defaultTopic()
	fb := bridge.NewFastMCPHTTPBridge(b.addr, engine, b.sup.logger)
	if b.tr != nil {
		fb = fb.WithTransportMirror(b.tr, topic)
	}
	child := &Child{
		SessionID: b.sessionID,
		Topic:     topic,
		Kind:      "fastmcp-http",
		state:     StatePending,
		b:         fb,
	}
	b.sup.register(child)
	return child, nil
}
