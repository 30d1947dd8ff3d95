package mcpengine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

// Engine wraps mark3labs/mcp-go's low-level MCPServer with the tool
// registrations a bridge exposes over a transport, grounded on the
// teacher's server.NewMCPServer/AddTool wiring in examples/mcp-filesystem-server.go.
type Engine struct {
	server *server.MCPServer
	logger *logrus.Logger
}

// NewEngine constructs a tool- and resource-capable MCP server under
// name/version.
func NewEngine(name, version string, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{
		server: server.NewMCPServer(name, version,
			server.WithToolCapabilities(true),
			server.WithResourceCapabilities(true, true),
		),
		logger: logger,
	}
}

// AddTool registers a tool definition and its invocation handler.
func (e *Engine) AddTool(tool mcp.Tool, handler func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)) {
	e.server.AddTool(tool, handler)
}

// HandleFrame dispatches one already-framed MCP JSON-RPC message and
// returns the marshaled response. Run calls it for every inbound frame; the
// FastMCP-HTTP bridge, which delivers discrete request/reply bodies rather
// than a continuous stream, calls it directly instead of going through Run.
func (e *Engine) HandleFrame(ctx context.Context, payload []byte) ([]byte, error) {
	msg := e.server.HandleMessage(ctx, payload)
	if msg == nil {
		return nil, nil
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("mcpengine: marshal response: %w", err)
	}
	return data, nil
}

// Run drains pair.Inbound, dispatches each frame through HandleFrame, and
// writes the JSON-RPC response to pair.Outbound. It returns when Inbound is
// closed and closes Outbound in turn, so the bridge's reply pump observes
// end-of-stream (spec.md §4.3.3).
func (e *Engine) Run(ctx context.Context, pair *StreamPair) {
	defer close(pair.Outbound)
	for {
		select {
		case frame, ok := <-pair.Inbound:
			if !ok {
				return
			}
			data, err := e.HandleFrame(ctx, frame)
			if err != nil {
				e.logger.Errorf("mcpengine: %v", err)
				continue
			}
			if data == nil {
				continue
			}
			select {
			case pair.Outbound <- data:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
