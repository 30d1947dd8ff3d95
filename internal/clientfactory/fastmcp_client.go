package clientfactory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/agntcy/go-bridge-sdk/internal/transport"
)

const mcpSessionHeader = "Mcp-Session-Id"

// FastMCPClient performs the two-POST MCP streamable-HTTP handshake before
// issuing tool calls (spec.md §4.5's "FastMCP clients perform the two-POST
// HTTP handshake before returning"), grounded on the initialize/tools-list
// request shapes internal/bridge.FastMCPHTTPBridge serves.
type FastMCPClient struct {
	baseURL   string
	client    *http.Client
	sessionID string
}

// NewFastMCPClient dials baseURL, running the initialize ->
// notifications/initialized handshake before returning a ready client.
func NewFastMCPClient(ctx context.Context, baseURL string) (*FastMCPClient, error) {
	c := &FastMCPClient{baseURL: baseURL, client: &http.Client{}}
	if err := c.handshake(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *FastMCPClient) handshake(ctx context.Context) error {
	initResp, err := c.post(ctx, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      uuid.NewString(),
		"method":  "initialize",
		"params": map[string]interface{}{
			"protocolVersion": mcp.LATEST_PROTOCOL_VERSION,
			"capabilities":    map[string]interface{}{},
			"clientInfo":      map[string]interface{}{"name": "go-bridge-sdk", "version": "0.1.0"},
		},
	}, "")
	if err != nil {
		return err
	}
	defer initResp.Body.Close()
	if initResp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: fastmcp initialize returned %d", transport.ErrConnect, initResp.StatusCode)
	}
	sessionID := initResp.Header.Get(mcpSessionHeader)
	if sessionID == "" {
		return fmt.Errorf("%w: fastmcp initialize returned no session header", transport.ErrConnect)
	}
	c.sessionID = sessionID

	ackResp, err := c.post(ctx, map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "notifications/initialized",
	}, c.sessionID)
	if err != nil {
		return err
	}
	defer ackResp.Body.Close()
	if ackResp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: fastmcp notifications/initialized returned %d", transport.ErrConnect, ackResp.StatusCode)
	}
	return nil
}

func (c *FastMCPClient) post(ctx context.Context, body map[string]interface{}, sessionID string) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(mcpSessionHeader, sessionID)
	}
	return c.client.Do(req)
}

type fastmcpResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ListTools lists the tools the FastMCP server advertises.
func (c *FastMCPClient) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	resp, err := c.post(ctx, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      uuid.NewString(),
		"method":  "tools/list",
	}, c.sessionID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var wire fastmcpResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("%w: decode tools/list response: %v", transport.ErrDecode, err)
	}
	if wire.Error != nil {
		return nil, fmt.Errorf("fastmcp error %d: %s", wire.Error.Code, wire.Error.Message)
	}
	var result mcp.ListToolsResult
	if err := json.Unmarshal(wire.Result, &result); err != nil {
		return nil, fmt.Errorf("%w: decode tools/list result: %v", transport.ErrDecode, err)
	}
	return result.Tools, nil
}

// CallTool invokes name with args against the FastMCP server.
func (c *FastMCPClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	resp, err := c.post(ctx, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      uuid.NewString(),
		"method":  "tools/call",
		"params":  req.Params,
	}, c.sessionID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var wire fastmcpResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("%w: decode tools/call response: %v", transport.ErrDecode, err)
	}
	if wire.Error != nil {
		return nil, fmt.Errorf("fastmcp error %d: %s", wire.Error.Code, wire.Error.Message)
	}
	result, err := mcp.ParseCallToolResult(&wire.Result)
	if err != nil {
		return nil, fmt.Errorf("%w: decode tools/call result: %v", transport.ErrDecode, err)
	}
	return result, nil
}
