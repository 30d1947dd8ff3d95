package bridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agntcy/go-bridge-sdk/internal/codec"
	"github.com/agntcy/go-bridge-sdk/internal/mcpengine"
	"github.com/agntcy/go-bridge-sdk/internal/transport/slim"
)

type wireResponseEnvelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func echoMCPEngine() *mcpengine.Engine {
	e := mcpengine.NewEngine("mcp-memorystream-test", "0.0.1", nil)
	e.AddTool(
		mcp.NewTool("echo", mcp.WithDescription("echoes text"), mcp.WithString("text", mcp.Required())),
		func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			return &mcp.CallToolResult{
				Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "echo:" + args["text"].(string)}},
			}, nil
		},
	)
	return e
}

func TestMCPMemoryStreamBridgeRoundTrip(t *testing.T) {
	server := slim.New(nil)
	defer server.Close()
	serverAddr := mustConnectSlim(t, server, "org/ns/mcp")

	engine := echoMCPEngine()
	b := NewMCPMemoryStreamBridge(server, "org/ns/mcp", engine, nil)
	require.NoError(t, b.Start(context.Background()))
	defer b.Close()

	client := slim.New(nil)
	defer client.Close()
	client.SetRoute("org/ns/mcp", serverAddr)

	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      "1",
		"method":  "tools/call",
		"params":  map[string]interface{}{"name": "echo", "arguments": map[string]interface{}{"text": "hi"}},
	}
	reqBody, err := json.Marshal(req)
	require.NoError(t, err)

	reqFrame, err := codec.EncodeMCPFrame("stream-1", 0, reqBody)
	require.NoError(t, err)

	raw, err := client.RequestReply(context.Background(), "org/ns/mcp", reqFrame, 2*time.Second)
	require.NoError(t, err)

	replyFrame, err := codec.DecodeMCPFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, "stream-1", replyFrame.StreamID)
	assert.Equal(t, uint64(0), replyFrame.Seq)

	var resp wireResponseEnvelope
	require.NoError(t, json.Unmarshal(replyFrame.PayloadBytes, &resp))
	require.Nil(t, resp.Error)

	result, err := mcp.ParseCallToolResult(&resp.Result)
	require.NoError(t, err)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "echo:hi", text.Text)
}

func TestMCPMemoryStreamBridgeSeqIncrementsPerStream(t *testing.T) {
	server := slim.New(nil)
	defer server.Close()
	serverAddr := mustConnectSlim(t, server, "org/ns/mcp")

	engine := echoMCPEngine()
	b := NewMCPMemoryStreamBridge(server, "org/ns/mcp", engine, nil)
	require.NoError(t, b.Start(context.Background()))
	defer b.Close()

	client := slim.New(nil)
	defer client.Close()
	client.SetRoute("org/ns/mcp", serverAddr)

	callOnce := func(id string) uint64 {
		req := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      id,
			"method":  "tools/call",
			"params":  map[string]interface{}{"name": "echo", "arguments": map[string]interface{}{"text": id}},
		}
		reqBody, err := json.Marshal(req)
		require.NoError(t, err)
		reqFrame, err := codec.EncodeMCPFrame("stream-1", 0, reqBody)
		require.NoError(t, err)

		raw, err := client.RequestReply(context.Background(), "org/ns/mcp", reqFrame, 2*time.Second)
		require.NoError(t, err)

		replyFrame, err := codec.DecodeMCPFrame(raw)
		require.NoError(t, err)
		return replyFrame.Seq
	}

	first := callOnce("1")
	second := callOnce("2")
	assert.Equal(t, uint64(0), first)
	assert.Equal(t, uint64(1), second)
}
