package mcpengine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine("test-engine", "0.0.1", nil)
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

func TestEngineHandleFrameCallsTool(t *testing.T) {
	e := echoEngine(t)

	req := []byte(`{"jsonrpc":"2.0","id":"1","method":"tools/call","params":{"name":"echo","arguments":{"text":"hi"}}}`)
	data, err := e.HandleFrame(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, data)

	var resp wireResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	require.Nil(t, resp.Error)

	result, err := mcp.ParseCallToolResult(&resp.Result)
	require.NoError(t, err)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "echo:hi", text.Text)
}

func TestEngineHandleFrameUnknownToolIsError(t *testing.T) {
	e := echoEngine(t)

	req := []byte(`{"jsonrpc":"2.0","id":"2","method":"tools/call","params":{"name":"nope","arguments":{}}}`)
	data, err := e.HandleFrame(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, data)

	var resp wireResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.NotNil(t, resp.Error)
}

func TestEngineRunPumpsInboundToOutbound(t *testing.T) {
	e := echoEngine(t)
	pair := NewStreamPair()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx, pair)

	req := []byte(`{"jsonrpc":"2.0","id":"1","method":"tools/call","params":{"name":"echo","arguments":{"text":"pumped"}}}`)

	select {
	case pair.Inbound <- req:
	case <-time.After(time.Second):
		t.Fatal("timed out writing to inbound")
	}

	select {
	case data := <-pair.Outbound:
		var resp wireResponse
		require.NoError(t, json.Unmarshal(data, &resp))
		result, err := mcp.ParseCallToolResult(&resp.Result)
		require.NoError(t, err)
		text := result.Content[0].(mcp.TextContent)
		assert.Equal(t, "echo:pumped", text.Text)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for outbound")
	}
}

func TestEngineRunStopsWhenInboundCloses(t *testing.T) {
	e := echoEngine(t)
	pair := NewStreamPair()

	done := make(chan struct{})
	go func() {
		e.Run(context.Background(), pair)
		close(done)
	}()

	pair.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Inbound closed")
	}

	_, ok := <-pair.Outbound
	assert.False(t, ok, "Outbound should be closed once Run returns")
}
