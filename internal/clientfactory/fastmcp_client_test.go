package clientfactory

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agntcy/go-bridge-sdk/internal/bridge"
	"github.com/agntcy/go-bridge-sdk/internal/mcpengine"
)

func echoMCPEngineForFactory() *mcpengine.Engine {
	e := mcpengine.NewEngine("factory-test", "0.0.1", nil)
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

func TestFastMCPClientHandshakeAndListTools(t *testing.T) {
	engine := echoMCPEngineForFactory()
	b := bridge.NewFastMCPHTTPBridge(":0", engine, nil)
	require.NoError(t, b.Start(context.Background()))
	defer b.Close()

	time.Sleep(20 * time.Millisecond)
	url := "http://" + b.Addr() + "/"

	client, err := NewFastMCPClient(context.Background(), url)
	require.NoError(t, err)

	tools, err := client.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "echo", tools[0].Name)
}

func TestFastMCPClientCallTool(t *testing.T) {
	engine := echoMCPEngineForFactory()
	b := bridge.NewFastMCPHTTPBridge(":0", engine, nil)
	require.NoError(t, b.Start(context.Background()))
	defer b.Close()

	time.Sleep(20 * time.Millisecond)
	url := "http://" + b.Addr() + "/"

	client, err := NewFastMCPClient(context.Background(), url)
	require.NoError(t, err)

	result, err := client.CallTool(context.Background(), "echo", map[string]interface{}{"text": "hi"})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
}
