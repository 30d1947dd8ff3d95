package clientfactory

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agntcy/go-bridge-sdk/internal/mcpengine"
	"github.com/agntcy/go-bridge-sdk/internal/transport"
)

const defaultMCPOpenTimeout = 5 * time.Second

// MCPFactory constructs clients for the MCP-MemoryStream bridge variant
// (spec.md §4.5's factory.mcp()).
type MCPFactory struct {
	logger *logrus.Logger
}

// MCP returns an MCP client factory.
func MCP(logger *logrus.Logger) *MCPFactory {
	if logger == nil {
		logger = logrus.New()
	}
	return &MCPFactory{logger: logger}
}

// CreateClient opens the memory-stream bridge in reverse: it writes client
// JSON-RPC requests out on topic and resolves replies read back in against
// a pending-request table, per spec.md §4.5's MCP client description. When
// tr answers RequestReply synchronously (slimrpc-style transports), no
// reply subscription is needed and replyTopic may be empty.
func (f *MCPFactory) CreateClient(ctx context.Context, topic string, tr transport.Transport, replyTopic string) (*mcpengine.Client, error) {
	client := mcpengine.NewClient(tr, topic, f.logger)
	if replyTopic != "" {
		openCtx, cancel := context.WithTimeout(ctx, defaultMCPOpenTimeout)
		defer cancel()
		if err := client.Open(openCtx, replyTopic); err != nil {
			return nil, err
		}
	}
	return client, nil
}
