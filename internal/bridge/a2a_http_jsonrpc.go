package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/agntcy/go-bridge-sdk/internal/a2a"
	"github.com/agntcy/go-bridge-sdk/internal/transport"
)

const defaultA2AHTTPPort = 8082

// A2AHTTPJSONRPCBridge runs a plain HTTP server accepting one JSON-RPC
// request per POST and answering with the matching JSON-RPC response body
// (spec.md §4.4's A2A-HTTP-JSONRPC variant: the server side of an A2A app
// served behind something like Starlette, with no SLIM/NATS session and no
// streamable-HTTP handshake). It mirrors FastMCPHTTPBridge's gin server
// setup, trimmed to A2A's single-POST-per-call shape — there is no
// initialize/notifications handshake and no session header to track.
type A2AHTTPJSONRPCBridge struct {
	addr    string
	handler *a2a.JSONRPCHandler
	logger  *logrus.Logger

	mu     sync.Mutex
	server *http.Server
}

// NewA2AHTTPJSONRPCBridge constructs a bridge listening on addr
// ("host:port"; an empty host binds all interfaces). An empty addr
// defaults to port 8082.
func NewA2AHTTPJSONRPCBridge(addr string, handler *a2a.JSONRPCHandler, logger *logrus.Logger) *A2AHTTPJSONRPCBridge {
	if logger == nil {
		logger = logrus.New()
	}
	if addr == "" {
		addr = fmt.Sprintf(":%d", defaultA2AHTTPPort)
	}
	return &A2AHTTPJSONRPCBridge{addr: addr, handler: handler, logger: logger}
}

func (b *A2AHTTPJSONRPCBridge) Start(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.POST("/", b.handlePost)

	ln, err := net.Listen("tcp", b.addr)
	if err != nil {
		return fmt.Errorf("%w: %v", transport.ErrConnect, err)
	}

	server := &http.Server{Addr: ln.Addr().String(), Handler: router}
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			b.logger.Errorf("bridge: a2a-http-jsonrpc server error: %v", err)
		}
	}()

	b.mu.Lock()
	b.server = server
	b.mu.Unlock()
	return nil
}

// Addr returns the server's bound address, valid once Start has returned.
func (b *A2AHTTPJSONRPCBridge) Addr() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.server == nil {
		return b.addr
	}
	return b.server.Addr
}

func (b *A2AHTTPJSONRPCBridge) handlePost(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	var req a2a.JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	resp := b.handler.Dispatch(c.Request.Context(), req)
	c.JSON(http.StatusOK, resp)
}

// Close shuts down the HTTP server.
func (b *A2AHTTPJSONRPCBridge) Close() error {
	b.mu.Lock()
	server := b.server
	b.server = nil
	b.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Close()
}
