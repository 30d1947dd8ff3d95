package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/agntcy/go-bridge-sdk/internal/mcpengine"
	"github.com/agntcy/go-bridge-sdk/internal/transport"
)

const mcpSessionHeader = "Mcp-Session-Id"
const defaultFastMCPPort = 8081

// FastMCPHTTPBridge always runs an HTTP server implementing the MCP
// streamable-HTTP handshake (spec.md §4.3's FastMCP-HTTP variant, §6): a
// POST "initialize" returns a session id header; a POST
// "notifications/initialized" confirms it; subsequent POSTs must carry that
// header and are routed through the same low-level engine the
// MCP-MemoryStream bridge uses. When a transport is attached via
// WithTransportMirror, the bridge additionally mirrors the same dispatch
// over a transport subscription using the memory-stream pattern.
type FastMCPHTTPBridge struct {
	addr   string
	engine *mcpengine.Engine
	logger *logrus.Logger
	tr     transport.Transport
	topic  string

	mu       sync.Mutex
	sessions map[string]struct{}
	server   *http.Server
	mirror   *MCPMemoryStreamBridge
}

// NewFastMCPHTTPBridge constructs a bridge listening on addr ("host:port";
// an empty host binds all interfaces). An empty addr defaults to
// spec.md's default port 8081.
func NewFastMCPHTTPBridge(addr string, engine *mcpengine.Engine, logger *logrus.Logger) *FastMCPHTTPBridge {
	if logger == nil {
		logger = logrus.New()
	}
	if addr == "" {
		addr = fmt.Sprintf(":%d", defaultFastMCPPort)
	}
	return &FastMCPHTTPBridge{addr: addr, engine: engine, logger: logger, sessions: make(map[string]struct{})}
}

// WithTransportMirror arranges for the same engine dispatch to also run
// over a transport subscription on topic, started alongside the HTTP
// server.
func (b *FastMCPHTTPBridge) WithTransportMirror(tr transport.Transport, topic string) *FastMCPHTTPBridge {
	b.tr = tr
	b.topic = topic
	return b
}

func (b *FastMCPHTTPBridge) Start(ctx context.Context) error {
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
			b.logger.Errorf("bridge: fastmcp-http server error: %v", err)
		}
	}()

	b.mu.Lock()
	b.server = server
	b.mu.Unlock()

	if b.tr != nil {
		mirror := NewMCPMemoryStreamBridge(b.tr, b.topic, b.engine, b.logger)
		if err := mirror.Start(ctx); err != nil {
			_ = server.Close()
			return err
		}
		b.mu.Lock()
		b.mirror = mirror
		b.mu.Unlock()
	}
	return nil
}

// Addr returns the server's bound address, valid once Start has returned
// (useful when addr was passed with a ":0" port for tests).
func (b *FastMCPHTTPBridge) Addr() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.server == nil {
		return b.addr
	}
	return b.server.Addr
}

func (b *FastMCPHTTPBridge) handlePost(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	var probe struct {
		Method string `json:"method"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	switch probe.Method {
	case "initialize":
		b.handleInitialize(c, body)
	case "notifications/initialized":
		b.handleInitialized(c)
	default:
		b.handleDispatch(c, body)
	}
}

func (b *FastMCPHTTPBridge) handleInitialize(c *gin.Context, body []byte) {
	data, err := b.engine.HandleFrame(c.Request.Context(), body)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	sessionID := uuid.NewString()
	b.mu.Lock()
	b.sessions[sessionID] = struct{}{}
	b.mu.Unlock()

	c.Header(mcpSessionHeader, sessionID)
	c.Data(http.StatusOK, "application/json", data)
}

func (b *FastMCPHTTPBridge) handleInitialized(c *gin.Context) {
	if !b.knownSession(c.GetHeader(mcpSessionHeader)) {
		c.Status(http.StatusBadRequest)
		return
	}
	c.Status(http.StatusOK)
}

func (b *FastMCPHTTPBridge) handleDispatch(c *gin.Context, body []byte) {
	if !b.knownSession(c.GetHeader(mcpSessionHeader)) {
		c.Status(http.StatusBadRequest)
		return
	}

	data, err := b.engine.HandleFrame(c.Request.Context(), body)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	if data == nil {
		c.Status(http.StatusOK)
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

func (b *FastMCPHTTPBridge) knownSession(id string) bool {
	if id == "" {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.sessions[id]
	return ok
}

// Close shuts down the HTTP server and, if attached, the transport mirror.
func (b *FastMCPHTTPBridge) Close() error {
	b.mu.Lock()
	server := b.server
	mirror := b.mirror
	b.server = nil
	b.mirror = nil
	b.mu.Unlock()

	if mirror != nil {
		_ = mirror.Close()
	}
	if server == nil {
		return nil
	}
	return server.Close()
}
