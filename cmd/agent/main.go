// Command agent is a minimal example server process: it loads config,
// builds an echo A2A handler and an echo MCP tool, wires them onto the
// configured transport via internal/session's auto-detection builder, and
// runs until SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/agntcy/go-bridge-sdk/internal/a2a"
	"github.com/agntcy/go-bridge-sdk/internal/bus"
	"github.com/agntcy/go-bridge-sdk/internal/config"
	"github.com/agntcy/go-bridge-sdk/internal/mcpengine"
	"github.com/agntcy/go-bridge-sdk/internal/session"
	"github.com/agntcy/go-bridge-sdk/internal/transport"
	"github.com/agntcy/go-bridge-sdk/internal/transport/slim"
	"github.com/agntcy/go-bridge-sdk/pkg/utils"
)

func echoHandler(_ context.Context, msg a2a.Message) (a2a.Message, error) {
	reply := msg
	reply.Parts = append([]a2a.Part(nil), msg.Parts...)
	for i := range reply.Parts {
		reply.Parts[i].Text = "echo:" + reply.Parts[i].Text
	}
	return reply, nil
}

func buildEchoMCPEngine(name, version string, logger *logrus.Logger) *mcpengine.Engine {
	engine := mcpengine.NewEngine(name, version, logger)
	engine.AddTool(
		mcp.NewTool("echo", mcp.WithDescription("echoes back the text argument"), mcp.WithString("text", mcp.Required())),
		func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			return &mcp.CallToolResult{
				Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "echo:" + args["text"].(string)}},
			}, nil
		},
	)
	return engine
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	logLevel := flag.String("log-level", "", "log level (debug, info, warn, error)")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level := *logLevel
	if level == "" {
		level = utils.GetEnv("LOG_LEVEL", "info")
	}
	parsedLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("invalid log level %q, using info", level)
		parsedLevel = logrus.InfoLevel
	}
	logger.SetLevel(parsedLevel)

	logger.Infof("loading configuration from %s", *configPath)
	cfg, err := config.LoadConfig(*configPath, logger)
	if err != nil {
		logger.Fatalf("failed to load configuration: %v", err)
	}

	ctx := context.Background()

	tr := slim.New(logger)
	if err := tr.Connect(ctx, cfg.Slim.Endpoint, transport.Credentials{
		Identity:     cfg.Slim.Identity,
		SharedSecret: cfg.Slim.SharedSecret,
		TLSInsecure:  cfg.Slim.TLSInsecure,
	}); err != nil {
		logger.Fatalf("failed to connect slim transport: %v", err)
	}
	defer tr.Close()

	eventBus := bus.NewEventBus(logger)
	defer eventBus.Stop()

	sup := session.NewSupervisor(logger, eventBus, nil)

	handler := a2a.NewJSONRPCHandler(echoHandler, a2a.NewTaskManager(eventBus, logger), logger)
	topic := cfg.Slim.Identity

	switch cfg.Agent.PreferredTransport {
	case "slimpatterns":
		if _, err := sup.Add(cfg.Agent.Name + "-a2a").WithTopic(topic).WithTransport(tr).BuildA2APatterns(handler); err != nil {
			logger.Fatalf("failed to build a2a-patterns child: %v", err)
		}
	default:
		if _, err := sup.Add(cfg.Agent.Name + "-a2a").WithTopic(topic).BuildA2ASlimRPC(tr, handler); err != nil {
			logger.Fatalf("failed to build a2a-slimrpc child: %v", err)
		}
	}

	engine := buildEchoMCPEngine(cfg.Agent.Name, "0.1.0", logger)
	fastMCPAddr := fmt.Sprintf(":%d", cfg.FastMCP.Port)
	if _, err := sup.Add(cfg.Agent.Name + "-mcp").WithAddr(fastMCPAddr).BuildFastMCPHTTP(engine); err != nil {
		logger.Fatalf("failed to build fastmcp-http child: %v", err)
	}

	logger.Info("starting children, press Ctrl+C to stop")
	if err := sup.StartAll(ctx, true); err != nil {
		logger.Fatalf("supervisor start failed: %v", err)
	}
	logger.Info("agent stopped")
}
