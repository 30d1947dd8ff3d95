// Command client is a minimal example CLI: it reads an agent card from a
// JSON file, negotiates a transport against the local configuration via
// internal/clientfactory, and sends a single A2A message.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/agntcy/go-bridge-sdk/internal/a2a"
	"github.com/agntcy/go-bridge-sdk/internal/clientfactory"
	"github.com/agntcy/go-bridge-sdk/internal/config"
	"github.com/agntcy/go-bridge-sdk/internal/transport"
	"github.com/agntcy/go-bridge-sdk/pkg/agentcard"
	"github.com/agntcy/go-bridge-sdk/pkg/utils"
)

func loadCard(path string) (*agentcard.Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var card agentcard.Card
	if err := json.Unmarshal(data, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	cardPath := flag.String("card", "", "path to the target agent's card JSON file")
	text := flag.String("text", "hello", "message text to send")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.InfoLevel)

	if *cardPath == "" {
		logger.Fatal("missing required -card flag")
	}

	cfg, err := config.LoadConfig(*configPath, logger)
	if err != nil {
		logger.Fatalf("failed to load configuration: %v", err)
	}

	card, err := loadCard(*cardPath)
	if err != nil {
		logger.Fatalf("failed to load agent card %s: %v", *cardPath, err)
	}

	clientCfg := transport.ClientConfig{
		HTTPBaseURL: utils.GetEnv("AGENT_URL", ""),
	}
	if cfg.Slim.Endpoint != "" {
		clientCfg.Slim = &transport.SlimRpcConnectionConfig{
			Identity:     cfg.Slim.Identity,
			SharedSecret: cfg.Slim.SharedSecret,
			Endpoint:     cfg.Slim.Endpoint,
			TLSInsecure:  cfg.Slim.TLSInsecure,
		}
	}
	if cfg.Nats.Endpoint != "" {
		clientCfg.Nats = &transport.NatsConnectionConfig{Endpoint: cfg.Nats.Endpoint}
	}

	factory := clientfactory.A2A(clientCfg, logger)

	ctx := context.Background()
	client, err := factory.Create(ctx, card)
	if err != nil {
		logger.Fatalf("failed to negotiate a client for %s: %v", card.Name, err)
	}
	defer client.Close()

	task, err := client.SendMessage(ctx, a2a.Message{
		Role:  "user",
		Parts: []a2a.Part{{Text: *text}},
	})
	if err != nil {
		logger.Fatalf("send message failed: %v", err)
	}

	out, err := json.MarshalIndent(task, "", "  ")
	if err != nil {
		logger.Fatalf("failed to marshal task: %v", err)
	}
	os.Stdout.Write(out)
	os.Stdout.WriteString("\n")
}
