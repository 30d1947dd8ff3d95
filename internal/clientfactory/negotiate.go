// Package clientfactory implements spec.md §4.5's client-side transport
// negotiation: factory.a2a(config).create(card) intersects a server's
// advertised transports with a client's configured ones and returns the
// client variant matching the agreed transport, grounded on the teacher's
// internal/mcp/discovery.go (HTTP-based MCP handshake/discovery client) and
// internal/agent/agent.go's P2PAgent construction-from-config pattern.
package clientfactory

import (
	"fmt"

	"github.com/agntcy/go-bridge-sdk/internal/transport"
	"github.com/agntcy/go-bridge-sdk/pkg/agentcard"
)

// negotiate computes N = S ∩ C, ordered by the card's preference (spec.md
// §4.5 steps 1-4), returning transport.ErrNoCompatibleTransport if empty.
func negotiate(card *agentcard.Card, cfg transport.ClientConfig) (agentcard.Transport, error) {
	server := card.SupportedTransports()
	client := make(map[agentcard.Transport]bool)
	for _, t := range cfg.SupportedTransports() {
		client[t] = true
	}

	for _, t := range server {
		if client[t] {
			return t, nil
		}
	}
	return "", fmt.Errorf("clientfactory: negotiating with %q: %w", card.Name, transport.ErrNoCompatibleTransport)
}
