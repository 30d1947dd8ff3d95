package transport

import (
	"fmt"

	"github.com/agntcy/go-bridge-sdk/internal/topic"
	"github.com/agntcy/go-bridge-sdk/pkg/agentcard"
)

// SlimRpcConnectionConfig bundles what the SLIM transport needs to
// authenticate and route a native RPC stream.
type SlimRpcConnectionConfig struct {
	Identity     string
	SharedSecret string
	Endpoint     string
	TLSInsecure  bool
}

// Validate enforces the production bundle invariants: identity follows the
// three-segment topic format and the shared secret is long enough to resist
// brute force.
func (c SlimRpcConnectionConfig) Validate() error {
	if len(c.SharedSecret) < 32 {
		return fmt.Errorf("transport: shared secret must be at least 32 bytes, got %d", len(c.SharedSecret))
	}
	if _, err := topic.Parse(c.Identity); err != nil {
		return fmt.Errorf("transport: identity: %w", err)
	}
	if c.Endpoint == "" {
		return fmt.Errorf("transport: endpoint must not be empty")
	}
	return nil
}

// NatsConnectionConfig bundles what the NATS transport needs to connect.
type NatsConnectionConfig struct {
	Endpoint string
}

// RPCChannelFactory constructs a Transport for the slimrpc variant, used by
// ClientConfig when the caller supplies a custom channel rather than a bare
// endpoint (e.g. an in-process fake for testing).
type RPCChannelFactory func() (Transport, error)

// ClientConfig maps each transport tag a client is willing to use to its
// per-transport connection details. At least one field must be populated
// for negotiation to succeed.
type ClientConfig struct {
	Slim        *SlimRpcConnectionConfig
	Nats        *NatsConnectionConfig
	RPCChannel  RPCChannelFactory
	HTTPBaseURL string
}

// SupportedTransports returns the set of transport tags this config has
// connection details for.
func (c ClientConfig) SupportedTransports() []agentcard.Transport {
	var out []agentcard.Transport
	if c.Slim != nil || c.RPCChannel != nil {
		out = append(out, agentcard.TransportSlimRPC, agentcard.TransportSlimPatterns)
	}
	if c.Nats != nil {
		out = append(out, agentcard.TransportNatsPatterns)
	}
	if c.HTTPBaseURL != "" {
		out = append(out, agentcard.TransportJSONRPC)
	}
	return out
}

// Validate ensures at least one transport is configured.
func (c ClientConfig) Validate() error {
	if len(c.SupportedTransports()) == 0 {
		return fmt.Errorf("transport: client config has no populated transport")
	}
	return nil
}
