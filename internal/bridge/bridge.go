// Package bridge implements the five protocol bridge variants (spec.md
// §4.3): A2A-SlimRPC, A2A-Patterns, A2A-HTTP-JSONRPC, MCP-MemoryStream, and
// FastMCP-HTTP.
// Each owns one transport subscription (or HTTP listener) and one protocol
// engine instance, and is driven by internal/session's supervisor.
package bridge

import "context"

// Bridge is the lifecycle every protocol bridge variant implements: Start
// subscribes or binds its transport-side resources; Close tears them down.
// A Bridge owns exactly one topic subscription (or HTTP listener), never
// shared with another bridge in the same supervisor.
type Bridge interface {
	Start(ctx context.Context) error
	Close() error
}
