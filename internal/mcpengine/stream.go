// Package mcpengine hosts the low-level MCP server and client primitives
// that internal/bridge multiplexes over a transport subscription: a bounded
// duplex channel pair standing in for the stdio pipe MCP's reference server
// expects, and a client-side JSON-RPC wrapper for when a transport, not
// stdio, carries MCP's wire protocol (spec.md §4.3.3 / §4.5).
package mcpengine

const defaultStreamCapacity = 32

// StreamPair is the bounded duplex channel pair bridging a transport
// subscription to a low-level MCP server's run loop. Inbound carries bytes
// read off the transport into the server; Outbound carries the server's
// JSON-RPC responses back out to be published on the reply topic. It is
// owned exclusively by one bridge and torn down when the subscription ends.
type StreamPair struct {
	Inbound  chan []byte
	Outbound chan []byte
}

// NewStreamPair allocates a pair with the default channel capacity.
func NewStreamPair() *StreamPair {
	return &StreamPair{
		Inbound:  make(chan []byte, defaultStreamCapacity),
		Outbound: make(chan []byte, defaultStreamCapacity),
	}
}

// Close closes Inbound, signaling the engine's run loop to stop; Run closes
// Outbound when it returns.
func (p *StreamPair) Close() {
	close(p.Inbound)
}
