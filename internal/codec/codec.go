// Package codec multiplexes MCP's JSON-RPC byte stream over one transport
// subscription (spec.md §4.2/§6): A2A traffic carries no envelope of its
// own (internal/bridge's slimrpc/patterns variants marshal a2a's own
// JSONRPCRequest/BroadcastEnvelope types directly), so this package only
// has MCP's stream_id/seq framing to do. Malformed input always comes back
// as transport.ErrDecode so a receive loop can log and drop it without
// crashing the subscription.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/agntcy/go-bridge-sdk/internal/transport"
)

// MCPFrame multiplexes MCP's own JSON-RPC byte stream over one transport
// subscription: stream_id identifies the logical MCP session, seq enforces
// ordering within it.
type MCPFrame struct {
	StreamID     string `json:"streamId"`
	Seq          uint64 `json:"seq"`
	PayloadBytes []byte `json:"payloadBytes"`
}

// EncodeMCPFrame wraps an MCP JSON-RPC payload for transport.
func EncodeMCPFrame(streamID string, seq uint64, payload []byte) ([]byte, error) {
	frame := MCPFrame{StreamID: streamID, Seq: seq, PayloadBytes: payload}
	data, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("%w: encode mcp frame: %v", transport.ErrDecode, err)
	}
	return data, nil
}

// DecodeMCPFrame parses a multiplexed MCP wire frame.
func DecodeMCPFrame(data []byte) (MCPFrame, error) {
	var frame MCPFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return MCPFrame{}, fmt.Errorf("%w: decode mcp frame: %v", transport.ErrDecode, err)
	}
	return frame, nil
}
