package slim

// kind tags the purpose of a frame on the wire. SLIT multiplexes every
// usage pattern (unary, broadcast, group chat) over the same websocket
// connection, so every frame needs to say what it is.
type kind string

const (
	kindPublish   kind = "publish"
	kindRequest   kind = "request"
	kindReply     kind = "reply"
	kindBroadcast kind = "broadcast"
	kindInvite    kind = "invite"
	kindRelay     kind = "relay"
	kindLeave     kind = "leave"
)

// envelope is the wire frame exchanged between two SLIM transports. It
// carries enough routing metadata to emulate SLIM's session-based reply
// correlation over a plain websocket connection: requestID/sessionID play
// the role SLIM's own session id plays on the real fabric.
type envelope struct {
	Kind      kind   `json:"kind"`
	Topic     string `json:"topic,omitempty"`
	Channel   string `json:"channel,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	From      string `json:"from"`
	Payload   []byte `json:"payload,omitempty"`
	Error     string `json:"error,omitempty"`
}
