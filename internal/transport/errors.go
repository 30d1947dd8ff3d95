// Package transport defines the transport-agnostic abstraction that protocol
// bridges are built on top of, plus the two concrete carriers (SLIM over
// websocket sessions, NATS over subject-based pub/sub).
package transport

import "errors"

// Sentinel errors forming the taxonomy every concrete transport and bridge
// is expected to map its failures onto.
var (
	// ErrConnect is returned when a transport cannot establish its
	// underlying connection (unreachable endpoint, handshake failure).
	ErrConnect = errors.New("transport: connect failed")

	// ErrTransport covers connection loss during an in-flight operation.
	ErrTransport = errors.New("transport: transport error")

	// ErrDecode is surfaced for malformed inbound payloads. Receive loops
	// log and drop frames that produce this error; it never propagates
	// out of a subscription.
	ErrDecode = errors.New("transport: decode error")

	// ErrTimeout is returned by request_reply, broadcast, and group chat
	// operations that did not complete within their deadline.
	ErrTimeout = errors.New("transport: timed out")

	// ErrCancelled is returned to pending awaiters when a transport or
	// subscription is closed out from under them.
	ErrCancelled = errors.New("transport: cancelled")

	// ErrNoCompatibleTransport is returned by client negotiation when the
	// intersection of locally- and server-supported transports is empty.
	ErrNoCompatibleTransport = errors.New("transport: no compatible transport")

	// ErrUnsupportedOperation is returned by operations a concrete
	// transport does not implement (e.g. NATS group chat).
	ErrUnsupportedOperation = errors.New("transport: unsupported operation")

	// ErrHandler names the handler-failure entry of the taxonomy. No
	// transport in this module returns it: the subscription receive loops
	// do not recover handler panics, and a2a.JSONRPCHandler.Dispatch turns
	// handler errors into JSON-RPC error responses itself.
	ErrHandler = errors.New("transport: handler error")

	// ErrAlreadySubscribed is returned by Subscribe when the same topic
	// is already subscribed on the same transport instance (exclusivity
	// invariant: no two bridges share a topic inside one supervisor).
	ErrAlreadySubscribed = errors.New("transport: topic already subscribed")
)
