// Package pending implements the client-side pending-request table: a
// request-id to awaiter map used by the SLIM transport's request_reply and
// broadcast paths and by mcpengine.Client (NATS uses its own inbox requests).
// It is the one piece of mutable shared state a client-side transport needs
// to guard against concurrent insert/remove (spec.md §5).
package pending

import (
	"sync"

	"github.com/agntcy/go-bridge-sdk/internal/transport"
)

type awaiter struct {
	replyCh chan []byte
	errCh   chan error
	once    sync.Once
}

func (a *awaiter) resolve(payload []byte) {
	a.once.Do(func() { a.replyCh <- payload })
}

func (a *awaiter) fail(err error) {
	a.once.Do(func() { a.errCh <- err })
}

// Table tracks in-flight request ids awaiting a correlated reply. Every
// outbound request either resolves via Resolve, is removed via Forget, or
// fails with transport.ErrCancelled via CancelAll.
type Table struct {
	mu       sync.Mutex
	awaiters map[string]*awaiter
}

// New constructs an empty pending-request table.
func New() *Table {
	return &Table{awaiters: make(map[string]*awaiter)}
}

// Register allocates an awaiter for id, returning channels the caller
// selects on for the eventual reply or failure. Calling Register twice for
// the same id replaces the first awaiter, which will never be resolved.
func (t *Table) Register(id string) (reply <-chan []byte, errs <-chan error) {
	a := &awaiter{replyCh: make(chan []byte, 1), errCh: make(chan error, 1)}
	t.mu.Lock()
	t.awaiters[id] = a
	t.mu.Unlock()
	return a.replyCh, a.errCh
}

// Resolve delivers payload to the awaiter registered for id, if any.
func (t *Table) Resolve(id string, payload []byte) {
	t.mu.Lock()
	a, ok := t.awaiters[id]
	if ok {
		delete(t.awaiters, id)
	}
	t.mu.Unlock()
	if ok {
		a.resolve(payload)
	}
}

// Forget removes id's awaiter without resolving it, used once a caller has
// already observed a reply or timeout and no longer needs the slot held.
func (t *Table) Forget(id string) {
	t.mu.Lock()
	delete(t.awaiters, id)
	t.mu.Unlock()
}

// CancelAll fails every outstanding awaiter with transport.ErrCancelled,
// used when the owning transport is closed.
func (t *Table) CancelAll() {
	t.mu.Lock()
	awaiters := t.awaiters
	t.awaiters = make(map[string]*awaiter)
	t.mu.Unlock()

	for _, a := range awaiters {
		a.fail(transport.ErrCancelled)
	}
}

// Len reports the number of in-flight requests, for tests and metrics.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.awaiters)
}
