// Package session implements the supervisor that owns every protocol bridge
// a process runs, mirroring app_sessions.py's AppContainer/AppSession
// pattern: add(target) -> builder, builder.build() -> child, then
// start_all_sessions(keep_alive) runs every child concurrently and tears
// them down in reverse order on shutdown (spec.md §4.6), grounded on the
// teacher's P2PAgent.Start/Shutdown sequencing in internal/agent/agent.go.
package session

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/agntcy/go-bridge-sdk/internal/bridge"
	"github.com/agntcy/go-bridge-sdk/internal/bus"
)

// State is a child's lifecycle state.
type State string

const (
	StatePending State = "pending"
	StateRunning State = "running"
	StateStopped State = "stopped"
	StateErrored State = "errored"
)

// Directory is the narrow collaborator a child's startup optionally reports
// to, mirroring app_sessions.py's push_to_directory_on_startup hook: a
// record describing the child's protocol/topic is published once it starts.
// Supplying no Directory to the supervisor skips this step entirely.
type Directory interface {
	PublishRecord(ctx context.Context, record Record) error
}

// Record is what a child reports to a Directory on startup.
type Record struct {
	SessionID string
	Topic     string
	Kind      string
}

// Child is one running (or failed, or stopped) bridge owned by a Supervisor.
type Child struct {
	SessionID string
	Topic     string
	Kind      string

	mu    sync.Mutex
	state State
	err   error
	b     bridge.Bridge
}

// State reports the child's current lifecycle state.
func (c *Child) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error recorded when the child failed to start, if any.
func (c *Child) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Child) setState(s State, err error) {
	c.mu.Lock()
	c.state = s
	c.err = err
	c.mu.Unlock()
}

// Supervisor owns an ordered set of children, starting and stopping them
// together (spec.md §4.6). Children are added in calling order and torn
// down in reverse.
type Supervisor struct {
	mu        sync.Mutex
	children  []*Child
	logger    *logrus.Logger
	bus       *bus.EventBus
	directory Directory
}

// NewSupervisor constructs an empty supervisor. logger and eventBus may be
// nil; directory may be nil to skip the publish-on-startup hook entirely.
func NewSupervisor(logger *logrus.Logger, eventBus *bus.EventBus, directory Directory) *Supervisor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Supervisor{logger: logger, bus: eventBus, directory: directory}
}

// Add begins building a new child under sessionID, which must be unique
// within this supervisor (spec.md §4.6's "session_id (caller-supplied label,
// unique within the supervisor)").
func (s *Supervisor) Add(sessionID string) *Builder {
	return &Builder{sup: s, sessionID: sessionID}
}

func (s *Supervisor) register(child *Child) {
	s.mu.Lock()
	s.children = append(s.children, child)
	s.mu.Unlock()
}

// Children returns a snapshot of every child this supervisor has built,
// in the order they were added.
func (s *Supervisor) Children() []*Child {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Child(nil), s.children...)
}

// StartAll starts every registered child in the order it was added. If any
// child fails to start, every previously started child is stopped (in
// reverse order) and the error is returned (spec.md §4.6's rollback
// semantics). When keepAlive is true, StartAll blocks until SIGINT/SIGTERM
// is received, then stops every child in reverse order before returning.
func (s *Supervisor) StartAll(ctx context.Context, keepAlive bool) error {
	children := s.Children()

	started := make([]*Child, 0, len(children))
	for _, child := range children {
		if err := child.b.Start(ctx); err != nil {
			child.setState(StateErrored, err)
			s.publish(bus.EventChildErrored, child, err)
			s.logger.Errorf("session: child %s failed to start: %v", child.SessionID, err)

			for i := len(started) - 1; i >= 0; i-- {
				s.stopChild(started[i])
			}
			return fmt.Errorf("session: child %s failed to start, rolled back %d prior children: %w", child.SessionID, len(started), err)
		}

		child.setState(StateRunning, nil)
		s.publish(bus.EventChildStarted, child, nil)
		s.logger.Infof("session: child %s started (topic=%s kind=%s)", child.SessionID, child.Topic, child.Kind)

		if s.directory != nil {
			if err := s.directory.PublishRecord(ctx, Record{SessionID: child.SessionID, Topic: child.Topic, Kind: child.Kind}); err != nil {
				s.logger.Warnf("session: child %s directory publish failed: %v", child.SessionID, err)
			}
		}

		started = append(started, child)
	}

	if keepAlive {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		signal.Stop(sigCh)
	}

	if keepAlive {
		s.StopAll()
	}
	return nil
}

// StopAll stops every registered child in reverse order, regardless of
// current state, logging but not failing on individual stop errors
// (isolation: one child's shutdown error doesn't block the others').
func (s *Supervisor) StopAll() {
	children := s.Children()
	for i := len(children) - 1; i >= 0; i-- {
		s.stopChild(children[i])
	}
}

func (s *Supervisor) stopChild(child *Child) {
	if child.State() != StateRunning {
		return
	}
	if err := child.b.Close(); err != nil {
		s.logger.Errorf("session: child %s stop error: %v", child.SessionID, err)
	}
	child.setState(StateStopped, nil)
	s.publish(bus.EventChildStopped, child, nil)
	s.logger.Infof("session: child %s stopped", child.SessionID)
}

func (s *Supervisor) publish(eventType bus.EventType, child *Child, err error) {
	if s.bus == nil {
		return
	}
	payload := map[string]interface{}{"sessionId": child.SessionID, "topic": child.Topic, "kind": child.Kind}
	if err != nil {
		payload["error"] = err.Error()
	}
	s.bus.PublishAsync(eventType, payload)
}
