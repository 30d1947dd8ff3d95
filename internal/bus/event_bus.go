// Package bus implements a small async event bus used to fan observability
// events (A2A task lifecycle, bridge/session lifecycle) out to logging hooks
// and other observers without coupling producers to a concrete sink.
package bus

import (
	"sync"

	"github.com/sirupsen/logrus"
)

type EventType string

const (
	// A2A task lifecycle (internal/a2a.TaskManager)
	EventTaskCreated      EventType = "taskCreated"
	EventTaskStatusUpdate EventType = "taskStatusUpdate"
	EventArtifactAdded    EventType = "artifactAdded"

	// Session/supervisor lifecycle (spec.md §4.6)
	EventChildStarted EventType = "childStarted"
	EventChildStopped EventType = "childStopped"
	EventChildErrored EventType = "childErrored"

	// Transport subscription lifecycle
	EventSubscriptionOpened EventType = "subscriptionOpened"
	EventSubscriptionClosed EventType = "subscriptionClosed"

	// Structured log entries mirrored out of logrus via logger.EventBusLogHook
	EventLogEntry EventType = "logEntry"
)

type Event struct {
	Type    EventType              `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

type EventHandler func(event Event)

// EventBus is a fan-out pub/sub dispatcher with a single internal queue;
// each delivered event runs its handlers in their own goroutines so one slow
// handler cannot starve the others.
type EventBus struct {
	mu        sync.RWMutex
	handlers  map[EventType][]EventHandler
	logger    *logrus.Logger
	eventChan chan Event
	stopOnce  sync.Once
	stopChan  chan struct{}
}

func NewEventBus(logger *logrus.Logger) *EventBus {
	if logger == nil {
		logger = logrus.New()
	}
	eb := &EventBus{
		handlers:  make(map[EventType][]EventHandler),
		logger:    logger,
		eventChan: make(chan Event, 256),
		stopChan:  make(chan struct{}),
	}

	go eb.processEvents()

	return eb
}

func (eb *EventBus) Subscribe(eventType EventType, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.logger.Debugf("handler subscribed to event type: %s", eventType)
}

// SubscribeAll registers handler for every known event type except
// EventLogEntry, matching the teacher's catch-all subscription.
func (eb *EventBus) SubscribeAll(handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eventTypes := []EventType{
		EventTaskCreated,
		EventTaskStatusUpdate,
		EventArtifactAdded,
		EventChildStarted,
		EventChildStopped,
		EventChildErrored,
		EventSubscriptionOpened,
		EventSubscriptionClosed,
	}

	for _, eventType := range eventTypes {
		eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	}
}

func (eb *EventBus) Publish(event Event) {
	select {
	case eb.eventChan <- event:
	default:
		eb.logger.Warnf("event channel full, dropping event: %s", event.Type)
	}
}

func (eb *EventBus) PublishAsync(eventType EventType, payload map[string]interface{}) {
	go func() {
		eb.Publish(Event{
			Type:    eventType,
			Payload: payload,
		})
	}()
}

func (eb *EventBus) processEvents() {
	for {
		select {
		case event := <-eb.eventChan:
			eb.handleEvent(event)
		case <-eb.stopChan:
			return
		}
	}
}

func (eb *EventBus) handleEvent(event Event) {
	eb.mu.RLock()
	handlers := append([]EventHandler(nil), eb.handlers[event.Type]...)
	eb.mu.RUnlock()

	for _, handler := range handlers {
		// Run each handler in a goroutine to prevent blocking.
		go func(h EventHandler) {
			defer func() {
				if r := recover(); r != nil {
					eb.logger.Errorf("panic in event handler for %s: %v", event.Type, r)
				}
			}()
			h(event)
		}(handler)
	}
}

// Stop terminates the delivery loop. Safe to call more than once.
func (eb *EventBus) Stop() {
	eb.stopOnce.Do(func() {
		close(eb.stopChan)
	})
}
