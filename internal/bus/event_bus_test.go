package bus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventBusDeliversToSubscriber(t *testing.T) {
	eb := NewEventBus(nil)
	defer eb.Stop()

	var mu sync.Mutex
	var received Event
	done := make(chan struct{})

	eb.Subscribe(EventChildStarted, func(e Event) {
		mu.Lock()
		received = e
		mu.Unlock()
		close(done)
	})

	eb.Publish(Event{Type: EventChildStarted, Payload: map[string]interface{}{"sessionId": "child-1"}})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event delivery")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, EventChildStarted, received.Type)
	assert.Equal(t, "child-1", received.Payload["sessionId"])
}

func TestEventBusHandlerPanicDoesNotCrash(t *testing.T) {
	eb := NewEventBus(nil)
	defer eb.Stop()

	done := make(chan struct{})
	eb.Subscribe(EventChildErrored, func(e Event) { panic("boom") })
	eb.Subscribe(EventChildErrored, func(e Event) { close(done) })

	eb.Publish(Event{Type: EventChildErrored})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second handler was never invoked")
	}
}

func TestEventBusStopIsIdempotent(t *testing.T) {
	eb := NewEventBus(nil)
	eb.Stop()
	assert.NotPanics(t, func() { eb.Stop() })
}
