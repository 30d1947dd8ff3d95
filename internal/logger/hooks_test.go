package logger

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/agntcy/go-bridge-sdk/internal/bus"
)

func TestEventBusLogHookIntegration(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	eventBus := bus.NewEventBus(logger)

	receivedEvents := make([]bus.Event, 0)
	var mutex sync.Mutex

	eventBus.Subscribe(bus.EventLogEntry, func(event bus.Event) {
		mutex.Lock()
		receivedEvents = append(receivedEvents, event)
		mutex.Unlock()
	})

	hook := NewEventBusLogHook(eventBus, "test-bridge")
	logger.AddHook(hook)

	t.Run("log message triggers event bus event", func(t *testing.T) {
		mutex.Lock()
		receivedEvents = receivedEvents[:0]
		mutex.Unlock()

		logger.Info("session starting")

		time.Sleep(100 * time.Millisecond)

		mutex.Lock()
		defer mutex.Unlock()

		assert.Len(t, receivedEvents, 1)
		if len(receivedEvents) > 0 {
			event := receivedEvents[0]
			assert.Equal(t, bus.EventLogEntry, event.Type)

			payload := event.Payload
			assert.Equal(t, "info", payload["level"])
			assert.Equal(t, "session starting", payload["message"])
			assert.Equal(t, "test-bridge", payload["source"])
		}
	})

	t.Run("log with session and topic context", func(t *testing.T) {
		mutex.Lock()
		receivedEvents = receivedEvents[:0]
		mutex.Unlock()

		hook.SetSessionID("session-123")

		logger.WithFields(logrus.Fields{
			"topic": "org/ns/agent",
		}).Info("subscription opened")

		time.Sleep(100 * time.Millisecond)

		mutex.Lock()
		defer mutex.Unlock()

		assert.Len(t, receivedEvents, 1)
		if len(receivedEvents) > 0 {
			payload := receivedEvents[0].Payload
			assert.Equal(t, "session-123", payload["sessionId"])
			assert.Equal(t, "org/ns/agent", payload["topic"])
			assert.Contains(t, payload["message"], "subscription opened")
		}
	})

	t.Run("different log levels", func(t *testing.T) {
		mutex.Lock()
		receivedEvents = receivedEvents[:0]
		mutex.Unlock()

		logger.Debug("debug message")
		logger.Info("info message")
		logger.Warn("warning message")
		logger.Error("error message")

		time.Sleep(200 * time.Millisecond)

		mutex.Lock()
		defer mutex.Unlock()

		assert.Len(t, receivedEvents, 4)

		levels := make(map[string]bool)
		for _, event := range receivedEvents {
			payload := event.Payload
			levels[payload["level"].(string)] = true
		}

		assert.True(t, levels["debug"])
		assert.True(t, levels["info"])
		assert.True(t, levels["warning"])
		assert.True(t, levels["error"])
	})
}

func TestContextualLogger(t *testing.T) {
	baseLogger := logrus.New()
	baseLogger.SetLevel(logrus.DebugLevel)

	output := &strings.Builder{}
	baseLogger.SetOutput(output)
	baseLogger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    true,
	})

	t.Run("context is added to log entries", func(t *testing.T) {
		output.Reset()

		contextLogger := NewContextualLogger(baseLogger, "session-789", "org/ns/agent")

		contextLogger.Info("test message with context")

		logOutput := output.String()
		assert.Contains(t, logOutput, "sessionId=session-789")
		assert.Contains(t, logOutput, "topic=org/ns/agent")
		assert.Contains(t, logOutput, "test message with context")
	})

	t.Run("WithSession creates new context", func(t *testing.T) {
		output.Reset()

		contextLogger := NewContextualLogger(baseLogger, "", "")
		newLogger := contextLogger.WithSession("new-session")

		newLogger.Info("message with new session")

		logOutput := output.String()
		assert.Contains(t, logOutput, "sessionId=new-session")
	})

	t.Run("WithTopic creates new context", func(t *testing.T) {
		output.Reset()

		contextLogger := NewContextualLogger(baseLogger, "session-1", "")
		newLogger := contextLogger.WithTopic("org/ns/new-topic")

		newLogger.Info("message with new topic")

		logOutput := output.String()
		assert.Contains(t, logOutput, "sessionId=session-1")
		assert.Contains(t, logOutput, "topic=org/ns/new-topic")
	})
}
