// Package logger adapts logrus into the session/transport domain: a hook
// that mirrors log entries onto the event bus, and a contextual logger that
// stamps every entry with the session and topic it belongs to.
package logger

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agntcy/go-bridge-sdk/internal/bus"
)

// EventBusLogHook forwards log entries onto an EventBus so observers (a
// supervisor's own event stream, a diagnostics UI) see them without coupling
// bridge/transport code to a concrete log sink.
type EventBusLogHook struct {
	eventBus  *bus.EventBus
	component string
	sessionID string
}

// NewEventBusLogHook creates a hook that tags every entry with component.
func NewEventBusLogHook(eventBus *bus.EventBus, component string) *EventBusLogHook {
	return &EventBusLogHook{
		eventBus:  eventBus,
		component: component,
	}
}

// SetSessionID sets the default session id attached to entries that don't
// carry their own "sessionId" field.
func (h *EventBusLogHook) SetSessionID(sessionID string) {
	h.sessionID = sessionID
}

func (h *EventBusLogHook) Levels() []logrus.Level {
	return []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
		logrus.WarnLevel,
		logrus.InfoLevel,
		logrus.DebugLevel,
		logrus.TraceLevel,
	}
}

func (h *EventBusLogHook) Fire(entry *logrus.Entry) error {
	if h.eventBus == nil {
		return nil
	}

	sessionID := h.sessionID
	if sID, ok := entry.Data["sessionId"].(string); ok {
		sessionID = sID
	}

	topic := ""
	if t, ok := entry.Data["topic"].(string); ok {
		topic = t
	}

	message := entry.Message
	var fieldParts []string
	for key, value := range entry.Data {
		if key != "sessionId" && key != "topic" {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%v", key, value))
		}
	}
	if len(fieldParts) > 0 {
		message = fmt.Sprintf("%s [%s]", message, strings.Join(fieldParts, ", "))
	}

	h.eventBus.PublishAsync(bus.EventLogEntry, map[string]interface{}{
		"sessionId": sessionID,
		"level":     entry.Level.String(),
		"message":   message,
		"source":    h.component,
		"topic":     topic,
		"timestamp": entry.Time.Format(time.RFC3339),
	})

	return nil
}

// ContextualLogger wraps a logger with session/topic context that is
// automatically attached to every entry it emits.
type ContextualLogger struct {
	*logrus.Logger
	sessionID string
	topic     string
}

// NewContextualLogger creates a logger scoped to a session and topic.
func NewContextualLogger(logger *logrus.Logger, sessionID, topic string) *ContextualLogger {
	return &ContextualLogger{
		Logger:    logger,
		sessionID: sessionID,
		topic:     topic,
	}
}

// WithSession returns a copy of the logger scoped to a different session.
func (l *ContextualLogger) WithSession(sessionID string) *ContextualLogger {
	return &ContextualLogger{
		Logger:    l.Logger,
		sessionID: sessionID,
		topic:     l.topic,
	}
}

// WithTopic returns a copy of the logger scoped to a different topic.
func (l *ContextualLogger) WithTopic(topic string) *ContextualLogger {
	return &ContextualLogger{
		Logger:    l.Logger,
		sessionID: l.sessionID,
		topic:     topic,
	}
}

func (l *ContextualLogger) addContext(fields logrus.Fields) logrus.Fields {
	if fields == nil {
		fields = logrus.Fields{}
	}
	if l.sessionID != "" {
		fields["sessionId"] = l.sessionID
	}
	if l.topic != "" {
		fields["topic"] = l.topic
	}
	return fields
}

func (l *ContextualLogger) Info(args ...interface{}) {
	l.WithFields(l.addContext(nil)).Info(args...)
}

func (l *ContextualLogger) Infof(format string, args ...interface{}) {
	l.WithFields(l.addContext(nil)).Infof(format, args...)
}

func (l *ContextualLogger) Debug(args ...interface{}) {
	l.WithFields(l.addContext(nil)).Debug(args...)
}

func (l *ContextualLogger) Debugf(format string, args ...interface{}) {
	l.WithFields(l.addContext(nil)).Debugf(format, args...)
}

func (l *ContextualLogger) Error(args ...interface{}) {
	l.WithFields(l.addContext(nil)).Error(args...)
}

func (l *ContextualLogger) Errorf(format string, args ...interface{}) {
	l.WithFields(l.addContext(nil)).Errorf(format, args...)
}

func (l *ContextualLogger) Warn(args ...interface{}) {
	l.WithFields(l.addContext(nil)).Warn(args...)
}

func (l *ContextualLogger) Warnf(format string, args ...interface{}) {
	l.WithFields(l.addContext(nil)).Warnf(format, args...)
}
