// Package a2a implements the A2A JSON-RPC envelope and task/message types
// carried over a transport by the protocol bridge layer (spec.md §4.3, §6).
// It assumes A2A's method names and event shapes as a fixed external
// contract; only the framing over transports is this package's concern.
package a2a

// Part is a single piece of message content. Only Text and structured Data
// are modeled — the bridge core only needs to round-trip parts, not
// interpret every modality.
type Part struct {
	Kind string                 `json:"kind"`
	Text string                 `json:"text,omitempty"`
	Data map[string]interface{} `json:"data,omitempty"`
}

// Message is a single turn exchanged between a client and an agent.
type Message struct {
	MessageID string `json:"messageId"`
	Role      string `json:"role"`
	Parts     []Part `json:"parts"`
	TaskID    string `json:"taskId,omitempty"`
	ContextID string `json:"contextId,omitempty"`
	Kind      string `json:"kind,omitempty"`
}

// TaskStatus carries the current state of a task plus an optional agent
// message explaining it.
type TaskStatus struct {
	State     string   `json:"state"`
	Message   *Message `json:"message,omitempty"`
	Timestamp string   `json:"timestamp"`
}

// Artifact is a named output produced while working a task.
type Artifact struct {
	ArtifactID  string `json:"artifactId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parts       []Part `json:"parts"`
}

// Task is the unit of work tracked by a TaskManager across its lifecycle:
// submitted -> working -> (completed|failed|canceled|rejected), with
// input-required/auth-required as intermediate states.
type Task struct {
	ID        string     `json:"id"`
	ContextID string     `json:"contextId"`
	Status    TaskStatus `json:"status"`
	History   []Message  `json:"history"`
	Artifacts []Artifact `json:"artifacts"`
	Kind      string     `json:"kind"`
}

const (
	TaskStateSubmitted     = "submitted"
	TaskStateWorking       = "working"
	TaskStateInputRequired = "input-required"
	TaskStateAuthRequired  = "auth-required"
	TaskStateCompleted     = "completed"
	TaskStateFailed        = "failed"
	TaskStateCanceled      = "canceled"
	TaskStateRejected      = "rejected"
)

func isTerminalState(state string) bool {
	switch state {
	case TaskStateCompleted, TaskStateFailed, TaskStateCanceled, TaskStateRejected:
		return true
	default:
		return false
	}
}
