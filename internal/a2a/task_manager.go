package a2a

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/agntcy/go-bridge-sdk/internal/bus"
)

// TaskManager manages the lifecycle of A2A tasks for a single agent.
type TaskManager struct {
	tasks    map[string]*Task
	mu       sync.RWMutex
	eventBus *bus.EventBus
	logger   *logrus.Logger
}

// NewTaskManager creates a new task manager. eventBus may be nil if no one
// is observing task lifecycle events.
func NewTaskManager(eb *bus.EventBus, logger *logrus.Logger) *TaskManager {
	if logger == nil {
		logger = logrus.New()
	}

	return &TaskManager{
		tasks:    make(map[string]*Task),
		eventBus: eb,
		logger:   logger,
	}
}

// CreateTask creates a new task from an inbound message.
func (tm *TaskManager) CreateTask(msg Message) *Task {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	taskID := uuid.New().String()
	contextID := msg.ContextID
	if contextID == "" {
		contextID = uuid.New().String()
	}

	msg.TaskID = taskID
	msg.ContextID = contextID

	task := &Task{
		ID:        taskID,
		ContextID: contextID,
		Status: TaskStatus{
			State:     TaskStateSubmitted,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
		History:   []Message{msg},
		Artifacts: []Artifact{},
		Kind:      "task",
	}

	tm.tasks[taskID] = task
	tm.logger.Debugf("[taskID=%s] created in '%s' state", taskID, TaskStateSubmitted)

	if tm.eventBus != nil {
		tm.eventBus.Publish(bus.Event{
			Type: bus.EventTaskCreated,
			Payload: map[string]interface{}{
				"taskId": taskID,
				"task":   task,
			},
		})
	}

	return task
}

// GetTask retrieves a task by ID.
func (tm *TaskManager) GetTask(id string) (*Task, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	task, exists := tm.tasks[id]
	return task, exists
}

// UpdateTaskStatus moves a task to a new state, optionally attaching the
// agent message that caused the transition.
func (tm *TaskManager) UpdateTaskStatus(id, state string, agentMessage *Message) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	task, exists := tm.tasks[id]
	if !exists {
		tm.logger.Warnf("[taskID=%s] status update on unknown task", id)
		return
	}

	oldState := task.Status.State
	task.Status.State = state
	task.Status.Timestamp = time.Now().UTC().Format(time.RFC3339)

	if agentMessage != nil {
		task.Status.Message = agentMessage
		task.History = append(task.History, *agentMessage)
	}

	tm.logger.Debugf("[taskID=%s] status %s -> %s", id, oldState, state)

	if tm.eventBus != nil {
		tm.eventBus.Publish(bus.Event{
			Type: bus.EventTaskStatusUpdate,
			Payload: map[string]interface{}{
				"taskId":   id,
				"oldState": oldState,
				"newState": state,
				"status":   task.Status,
			},
		})
	}
}

// AddArtifactToTask appends an artifact to a task's output.
func (tm *TaskManager) AddArtifactToTask(id string, artifact Artifact) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	task, exists := tm.tasks[id]
	if !exists {
		tm.logger.Warnf("[taskID=%s] artifact added to unknown task", id)
		return
	}

	task.Artifacts = append(task.Artifacts, artifact)

	if tm.eventBus != nil {
		tm.eventBus.Publish(bus.Event{
			Type: bus.EventArtifactAdded,
			Payload: map[string]interface{}{
				"taskId":   id,
				"artifact": artifact,
			},
		})
	}
}

// AddMessageToHistory appends message to a task's history, stamping it with
// the task's own task/context IDs.
func (tm *TaskManager) AddMessageToHistory(id string, message Message) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	task, exists := tm.tasks[id]
	if !exists {
		tm.logger.Warnf("[taskID=%s] message added to unknown task", id)
		return
	}

	message.TaskID = id
	message.ContextID = task.ContextID
	task.History = append(task.History, message)
}

// ListTasks returns a snapshot of all tracked tasks.
func (tm *TaskManager) ListTasks() map[string]*Task {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	tasks := make(map[string]*Task, len(tm.tasks))
	for id, task := range tm.tasks {
		tasks[id] = task
	}
	return tasks
}

// GetTasksByState returns every task currently in state.
func (tm *TaskManager) GetTasksByState(state string) []*Task {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	var tasks []*Task
	for _, task := range tm.tasks {
		if task.Status.State == state {
			tasks = append(tasks, task)
		}
	}
	return tasks
}

// CleanupCompletedTasks removes terminal-state tasks whose last status
// update is older than olderThan, returning the number removed.
func (tm *TaskManager) CleanupCompletedTasks(olderThan time.Duration) int {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	cleaned := 0

	for id, task := range tm.tasks {
		if !isTerminalState(task.Status.State) {
			continue
		}
		timestamp, err := time.Parse(time.RFC3339, task.Status.Timestamp)
		if err != nil || timestamp.After(cutoff) {
			continue
		}
		delete(tm.tasks, id)
		cleaned++
	}

	return cleaned
}

// CancelTask moves a task to the canceled state, if it is currently in a
// cancelable (non-terminal) state.
func (tm *TaskManager) CancelTask(id string) (*Task, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	task, exists := tm.tasks[id]
	if !exists {
		return nil, ErrTaskNotFound
	}

	if isTerminalState(task.Status.State) {
		return nil, ErrTaskNotCancelable
	}

	oldState := task.Status.State
	task.Status.State = TaskStateCanceled
	task.Status.Timestamp = time.Now().UTC().Format(time.RFC3339)

	if tm.eventBus != nil {
		tm.eventBus.Publish(bus.Event{
			Type: bus.EventTaskStatusUpdate,
			Payload: map[string]interface{}{
				"taskId":   id,
				"oldState": oldState,
				"newState": TaskStateCanceled,
				"status":   task.Status,
			},
		})
	}

	return task, nil
}

// GetTaskCount returns the number of tasks currently in each known state.
func (tm *TaskManager) GetTaskCount() map[string]int {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	counts := map[string]int{
		TaskStateSubmitted:     0,
		TaskStateWorking:       0,
		TaskStateCompleted:     0,
		TaskStateFailed:        0,
		TaskStateInputRequired: 0,
		TaskStateCanceled:      0,
		TaskStateRejected:      0,
		TaskStateAuthRequired:  0,
	}

	for _, task := range tm.tasks {
		counts[task.Status.State]++
	}

	return counts
}
