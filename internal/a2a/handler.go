package a2a

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// RequestHandler is the user-supplied business logic invoked for a
// "message/send" call. It receives the inbound message and returns the
// agent's reply message. Dispatch has no "message/stream" case; that method
// is answered with a method-not-found error.
type RequestHandler func(ctx context.Context, msg Message) (Message, error)

// JSONRPCHandler dispatches inbound JSON-RPC envelopes by method name,
// maintaining task state via an embedded TaskManager. It is the "A2A engine"
// protocol bridges drive directly (spec.md §4.3, A2A-Patterns bridge).
type JSONRPCHandler struct {
	Tasks  *TaskManager
	Handle RequestHandler
	logger *logrus.Logger
}

// NewJSONRPCHandler builds a handler bound to the given business-logic
// callback. tasks may be nil, in which case one is created with no event
// bus attached.
func NewJSONRPCHandler(handle RequestHandler, tasks *TaskManager, logger *logrus.Logger) *JSONRPCHandler {
	if logger == nil {
		logger = logrus.New()
	}
	if tasks == nil {
		tasks = NewTaskManager(nil, logger)
	}
	return &JSONRPCHandler{Tasks: tasks, Handle: handle, logger: logger}
}

// Dispatch routes req to the matching method implementation and always
// returns a well-formed JSONRPCResponse — errors from the handler are
// converted to a JSON-RPC error response rather than propagated to the
// caller, per spec.md §7 ("HandlerError is converted into a JSON-RPC error
// response").
func (h *JSONRPCHandler) Dispatch(ctx context.Context, req JSONRPCRequest) JSONRPCResponse {
	switch req.Method {
	case "message/send":
		return h.handleMessageSend(ctx, req)
	case "tasks/get":
		return h.handleTasksGet(req)
	case "tasks/cancel":
		return h.handleTasksCancel(req)
	default:
		return NewJSONRPCErrorResponse(req.ID, NewRPCError(ErrorCodeMethodNotFound, "method not found: "+req.Method))
	}
}

type messageSendParams struct {
	Message Message `json:"message"`
}

func (h *JSONRPCHandler) handleMessageSend(ctx context.Context, req JSONRPCRequest) JSONRPCResponse {
	var params messageSendParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewJSONRPCErrorResponse(req.ID, NewRPCError(ErrorCodeInvalidParams, err.Error()))
	}

	task := h.Tasks.CreateTask(params.Message)
	h.Tasks.UpdateTaskStatus(task.ID, TaskStateWorking, nil)

	if h.Handle == nil {
		err := NewRPCError(ErrorCodeInternalError, "no request handler configured")
		h.Tasks.UpdateTaskStatus(task.ID, TaskStateFailed, nil)
		return NewJSONRPCErrorResponse(req.ID, err)
	}

	reply, err := h.Handle(ctx, params.Message)
	if err != nil {
		h.Tasks.UpdateTaskStatus(task.ID, TaskStateFailed, nil)
		return NewJSONRPCErrorResponse(req.ID, NewRPCError(ErrorCodeInternalError, err.Error()))
	}

	reply.TaskID = task.ID
	reply.ContextID = task.ContextID
	h.Tasks.UpdateTaskStatus(task.ID, TaskStateCompleted, &reply)

	updated, _ := h.Tasks.GetTask(task.ID)
	return NewJSONRPCResponse(req.ID, updated)
}

type taskIDParams struct {
	ID string `json:"id"`
}

func (h *JSONRPCHandler) handleTasksGet(req JSONRPCRequest) JSONRPCResponse {
	var params taskIDParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewJSONRPCErrorResponse(req.ID, NewRPCError(ErrorCodeInvalidParams, err.Error()))
	}
	task, ok := h.Tasks.GetTask(params.ID)
	if !ok {
		return NewJSONRPCErrorResponse(req.ID, NewRPCError(ErrorCodeTaskNotFound, ErrTaskNotFound.Error()))
	}
	return NewJSONRPCResponse(req.ID, task)
}

func (h *JSONRPCHandler) handleTasksCancel(req JSONRPCRequest) JSONRPCResponse {
	var params taskIDParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return NewJSONRPCErrorResponse(req.ID, NewRPCError(ErrorCodeInvalidParams, err.Error()))
	}
	task, err := h.Tasks.CancelTask(params.ID)
	if err != nil {
		code := ErrorCodeInternalError
		switch err {
		case ErrTaskNotFound:
			code = ErrorCodeTaskNotFound
		case ErrTaskNotCancelable:
			code = ErrorCodeTaskNotCancel
		}
		return NewJSONRPCErrorResponse(req.ID, NewRPCError(code, err.Error()))
	}
	return NewJSONRPCResponse(req.ID, task)
}
