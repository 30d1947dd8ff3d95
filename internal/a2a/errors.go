package a2a

import "errors"

var (
	ErrTaskNotFound      = errors.New("a2a: task not found")
	ErrTaskNotCancelable = errors.New("a2a: task is not in a cancelable state")
)
