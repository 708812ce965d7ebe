package alertstore

import "errors"

var (
	ErrMissingOccurrenceID = errors.New("occurrence id is required")
	// ErrTaskNameTaken reports a task name already used by a different task.
	ErrTaskNameTaken = errors.New("task name already taken")
)
