package orchestrator

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session id is unknown to the
// registry. It carries no side effects: the session map is left untouched.
var ErrSessionNotFound = errors.New("session not found")

// ErrEmptyPlan is returned when planning produces no runnable stages. With
// the current rule set this cannot happen; it guards future rules.
var ErrEmptyPlan = errors.New("workflow plan is empty")

// CollaboratorError wraps a failure raised by an injected collaborator during
// a stage. It aborts the remaining stages and moves the session to the error
// state; retrying is the caller's decision.
type CollaboratorError struct {
	Stage Stage
	Err   error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("stage %s: collaborator failed: %v", e.Stage, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}
