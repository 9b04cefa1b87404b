package validationrequest

import (
	"fmt"

	"github.com/openplanning/caseflow/modules/planning/domain/application"
)

// NotCreatableError is returned when a request is created against an
// application whose lifecycle state disallows it.
type NotCreatableError struct {
	Kind   Kind
	Status application.Status
	Reason string
}

func (e *NotCreatableError) Error() string {
	return fmt.Sprintf("cannot create %s validation request while application is %s: %s", e.Kind, e.Status, e.Reason)
}

// NotDestroyableError is returned on destroy attempts against requests
// that have already been sent.
type NotDestroyableError struct {
	Kind  Kind
	State State
}

func (e *NotDestroyableError) Error() string {
	return fmt.Sprintf("only pending validation requests can be destroyed; %s request is %s", e.Kind, e.State)
}

// InvalidTransitionError is returned when a workflow event fires from a
// state that does not permit it.
type InvalidTransitionError struct {
	Event Event
	From  State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s validation request from %s", e.Event, e.From)
}

// RecordCancelError wraps any persistence or transition failure hit
// during cancellation, preserving the cause for diagnostics.
type RecordCancelError struct {
	Cause error
}

func (e *RecordCancelError) Error() string {
	return fmt.Sprintf("failed to cancel validation request: %v", e.Cause)
}

func (e *RecordCancelError) Unwrap() error {
	return e.Cause
}
