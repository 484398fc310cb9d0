package statecore

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Statecore and Registry operations.
var (
	// ErrDestroyed is returned when a mutating operation is attempted after Destroy.
	ErrDestroyed = errors.New("statecore: instance has been destroyed")

	// ErrInvalidObserver is returned when a nil observer is registered.
	ErrInvalidObserver = errors.New("statecore: observer must be a non-nil function")

	// ErrReservedEvent is returned when Notify is called with a built-in event.
	ErrReservedEvent = errors.New("statecore: reserved event cannot be notified manually")

	// ErrInvalidEvent is returned when Notify is called with an empty event.
	ErrInvalidEvent = errors.New("statecore: event cannot be empty")

	// ErrMissingName is returned by registry lookups without an instance name.
	ErrMissingName = errors.New("statecore: instance name is required")

	// ErrMissingKind is returned by registry lookups without a kind.
	ErrMissingKind = errors.New("statecore: instance kind is required")

	// ErrKindMismatch is returned when a registered name is requested with another state type.
	ErrKindMismatch = errors.New("statecore: registered instance has a different state type")
)

// ObserverError wraps a failure raised by an observer during dispatch.
// It is reported through the Result slice and the EventObserverError
// event, never returned to the caller of Notify.
type ObserverError struct {
	// Event is the event being dispatched when the observer failed.
	Event Event

	// Args are the full dispatched arguments, event first.
	Args []any

	// Err is the error returned by the observer, or a synthesized error for a panic.
	Err error

	// Panic holds the recovered value when the observer panicked.
	Panic any
}

// Error implements the error interface.
func (e *ObserverError) Error() string {
	return fmt.Sprintf("statecore: observer failed on %s: %v", e.Event, e.Err)
}

// Unwrap returns the underlying error.
func (e *ObserverError) Unwrap() error {
	return e.Err
}

// Panicked reports whether the observer panicked instead of returning an error.
func (e *ObserverError) Panicked() bool {
	return e.Panic != nil
}

func newPanicError(event Event, args []any, r any) *ObserverError {
	err, ok := r.(error)
	if !ok {
		err = fmt.Errorf("panic: %v", r)
	} else {
		err = fmt.Errorf("panic: %w", err)
	}
	return &ObserverError{Event: event, Args: append([]any(nil), args...), Err: err, Panic: r}
}
