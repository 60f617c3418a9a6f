package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel errors for pipeline operations
var (
	// ErrUnknownAction indicates a request named an action the worker does not serve
	ErrUnknownAction = errors.New("unknown action")

	// ErrWorkerStopped indicates the worker no longer accepts requests
	ErrWorkerStopped = errors.New("worker stopped")

	// ErrWorkerNotStarted indicates Submit was called before Start
	ErrWorkerNotStarted = errors.New("worker not started")

	// ErrWorkerAlreadyStarted indicates Start was called twice
	ErrWorkerAlreadyStarted = errors.New("worker already started")

	// ErrMalformedPayload indicates a fetched resource is not the expected JSON shape
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrPanic indicates a source, codec or transform panicked while serving a request
	ErrPanic = errors.New("panic while serving request")
)

// FetchError reports a failed fetch or transform of one resource.
type FetchError struct {
	RequestID string
	Action    string
	Resource  string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Action, e.Resource, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// guard runs fn and turns a panic into an error wrapping ErrPanic.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}
