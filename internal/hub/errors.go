package hub

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an EventError so the socket and REST surfaces can
// report it consistently
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindConflict
	KindForbidden
	KindInternal
)

// EventError is reported to the originating connection as an error event.
// Message is safe to show to the client; Err is the logged cause.
type EventError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *EventError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *EventError) Unwrap() error {
	return e.Err
}

func validationError(format string, args ...any) *EventError {
	return &EventError{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(message string) *EventError {
	return &EventError{Kind: KindNotFound, Message: message}
}

func conflictError(message string, err error) *EventError {
	return &EventError{Kind: KindConflict, Message: message, Err: err}
}

func forbiddenError(message string) *EventError {
	return &EventError{Kind: KindForbidden, Message: message}
}

func internalError(message string, err error) *EventError {
	return &EventError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of err, or 0 when err is not an EventError
func KindOf(err error) ErrorKind {
	var ee *EventError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return 0
}
