package models

import (
	"errors"
	"fmt"
)

// Error codes shared by the server and the client
const (
	CodeInvalidInput = "INVALID_INPUT"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeTransport    = "TRANSPORT"
	CodeRetrieval    = "RETRIEVAL"
	CodeInternal     = "INTERNAL_ERROR"
)

// Common error types
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("resource not found")
	ErrConflict   = errors.New("operation conflicts with current state")
	ErrTransport  = errors.New("backend unreachable")
	ErrRetrieval  = errors.New("retrieval failed")

	// ErrBusy is returned when a workflow already has a submission in flight
	ErrBusy = errors.New("a submission is already pending")
	// ErrNotOpen is returned when acting on a closed workflow
	ErrNotOpen = errors.New("workflow is not open")
)

// AppError represents an application-level error with context
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ErrInvalidInput creates a validation error
func ErrInvalidInput(message string) error {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: message,
		Err:     ErrValidation,
	}
}

// ErrNotFoundWithMsg creates a not found error with custom message
func ErrNotFoundWithMsg(message string) error {
	return &AppError{
		Code:    CodeNotFound,
		Message: message,
		Err:     ErrNotFound,
	}
}

// ErrConflictWithMsg creates a conflict error with custom message
func ErrConflictWithMsg(message string) error {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
		Err:     ErrConflict,
	}
}

// ErrTransportWithMsg creates a transport error carrying the underlying cause
func ErrTransportWithMsg(message string, cause error) error {
	if cause == nil {
		cause = ErrTransport
	} else {
		cause = fmt.Errorf("%w: %w", ErrTransport, cause)
	}
	return &AppError{
		Code:    CodeTransport,
		Message: message,
		Err:     cause,
	}
}

// ErrRetrievalWithMsg wraps a failed lookup so that both ErrRetrieval and the
// original cause stay reachable through errors.Is.
func ErrRetrievalWithMsg(message string, cause error) error {
	err := ErrRetrieval
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrRetrieval, cause)
	}
	return &AppError{
		Code:    CodeRetrieval,
		Message: message,
		Err:     err,
	}
}

// UserMessage returns the text to show for err. Transport failures get a
// generic message, everything else surfaces its own message verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Code == CodeTransport {
			return "Unable to reach the store server. Please try again."
		}
		return appErr.Message
	}
	if errors.Is(err, ErrTransport) {
		return "Unable to reach the store server. Please try again."
	}
	return "Something went wrong. Please try again."
}

// Classify converts any failure into the error taxonomy. Errors already
// carrying an AppError are returned unchanged; everything else is treated as
// the server being unreachable.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	return ErrTransportWithMsg("request failed", err)
}

// IsTransport reports whether err means the server could not be reached
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
