package capture

import (
	"errors"
	"fmt"
)

// Error represents a condition reported by the capture engine.
//
// The engine has no error taxonomy of its own in the hardware it models;
// these codes cover the hazards the hardware leaves unchecked:
//   - Empty read: capdata read while the result queue holds nothing
//   - Full push: a sample offered to a queue that cannot take it
//   - Invalid config: parameters that would make overflow possible
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes capture errors.
type ErrorCode string

const (
	// ErrCodeEmptyQueue indicates a read with no sample available.
	ErrCodeEmptyQueue ErrorCode = "EMPTY_QUEUE"

	// ErrCodeQueueFull indicates a push against a full result queue.
	ErrCodeQueueFull ErrorCode = "QUEUE_FULL"

	// ErrCodeInvalidConfig indicates rejected device parameters.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if field := e.Details["field"]; field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsEmptyQueue returns true if err is an empty queue read.
// Uses errors.As to handle wrapped errors.
func IsEmptyQueue(err error) bool {
	return hasCode(err, ErrCodeEmptyQueue)
}

// IsQueueFull returns true if err is a push against a full queue.
func IsQueueFull(err error) bool {
	return hasCode(err, ErrCodeQueueFull)
}

// IsInvalidConfig returns true if err is a configuration rejection.
func IsInvalidConfig(err error) bool {
	return hasCode(err, ErrCodeInvalidConfig)
}

func hasCode(err error, code ErrorCode) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// NewEmptyQueueError creates an Error for a read from an empty queue.
func NewEmptyQueueError() *Error {
	return &Error{
		Code:    ErrCodeEmptyQueue,
		Message: "result queue has no sample ready",
	}
}

// NewQueueFullError creates an Error for a push against a full queue.
func NewQueueFullError(capacity int) *Error {
	return &Error{
		Code:    ErrCodeQueueFull,
		Message: fmt.Sprintf("result queue is full (capacity %d)", capacity),
		Details: map[string]string{
			"capacity": fmt.Sprintf("%d", capacity),
		},
	}
}

// NewConfigError creates an Error for an invalid configuration field.
func NewConfigError(field, message string) *Error {
	return &Error{
		Code:    ErrCodeInvalidConfig,
		Message: message,
		Details: map[string]string{
			"field": field,
		},
	}
}
