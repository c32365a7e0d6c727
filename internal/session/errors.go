package session

import (
	"errors"
	"fmt"
)

// SessionError represents a failure detected while finalizing or driving a
// session. It carries structured fields so the controller can surface the
// failure without string matching.
type SessionError struct {
	// Code identifies the error category.
	Code SessionErrorCode

	// Message is a human-readable description.
	Message string

	// SeriesID and OccurrenceDate identify the affected occurrence.
	SeriesID       string
	OccurrenceDate string

	// Err is the underlying cause, if any.
	Err error
}

// SessionErrorCode categorizes session errors.
type SessionErrorCode string

const (
	// ErrCodeDuplicateInstance indicates finalize was attempted twice for
	// the same (series, occurrence date).
	ErrCodeDuplicateInstance SessionErrorCode = "DUPLICATE_INSTANCE"

	// ErrCodeStoreFailure indicates a task or instance store call failed.
	ErrCodeStoreFailure SessionErrorCode = "STORE_FAILURE"

	// ErrCodeInvalidTransition indicates a transition was requested from a
	// phase that does not allow it.
	ErrCodeInvalidTransition SessionErrorCode = "INVALID_TRANSITION"
)

// Error implements the error interface.
func (e *SessionError) Error() string {
	if e.SeriesID != "" && e.OccurrenceDate != "" {
		return fmt.Sprintf("%s: %s (series=%s, date=%s)", e.Code, e.Message, e.SeriesID, e.OccurrenceDate)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *SessionError) Unwrap() error { return e.Err }

// IsDuplicateInstance returns true if the error is a duplicate-instance
// rejection. Uses errors.As to handle wrapped errors.
func IsDuplicateInstance(err error) bool {
	var se *SessionError
	if errors.As(err, &se) {
		return se.Code == ErrCodeDuplicateInstance
	}
	return false
}

// NewDuplicateInstanceError creates the idempotency-guard rejection for an
// occurrence that already has an instance.
func NewDuplicateInstanceError(seriesID, dateKey string) *SessionError {
	return &SessionError{
		Code:           ErrCodeDuplicateInstance,
		Message:        "an instance already exists for this occurrence",
		SeriesID:       seriesID,
		OccurrenceDate: dateKey,
	}
}

// newStoreError wraps a store failure with occurrence context.
func newStoreError(seriesID, dateKey string, err error) *SessionError {
	return &SessionError{
		Code:           ErrCodeStoreFailure,
		Message:        err.Error(),
		SeriesID:       seriesID,
		OccurrenceDate: dateKey,
		Err:            err,
	}
}

// newTransitionError rejects a transition not allowed from the current phase.
func newTransitionError(from Phase, action string) *SessionError {
	return &SessionError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("%s is not allowed from phase %s", action, from),
	}
}
