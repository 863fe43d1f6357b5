package model

import (
	"errors"
	"fmt"
)

// ErrorCode represents a structured API error code.
type ErrorCode string

const (
	ErrValidation    ErrorCode = "VALIDATION_ERROR"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrEmpty         ErrorCode = "EMPTY_INPUT"
	ErrInconsistency ErrorCode = "INTERNAL_INCONSISTENCY"
	ErrInternal      ErrorCode = "INTERNAL_ERROR"
)

// ErrEmptyInput is returned when a descriptor source yields no valid process.
// Callers treat it as "nothing to run" rather than as a failure.
var ErrEmptyInput = errors.New("no valid process descriptors")

// APIError is a structured error returned by the schedsim API.
type APIError struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError describes a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// NewValidationError creates an APIError with validation details.
func NewValidationError(msg string, details ...FieldError) *APIError {
	return &APIError{Code: ErrValidation, Message: msg, Details: details}
}

// NewNotFoundError creates a NOT_FOUND APIError.
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s '%s' not found", resource, id),
	}
}

// InvalidTransitionError is returned when a process state transition is invalid.
type InvalidTransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s state transition: %s → %s (entity %s)", e.Entity, e.From, e.To, e.ID)
}

// InconsistencyError reports a defect detected inside a policy run, such as a
// selected process missing from the ready structure. It aborts that run only.
// Tick is negative when the defect was not tied to a tick.
type InconsistencyError struct {
	Policy Policy
	Tick   int
	Detail string
	Err    error
}

func (e *InconsistencyError) Error() string {
	var msg string
	if e.Tick < 0 {
		msg = fmt.Sprintf("%s: internal inconsistency: %s", e.Policy, e.Detail)
	} else {
		msg = fmt.Sprintf("%s: internal inconsistency at tick %d: %s", e.Policy, e.Tick, e.Detail)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InconsistencyError) Unwrap() error { return e.Err }

// IsInconsistency reports whether err is, or wraps, an InconsistencyError.
func IsInconsistency(err error) bool {
	var ie *InconsistencyError
	return errors.As(err, &ie)
}
