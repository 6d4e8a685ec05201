// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrAlreadyProcessed = errors.New("already processed")

	// Configuration errors
	ErrMisconfigured = errors.New("invalid configuration")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "profile", "mission", "lesson"
	Op      string // Operation that failed, e.g., "Create", "Update"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Profile domain errors
var (
	// ErrProfileMissing signals a setup defect: every registered user must get a
	// profile during the registration command. Callers must not treat this as a
	// recoverable runtime case.
	ErrProfileMissing       = NewDomainError("profile", "Find", ErrNotFound, "profile missing for user")
	ErrProfileAlreadyExists = NewDomainError("profile", "Create", ErrAlreadyExists, "profile already exists")
	ErrInvalidRole          = NewDomainError("profile", "Validate", ErrInvalidInput, "invalid profile role")
)

// Mission domain errors
var (
	ErrMissionNotFound      = NewDomainError("mission", "Find", ErrNotFound, "mission not found")
	ErrMissionStateNotFound = NewDomainError("mission", "FindState", ErrNotFound, "mission state not found")
	ErrInvalidFrequency     = NewDomainError("mission", "Validate", ErrInvalidInput, "invalid mission frequency")
)

// Badge domain errors
var (
	ErrBadgeNotFound    = NewDomainError("badge", "Find", ErrNotFound, "badge not found")
	ErrInvalidBadgeSlug = NewDomainError("badge", "Validate", ErrInvalidFormat, "invalid badge slug")
)

// Lesson domain errors
var (
	ErrLessonNotFound     = NewDomainError("lesson", "Find", ErrNotFound, "lesson not found")
	ErrSubjectNotFound    = NewDomainError("lesson", "FindSubject", ErrNotFound, "subject not found")
	ErrLessonLocked       = NewDomainError("lesson", "CheckAccess", ErrInvalidState, "lesson is locked by an earlier lesson")
	ErrCompletionNotFound = NewDomainError("lesson", "FindCompletion", ErrNotFound, "lesson completion not found")
)

// Notification domain errors
var (
	ErrNotificationFailed   = NewDomainError("notification", "Send", ErrExternalService, "failed to send notification")
	ErrNotificationDisabled = NewDomainError("notification", "Check", ErrInvalidState, "notifications disabled by user")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsMisconfigured checks if the error is a configuration defect.
func IsMisconfigured(err error) bool {
	return errors.Is(err, ErrMisconfigured)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
