package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_ERROR", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewJobNotFound reports an unknown job identifier.
func NewJobNotFound(jobID string) error {
	return &DomainError{
		Code:       "JOB_NOT_FOUND",
		Message:    "job not found",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"job_id": jobID},
	}
}

// NewInvalidStatusTransition reports a business-rule violation with a
// human-readable reason.
func NewInvalidStatusTransition(message string) error {
	return NewDomainError("INVALID_STATUS_TRANSITION", message, http.StatusBadRequest, nil)
}

// NewConflict reports a lost-update race detected by a conditional write.
func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

// NewQueueNotConfigured reports an unreachable or unconfigured queue
// transport. Raised before any job record is created.
func NewQueueNotConfigured(err error) error {
	return &DomainError{
		Code:       "QUEUE_NOT_CONFIGURED",
		Message:    "job queue transport is not configured",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewUnsupportedJobType reports a handler dispatch miss inside the consumer.
func NewUnsupportedJobType(jobType string) error {
	return NewDomainError("UNSUPPORTED_JOB_TYPE",
		fmt.Sprintf("no handler registered for job type %q", jobType),
		http.StatusBadRequest, nil)
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
