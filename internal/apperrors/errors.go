// Package apperrors defines the error taxonomy shared by the store, the
// services and the HTTP boundary.
package apperrors

import (
	"errors"
	"fmt"
)

// Validation codes
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeInvalidCategory    = "INVALID_CATEGORY"
	CodeInvalidCoordinates = "INVALID_COORDINATES"
	CodeOutOfServiceArea   = "OUT_OF_SERVICE_AREA"
)

var (
	// ErrNotFound covers both a missing record and a record whose status
	// did not match the expected prior status of a conditional update.
	ErrNotFound = errors.New("record not found")

	// ErrForbidden is returned when the admin secret does not match.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError describes malformed or out-of-range input.
type ValidationError struct {
	Code    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Validation builds a ValidationError.
func Validation(code, field, message string) *ValidationError {
	return &ValidationError{Code: code, Field: field, Message: message}
}

// UpstreamError wraps a failure of the external mapping provider.
type UpstreamError struct {
	Op         string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s: upstream timeout", e.Op)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: upstream status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": upstream error"
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// AsValidation reports whether err is (or wraps) a ValidationError.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// AsUpstream reports whether err is (or wraps) an UpstreamError.
func AsUpstream(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
