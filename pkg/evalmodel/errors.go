package evalmodel

import (
	"errors"
	"fmt"
)

// ErrorKindClass is one of the six error-kind classes from spec §7.
// These are not identifiers returned to callers of Go APIs directly;
// BoundaryError.Code carries the machine-readable form at the HTTP
// boundary.
type ErrorKindClass string

const (
	ClassValidation     ErrorKindClass = "validation_error"
	ClassExecution      ErrorKindClass = "execution_error"
	ClassTimeout        ErrorKindClass = "timeout_error"
	ClassProvider       ErrorKindClass = "provider_error"
	ClassConfiguration  ErrorKindClass = "configuration_error"
	ClassPersistence    ErrorKindClass = "persistence_error"
)

var (
	// ErrUnknownField indicates a validator rejected a key not in the
	// recognized-options set for ExecutionConfig (spec §9 redesign note 1).
	ErrUnknownField = errors.New("unrecognized field")

	// ErrMissingField indicates a required field was empty or zero.
	ErrMissingField = errors.New("missing required field")

	// ErrOutOfRange indicates a numeric field violated its documented bound.
	ErrOutOfRange = errors.New("value out of range")
)

// FieldError is a single hand-rolled validator finding, carrying the exact
// field path so BoundaryError can report it without a schema library.
type FieldError struct {
	Path string
	Err  error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ValidationError aggregates one or more FieldErrors found while validating
// a public-boundary input (JobPlan, TestCase, ProviderTarget, agent input).
type ValidationError struct {
	Component string
	Fields    []*FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("%s: %v", e.Component, e.Fields[0])
	}
	return fmt.Sprintf("%s: %d validation errors (first: %v)", e.Component, len(e.Fields), e.Fields[0])
}

func (e *ValidationError) Unwrap() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e.Fields[0]
}

// BoundaryError is the JSON shape returned by pkg/api for every non-2xx
// response (spec §7): every 4xx carries recoverable:true unless noted,
// every 5xx carries recoverable:false.
type BoundaryError struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
}

// NewValidationBoundaryError maps a *ValidationError to the wire shape.
func NewValidationBoundaryError(err error) BoundaryError {
	return BoundaryError{
		Code:        "VALIDATION_ERROR",
		Message:     err.Error(),
		Recoverable: true,
	}
}
