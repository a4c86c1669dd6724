package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies a pipeline error.
type ErrorType string

const (
	ErrorTypeFormat            ErrorType = "FORMAT_ERROR"       // unsupported pixel format, fatal for the stream
	ErrorTypeDecode            ErrorType = "DECODE_ERROR"       // transient decode failure, caller may retry
	ErrorTypeResourceExhausted ErrorType = "RESOURCE_EXHAUSTED" // thread spawn / allocation failure
	ErrorTypeGPUSync           ErrorType = "GPU_SYNC"           // fence timeout or retry budget exhausted
	ErrorTypeNotFound          ErrorType = "NOT_FOUND"          // missing file or stream
	ErrorTypeUnavailable       ErrorType = "UNAVAILABLE"        // no decoder/encoder for the codec
	ErrorTypeValidation        ErrorType = "VALIDATION_ERROR"   // invalid argument or configuration
	ErrorTypeInternal          ErrorType = "INTERNAL_ERROR"
)

// PipelineError is the typed failure every public operation returns.
// Logging is never the sole signal of failure; callers always receive
// one of these.
type PipelineError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error.
func (e *PipelineError) WithDetails(details map[string]interface{}) *PipelineError {
	e.Details = details
	return e
}

// New creates a new PipelineError.
func New(errType ErrorType, message string) *PipelineError {
	return &PipelineError{
		Type:    errType,
		Message: message,
	}
}

// Wrap wraps an existing error.
func Wrap(err error, errType ErrorType, message string) *PipelineError {
	return &PipelineError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Common error constructors.

// NewFormatError creates an unsupported-format error. Fatal for the stream.
func NewFormatError(message string) *PipelineError {
	return New(ErrorTypeFormat, message)
}

// NewDecodeError wraps a transient decode failure.
func NewDecodeError(err error, message string) *PipelineError {
	return Wrap(err, ErrorTypeDecode, message)
}

// NewResourceExhaustedError creates a resource-exhaustion error. The
// component that returned it is still in its pre-call state.
func NewResourceExhaustedError(err error, message string) *PipelineError {
	return Wrap(err, ErrorTypeResourceExhausted, message)
}

// NewGPUSyncError creates a GPU synchronization error. Fatal for the
// in-flight frame, not for the session.
func NewGPUSyncError(err error, message string) *PipelineError {
	return Wrap(err, ErrorTypeGPUSync, message)
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(resource string) *PipelineError {
	return New(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource))
}

// NewUnavailableError reports that no codec implementation can serve the
// requested stream.
func NewUnavailableError(message string) *PipelineError {
	return New(ErrorTypeUnavailable, message)
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *PipelineError {
	return New(ErrorTypeValidation, message)
}

// NewInternalError creates an internal error.
func NewInternalError(message string) *PipelineError {
	return New(ErrorTypeInternal, message)
}

// WrapInternalError wraps an error as an internal error.
func WrapInternalError(err error, message string) *PipelineError {
	return Wrap(err, ErrorTypeInternal, message)
}

// IsType reports whether err is a PipelineError of the given type.
func IsType(err error, errType ErrorType) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Type == errType
	}
	return false
}

// GetPipelineError extracts a PipelineError from an error chain.
func GetPipelineError(err error) (*PipelineError, bool) {
	var pe *PipelineError
	ok := errors.As(err, &pe)
	return pe, ok
}
