package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the request credential is missing or wrong.
	ErrUnauthorized = errors.New("unauthorized request")

	// ErrMalformedPayload is returned when the body is not a JSON object
	// or its tweets field is not a list of objects.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrDownstream is returned when a downstream processor fails.
	// It never changes the webhook response.
	ErrDownstream = errors.New("downstream processor failed")
)

// PayloadError carries the parser diagnostic for a malformed body.
type PayloadError struct {
	Reason string
}

func (e *PayloadError) Error() string {
	return e.Reason
}

// Unwrap makes errors.Is(err, ErrMalformedPayload) hold.
func (e *PayloadError) Unwrap() error {
	return ErrMalformedPayload
}

// NewPayloadError formats a PayloadError.
func NewPayloadError(format string, args ...any) *PayloadError {
	return &PayloadError{Reason: fmt.Sprintf(format, args...)}
}

// ProcessorError records which downstream processor failed.
type ProcessorError struct {
	Processor string
	Err       error
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("processor %s: %v", e.Processor, e.Err)
}

// Unwrap exposes both ErrDownstream and the cause.
func (e *ProcessorError) Unwrap() []error {
	return []error{ErrDownstream, e.Err}
}
