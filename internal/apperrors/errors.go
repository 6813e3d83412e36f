// Package apperrors defines the error kinds surfaced by the transcription
// service and the HTTP status each one maps to.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a machine-readable error classification.
type Kind string

const (
	KindValidation       Kind = "ValidationError"
	KindConversion       Kind = "ConversionError"
	KindProvider         Kind = "ProviderError"
	KindProviderResponse Kind = "ProviderResponseError"
	KindBusy             Kind = "BusyError"
	KindInternal         Kind = "InternalError"
)

var statusByKind = map[Kind]int{
	KindValidation:       http.StatusBadRequest,
	KindConversion:       http.StatusInternalServerError,
	KindProvider:         http.StatusInternalServerError,
	KindProviderResponse: http.StatusInternalServerError,
	KindBusy:             http.StatusServiceUnavailable,
	KindInternal:         http.StatusInternalServerError,
}

// AppError is the error type returned across package boundaries.
type AppError struct {
	// Kind classifies the failure.
	Kind Kind `json:"kind"`
	// Message is safe to show to API clients.
	Message string `json:"error"`
	// HTTPStatus is the status code the API layer responds with.
	HTTPStatus int `json:"-"`
	// Details carries extra context for logs.
	Details map[string]any `json:"-"`
	// Cause is the underlying error, if any.
	Cause error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Is matches on Kind so errors.Is(err, apperrors.Validation("")) works
// regardless of message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an AppError with the status registered for kind.
func New(kind Kind, message string) *AppError {
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{Kind: kind, Message: message, HTTPStatus: status}
}

func Validation(message string) *AppError { return New(KindValidation, message) }

func Conversion(message string) *AppError { return New(KindConversion, message) }

func Provider(message string) *AppError { return New(KindProvider, message) }

func ProviderResponse(message string) *AppError { return New(KindProviderResponse, message) }

func Busy(message string) *AppError { return New(KindBusy, message) }

// Internal wraps an unexpected failure. The message stays generic so
// filesystem paths never reach the client.
func Internal(cause error) *AppError {
	return New(KindInternal, "Internal server error").WithCause(cause)
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err carries an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

// HTTPStatus returns the status for err, defaulting to 500.
func HTTPStatus(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
