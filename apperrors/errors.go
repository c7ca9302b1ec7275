package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the coarse error category clients branch on.
type Kind string

const (
	KindValidation      Kind = "VALIDATION"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindForbidden       Kind = "FORBIDDEN"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindInternal        Kind = "INTERNAL"
)

// Code narrows a Kind down to a specific failure.
type Code string

const (
	CodeDuplicateEmail     Code = "DUPLICATE_EMAIL"
	CodeWeakPassword       Code = "WEAK_PASSWORD"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeExpired            Code = "EXPIRED"
	CodeMalformed          Code = "MALFORMED"
	CodeRevoked            Code = "REVOKED"
	CodeProductNotFound    Code = "PRODUCT_NOT_FOUND"
	CodeInvalidQuantity    Code = "INVALID_QUANTITY"
	CodeInsufficientStock  Code = "INSUFFICIENT_STOCK"
	CodeVersionConflict    Code = "VERSION_CONFLICT"
	CodeContentionExceeded Code = "CONTENTION_EXCEEDED"
)

// Error is the application error carried between services and the transport
// layer. Raw storage errors are wrapped and never serialized to clients.
type Error struct {
	Kind    Kind                   `json:"kind"`
	Code    Code                   `json:"code,omitempty"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error.
func New(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// WithDetails attaches structured details for the client.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

// Wrap attaches an underlying cause.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// Internal wraps an unexpected collaborator failure. The cause is kept for
// operator logs but the client only ever sees the generic message.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// From extracts an *Error from err, wrapping unknown errors as INTERNAL.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// KindOf reports the Kind of err, KindInternal for unrecognized errors.
func KindOf(err error) Kind {
	return From(err).Kind
}

// CodeOf reports the Code of err, empty for unrecognized errors.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HTTPStatus maps a Kind to the HTTP status the transport layer writes.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
