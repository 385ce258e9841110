// Package apperror defines the error kinds shared by the invoicing core and
// the HTTP boundary.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind string

const (
	KindInvalidAmount      Kind = "INVALID_AMOUNT"
	KindValidationFailed   Kind = "VALIDATION_FAILED"
	KindNotFound           Kind = "NOT_FOUND"
	KindRenderFailed       Kind = "RENDER_FAILED"
	KindStorageUnavailable Kind = "STORAGE_UNAVAILABLE"
	KindConfigMissing      Kind = "CONFIG_MISSING"
	KindUnauthenticated    Kind = "UNAUTHENTICATED"

	// KindInternal is reported for errors that carry no kind
	KindInternal Kind = "INTERNAL"
)

// String returns the string representation of the kind
func (k Kind) String() string {
	return string(k)
}

// Error is an error carrying a Kind and a caller-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match when target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	// ErrInvalidAmount is returned when a computed or supplied amount is not positive
	ErrInvalidAmount = &Error{Kind: KindInvalidAmount, Message: "amount must be greater than zero"}

	// ErrValidationFailed is returned when an input field is out of its allowed range
	ErrValidationFailed = &Error{Kind: KindValidationFailed, Message: "validation failed"}

	// ErrNotFound is returned when a record is missing or owned by another user
	ErrNotFound = &Error{Kind: KindNotFound, Message: "not found"}

	// ErrRenderFailed is returned when the PDF layout fails
	ErrRenderFailed = &Error{Kind: KindRenderFailed, Message: "failed to render document"}

	// ErrStorageUnavailable is returned when the blob store cannot be reached
	ErrStorageUnavailable = &Error{Kind: KindStorageUnavailable, Message: "storage unavailable"}

	// ErrConfigMissing is returned when a required secret is not configured
	ErrConfigMissing = &Error{Kind: KindConfigMissing, Message: "required configuration missing"}

	// ErrUnauthenticated is returned when a bearer token cannot be verified
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Message: "unauthenticated"}
)

// New creates an error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// MessageOf returns the caller-safe message of err, falling back to a generic text.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}
