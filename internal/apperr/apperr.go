// Package apperr defines the application error taxonomy shared by the guard,
// service, and HTTP layers. Every failure is detected synchronously before a
// mutation commits, so an error from a service method always means nothing
// was persisted.
package apperr

import "fmt"

// Code classifies an application error. The HTTP layer maps codes to status
// codes; tests assert on them.
type Code string

const (
	CodeUnknown         Code = "UNKNOWN"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeValidation      Code = "INVALID_ARGUMENT"
	CodeNotAuthorized   Code = "PERMISSION_DENIED"
	CodeNotFound        Code = "NOT_FOUND"
	CodeInvalidState    Code = "FAILED_PRECONDITION"
	CodeInternal        Code = "INTERNAL"
)

// Error carries a code, an optional offending field (for validation
// failures), a user-displayable message, and an optional cause.
type Error struct {
	Code    Code   `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Constructors

func Unauthenticated(msg string) error {
	return &Error{Code: CodeUnauthenticated, Message: msg}
}

// Validation reports a bad input value on a named field.
func Validation(field, reason string) error {
	return &Error{Code: CodeValidation, Field: field, Message: reason}
}

func NotAuthorized(msg string) error {
	return &Error{Code: CodeNotAuthorized, Message: msg}
}

func NotFound(msg string) error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// InvalidState reports an operation that is valid in general but not for the
// entity's current state, e.g. a recipient reading a pending letter.
func InvalidState(msg string) error {
	return &Error{Code: CodeInvalidState, Message: msg}
}

func Internal(msg string, cause error) error {
	return &Error{Code: CodeInternal, Message: msg, Cause: cause}
}

// CodeOf extracts the Code from err, or CodeUnknown for foreign errors.
func CodeOf(err error) Code {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return CodeUnknown
}

// Is lets errors.Is match two apperr errors by code alone, which keeps
// sentinel-style checks working across wrapped instances.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}
