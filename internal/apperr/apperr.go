// Package apperr defines the error taxonomy shared by services, middleware
// and the HTTP layer. Handlers return these errors and a single central
// responder maps them to status codes, so no handler builds error responses
// on its own.
package apperr

import "net/http"

// Kind classifies an error for status-code mapping.
type Kind int

const (
	// Validation covers missing or malformed request fields.
	Validation Kind = iota
	// Conflict covers uniqueness violations such as a duplicate email.
	// The API contract maps it to 400, not 409.
	Conflict
	// Auth covers missing/invalid tokens and bad credentials.
	Auth
	// NotFound covers lookups of unknown ids.
	NotFound
	// Internal covers store and hashing failures. The wrapped cause is
	// logged but never exposed to the caller.
	Internal
)

// Error is an error with a client-safe message and a status-code kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code for the error's kind.
func (e *Error) Status() int {
	switch e.Kind {
	case Validation, Conflict:
		return http.StatusBadRequest
	case Auth:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// New creates an error with a client-safe message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause to a client-safe message. The cause stays
// server-side.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Credential and token failures are deliberately generic: callers must not
// be able to tell an unknown email from a wrong password, or an expired
// token from a malformed one.
var (
	ErrInvalidCredentials = New(Auth, "Invalid credentials")
	ErrInvalidToken       = New(Auth, "Invalid token")
)
