package app

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInvalidInput Kind = iota + 1
	KindConflict
	KindUnauthorized
	KindForbidden
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Status is the HTTP status code the boundary renders for the kind.
func (k Kind) Status() int {
	switch k {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain failure whose message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrUsernameExists     = &Error{Kind: KindConflict, Message: "Username already exists"}
	ErrEmailExists        = &Error{Kind: KindConflict, Message: "Email already exists"}
	ErrResourceExists     = &Error{Kind: KindConflict, Message: "Resource already exists"}
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Message: "Invalid credentials"}
	ErrNoToken            = &Error{Kind: KindUnauthorized, Message: "No token provided"}
	ErrInvalidToken       = &Error{Kind: KindUnauthorized, Message: "Invalid token"}
	ErrAdminRequired      = &Error{Kind: KindForbidden, Message: "Admin access required"}
	ErrUserNotFound       = &Error{Kind: KindNotFound, Message: "User not found"}
)

func InvalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

// AsError unwraps err to a domain error. Anything else is an internal failure.
func AsError(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
