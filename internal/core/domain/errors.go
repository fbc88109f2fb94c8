package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind tags a business failure so the HTTP boundary can pick a status
// code without inspecting message text.
type ErrorKind int

const (
	KindValidation ErrorKind = iota // malformed input, rejected before storage
	KindNotFound                    // referenced entity absent
	KindConflict                    // uniqueness or state-transition rule violated
	KindInternal                    // storage or infrastructure failure
)

// Error is the failure type raised by the core. Message is user-visible;
// Violations is populated only for validation failures and lists every rule
// the payload broke.
type Error struct {
	Kind       ErrorKind
	Message    string
	Violations []string
}

func (e *Error) Error() string {
	if e.Kind == KindValidation && len(e.Violations) > 0 {
		return e.Message + ": " + strings.Join(e.Violations, "; ")
	}
	return e.Message
}

// NotFoundf builds a not-found error with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflictf builds a conflict error with a formatted message.
func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Internalf builds an internal error with a formatted message. The message is
// logged but never returned to clients verbatim.
func Internalf(format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...)}
}

// NewValidationError wraps the full list of violated field rules.
func NewValidationError(violations []string) *Error {
	return &Error{Kind: KindValidation, Message: "Validation failed", Violations: violations}
}

// IsKind reports whether err is a core Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
