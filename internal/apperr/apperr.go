// Package apperr defines the error taxonomy shared by the service layer and
// the HTTP boundary. Every failure the engine surfaces carries a Kind the
// handler can map to a status code, plus enough detail for the caller to act
// (offending item ids, required roles).
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindNotFound   Kind = "NOT_FOUND"
	KindConflict   Kind = "CONFLICT"
	KindForbidden  Kind = "FORBIDDEN"
	KindNoCapacity Kind = "NO_CAPACITY"
	KindParse      Kind = "PARSE"
)

// Error is the single error type of the taxonomy. Details is optional
// machine-readable context (e.g. {"item_ids": [...]}).
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", strings.ToLower(string(e.Kind)), e.Message)
	}
	return fmt.Sprintf("%s: %s %v", strings.ToLower(string(e.Kind)), e.Message, e.Details)
}

// WithDetail returns a copy of the error with one extra detail entry.
func (e *Error) WithDetail(key string, value any) *Error {
	d := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		d[k] = v
	}
	d[key] = value
	return &Error{Kind: e.Kind, Message: e.Message, Details: d}
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func NoCapacity(format string, args ...any) *Error {
	return &Error{Kind: KindNoCapacity, Message: fmt.Sprintf(format, args...)}
}

func Parse(format string, args ...any) *Error {
	return &Error{Kind: KindParse, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the taxonomy kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool   { return KindOf(err) == KindConflict }
func IsForbidden(err error) bool  { return KindOf(err) == KindForbidden }
func IsNoCapacity(err error) bool { return KindOf(err) == KindNoCapacity }
func IsParse(err error) bool      { return KindOf(err) == KindParse }
