// Package apperr is the error taxonomy shared by every application service.
// Handlers translate an *Error into an HTTP status via its Kind.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error for presentation.
type Kind string

const (
	KindAuthenticationRequired Kind = "authentication_required"
	KindAuthorizationDenied    Kind = "authorization_denied"
	KindNotFound               Kind = "not_found"
	KindValidation             Kind = "validation"
	KindQuotaExceeded          Kind = "quota_exceeded"
	KindConflict               Kind = "conflict"
	KindExpired                Kind = "expired"
	KindState                  Kind = "state"
)

// Error is a classified application error. Code identifies the concrete
// failure (e.g. "duplicate_slug") within its Kind.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]interface{}
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches on Kind and Code so sentinels work with errors.Is even when the
// returned error carries details.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// New returns an error without details.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// WithDetails returns a copy of e carrying the given details.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// Newf is New with a formatted message.
func Newf(kind Kind, code, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Shared errors used by several services.
var (
	ErrAuthenticationRequired = New(KindAuthenticationRequired, "not_authenticated", "Not authenticated")
	ErrNotAuthorized          = New(KindAuthorizationDenied, "not_authorized", "Not authorized")
)

// NotFound builds a not-found error for the named resource ("Organisation not found").
func NotFound(resource string) *Error {
	return Newf(KindNotFound, strings.ToLower(resource)+"_not_found", "%s not found", resource)
}

// Validation builds a validation error.
func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

// QuotaExceeded builds a quota error that carries the numbers the client needs
// to render "used/limit" messages.
func QuotaExceeded(resource string, limit, current int64, tier string) *Error {
	return &Error{
		Kind:    KindQuotaExceeded,
		Code:    "quota_exceeded",
		Message: fmt.Sprintf("You have reached the limit of %d %s for your %s plan. Please upgrade to add more.", limit, resource, tier),
		Details: map[string]interface{}{
			"resource": resource,
			"limit":    limit,
			"current":  current,
			"tier":     tier,
		},
	}
}
