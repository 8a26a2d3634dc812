package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind is the caller-facing error taxonomy.
type Kind string

const (
	KindBadRequest      Kind = "BAD_REQUEST"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindForbidden       Kind = "FORBIDDEN"
	KindNotFound        Kind = "NOT_FOUND"
	KindTimeout         Kind = "TIMEOUT"
	KindConflict        Kind = "CONFLICT"
	KindRateLimited     Kind = "RATE_LIMITED"
	KindServerError     Kind = "SERVER_ERROR"
	KindInvalidResponse Kind = "INVALID_RESPONSE"
	KindInternal        Kind = "INTERNAL"
)

// KindFromStatus maps an HTTP status to a Kind. It is a pure function.
func KindFromStatus(status int) Kind {
	switch {
	case status == http.StatusBadRequest:
		return KindBadRequest
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusRequestTimeout:
		return KindTimeout
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 500 && status <= 599:
		return KindServerError
	default:
		return KindInternal
	}
}

// Error is the single error shape surfaced by the gateway client.
type Error struct {
	Kind    Kind
	Message string

	// RequestID is the correlation id shared by every attempt of the logical call.
	RequestID string

	// Status is the last HTTP status seen, 0 when no response was received.
	Status int

	// Cause is the underlying error (transport, decode, validation).
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.RequestID != "" && !strings.Contains(e.Message, e.RequestID) {
		b.WriteString(" (request-id: ")
		b.WriteString(e.RequestID)
		b.WriteString(")")
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// AsError extracts *Error.
func AsError(err error) (*Error, bool) {
	var ge *Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// IsKind reports whether err is a gateway error of the given kind.
func IsKind(err error, kind Kind) bool {
	ge, ok := AsError(err)
	return ok && ge.Kind == kind
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if ge, ok := AsError(err); ok {
		return ge.Kind
	}
	return KindInternal
}

// newError is the only constructor for terminal failures.
// detail wins over the generic "<method> <path> returned <status>" message.
func newError(kind Kind, call Call, status int, detail, requestID string, cause error) *Error {
	msg := strings.TrimSpace(detail)
	if msg == "" {
		switch {
		case status != 0:
			msg = fmt.Sprintf("%s %s returned %d", call.Method, call.Path, status)
		case cause != nil:
			msg = fmt.Sprintf("%s %s failed: %v", call.Method, call.Path, cause)
		default:
			msg = fmt.Sprintf("%s %s failed", call.Method, call.Path)
		}
	}
	return &Error{
		Kind:      kind,
		Message:   msg,
		RequestID: requestID,
		Status:    status,
		Cause:     cause,
	}
}
