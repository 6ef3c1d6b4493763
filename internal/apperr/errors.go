package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies ingestion failures.
type Kind string

const (
	KindConfiguration     Kind = "configuration_error"
	KindTimeout           Kind = "timeout"
	KindUpstream          Kind = "upstream_error"
	KindMalformedResponse Kind = "malformed_response"
	KindInvalidResponse   Kind = "invalid_response"
	KindStorage           Kind = "storage_error"
	KindNotification      Kind = "notification_error"
)

// Error is the single error type surfaced by the ingestion core.
type Error struct {
	Kind    Kind
	Message string
	// StatusCode and Body are set for upstream HTTP failures only.
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Upstream builds an upstream failure carrying the HTTP status and raw body.
func Upstream(status int, body string) *Error {
	return &Error{
		Kind:       KindUpstream,
		Message:    "feed returned non-success status",
		StatusCode: status,
		Body:       body,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// IsKind reports whether any *Error in err's chain, including errors.Join branches, has the
// given kind. KindOf, by contrast, only looks at the outermost one.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if ae, ok := err.(*Error); ok && ae.Kind == kind {
			return true
		}
		switch u := err.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				if IsKind(inner, kind) {
					return true
				}
			}
			return false
		case interface{ Unwrap() error }:
			err = u.Unwrap()
		default:
			return false
		}
	}
	return false
}
