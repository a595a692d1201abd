package carrier

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure so callers can branch on the
// category instead of matching message strings.
type Kind string

const (
	KindAuth      Kind = "auth"
	KindTransport Kind = "transport"
	KindDecode    Kind = "decode"
	KindIO        Kind = "io"
	KindMerge     Kind = "merge"
	KindNotFound  Kind = "not_found"
)

// Error represents a failure from the carrier API or the label pipeline.
type Error struct {
	Carrier    string
	Kind       Kind
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", e.Carrier, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Carrier, e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is by comparing failure kinds.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewError creates a new carrier Error.
func NewError(carrier string, kind Kind, message string) *Error {
	return &Error{
		Carrier: carrier,
		Kind:    kind,
		Message: message,
	}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithStatusCode adds an HTTP status code to the error.
func (e *Error) WithStatusCode(code int) *Error {
	e.StatusCode = code
	return e
}

// Sentinel errors for common label pipeline scenarios.
var (
	// ErrMissingCredentials indicates the account number, username or
	// password is not configured.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrEmptyToken indicates the token endpoint answered without a token.
	ErrEmptyToken = errors.New("empty token in response")

	// ErrNoWaybills indicates the carrier returned no label payloads for an AWB.
	ErrNoWaybills = errors.New("no waybills returned")

	// ErrNoTrackingList indicates the carrier has no tracking events yet.
	ErrNoTrackingList = errors.New("no tracking list returned")

	// ErrNoShipment indicates an order has no AWB assigned.
	ErrNoShipment = errors.New("order has no shipment")
)

// KindOf returns the failure kind of err, or the empty Kind for errors
// raised outside the pipeline taxonomy.
func KindOf(err error) Kind {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return ""
}
