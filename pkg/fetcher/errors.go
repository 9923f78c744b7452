package fetcher

import (
	"errors"
	"fmt"
	"net/url"
)

// Kind categorizes fetch failures.
type Kind string

const (
	KindTransport Kind = "transport"
	KindParse     Kind = "parse"
	KindStatus    Kind = "status"
)

// Sentinels for errors.Is checks against a failure kind.
var (
	ErrTransport = &Error{Kind: KindTransport}
	ErrParse     = &Error{Kind: KindParse}
	ErrStatus    = &Error{Kind: KindStatus}
)

// Error describes a failed fetch and the cause behind it.
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int
	Err        error
}

// Error implements error interface
func (e *Error) Error() string {
	target := "GET " + e.URL
	if e.StatusCode != 0 {
		target = fmt.Sprintf("%s (status %d)", target, e.StatusCode)
	}
	cause := e.Err
	// *url.Error repeats the method and URL already in target
	if ue, ok := cause.(*url.Error); ok && ue.Err != nil {
		cause = ue.Err
	}
	if cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, target, cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, target)
}

// Unwrap returns wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newTransportError(url string, err error) *Error {
	return &Error{Kind: KindTransport, URL: url, Err: err}
}

func newParseError(url string, status int, err error) *Error {
	return &Error{Kind: KindParse, URL: url, StatusCode: status, Err: err}
}

func newStatusError(url string, status int, err error) *Error {
	return &Error{Kind: KindStatus, URL: url, StatusCode: status, Err: err}
}

// KindOf reports the failure kind of err, or "" when err is not a fetch error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Describe returns a one-line, user-facing message for err.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	switch KindOf(err) {
	case KindTransport:
		return fmt.Sprintf("Request failed: %v", err)
	case KindParse:
		return fmt.Sprintf("Response was not valid JSON: %v", err)
	case KindStatus:
		return fmt.Sprintf("Unexpected HTTP status: %v", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
