// Package sdkerr defines the failure kinds reported by the install pipeline.
//
// Every error that leaves the resolver, the download manager or the install
// engine carries a Kind so callers can tell a bad specifier from a missing
// artifact, an existing destination or a network failure without matching on
// message text.
package sdkerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// KindUnknown is reported for errors that did not come from the pipeline.
	KindUnknown Kind = iota
	// KindBadInput covers missing specifiers, wrong file types and unknown branches.
	KindBadInput
	// KindNotFound means no release, CI build or installed artifact matched.
	KindNotFound
	// KindConflict means the destination exists and overwrite was not requested.
	KindConflict
	// KindTransport covers HTTP failures, malformed responses and broken archives.
	KindTransport
	// KindInvalidPackage means the archive has no recognizable artifact root.
	KindInvalidPackage
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBadInput:
		return "bad input"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindTransport:
		return "transport"
	case KindInvalidPackage:
		return "invalid package"
	default:
		return "unknown"
	}
}

// Error is a classified pipeline failure. Details carries context a caller
// can show the user, such as the specifier or the branches searched.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// With returns e with key set in Details.
func (e *Error) With(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func newError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// BadInput reports an invalid request.
func BadInput(format string, args ...any) *Error {
	return newError(KindBadInput, nil, format, args...)
}

// NotFound reports that nothing matched.
func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, nil, format, args...)
}

// Conflict reports an existing destination.
func Conflict(format string, args ...any) *Error {
	return newError(KindConflict, nil, format, args...)
}

// Transport wraps a network or archive failure.
func Transport(err error, format string, args ...any) *Error {
	return newError(KindTransport, err, format, args...)
}

// InvalidPackage reports an archive without an artifact root.
func InvalidPackage(format string, args ...any) *Error {
	return newError(KindInvalidPackage, nil, format, args...)
}

// ErrMalformedResponse is wrapped when a feed body is not valid JSON.
var ErrMalformedResponse = errors.New("malformed response")

// HTTPError is a non-success HTTP status.
type HTTPError struct {
	StatusCode int
	Reason     string
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d %s for URL %s", e.StatusCode, e.Reason, e.URL)
}

// NewHTTPError builds a Transport error for a failed response, using the
// standard reason phrase for the status code.
func NewHTTPError(statusCode int, url string) *Error {
	httpErr := &HTTPError{
		StatusCode: statusCode,
		Reason:     http.StatusText(statusCode),
		URL:        url,
	}
	return Transport(httpErr, "request failed").With("status", statusCode)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// DetailsOf returns the details of the first *Error in err's chain.
func DetailsOf(err error) map[string]any {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}
