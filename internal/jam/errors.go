package jam

import (
	"errors"
	"fmt"
)

// Error kinds shared by the store, the outbound clients and the pipelines.
var (
	// ErrBadInput is returned when a request fails validation before any I/O.
	ErrBadInput = errors.New("bad input")

	// ErrInvalidReference is returned when a playlist reference cannot be parsed.
	ErrInvalidReference = errors.New("invalid playlist reference")

	// ErrNotFound is returned when a song or playlist does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotConfigured is returned when credentials for a remote source are missing.
	ErrNotConfigured = errors.New("not configured")

	// ErrUpstream matches every *UpstreamError.
	ErrUpstream = errors.New("upstream error")
)

// UpstreamError reports a remote source that was reachable but answered with an error status.
type UpstreamError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s API error %d: %s", e.Service, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s API error: %d", e.Service, e.StatusCode)
}

// Is lets errors.Is(err, ErrUpstream) match any UpstreamError.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// BadInputf returns an error matching ErrBadInput that reads as the formatted message.
func BadInputf(format string, args ...any) error {
	return WithMessage(ErrBadInput, fmt.Sprintf(format, args...))
}

// WithMessage returns an error that matches kind under errors.Is but reads as msg.
func WithMessage(kind error, msg string) error {
	return &messageError{kind: kind, msg: msg}
}

type messageError struct {
	kind error
	msg  string
}

func (e *messageError) Error() string { return e.msg }
func (e *messageError) Unwrap() error { return e.kind }
