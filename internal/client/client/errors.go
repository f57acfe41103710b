package client

import (
	"errors"
	"fmt"
)

// NetworkErrorKind categorizes gateway failures. The session repository uses
// the category to decide whether the offline fallback applies.
type NetworkErrorKind string

const (
	NetworkErrorTimeout     NetworkErrorKind = "timeout"
	NetworkErrorBadResponse NetworkErrorKind = "bad_response"
	NetworkErrorCancelled   NetworkErrorKind = "cancelled"
	NetworkErrorConnection  NetworkErrorKind = "connection"
	NetworkErrorCertificate NetworkErrorKind = "certificate"
	NetworkErrorUnknown     NetworkErrorKind = "unknown"
)

// NetworkError is raised for transport-level gateway failures and 5xx
// responses. StatusCode is set only for NetworkErrorBadResponse.
type NetworkError struct {
	Kind       NetworkErrorKind
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Kind == NetworkErrorBadResponse {
		return fmt.Sprintf("network error (%s, status %d)", e.Kind, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("network error (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("network error (%s)", e.Kind)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err carries a *NetworkError anywhere in its
// chain.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// SessionError is a domain-level rejection surfaced to the caller with a
// human-readable message: bad credentials, a server-rejected refresh, an
// invalid reset token. It never triggers the offline fallback.
type SessionError struct {
	Message string
	Err     error
}

func (e *SessionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "session error"
}

func (e *SessionError) Unwrap() error { return e.Err }
