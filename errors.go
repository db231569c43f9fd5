package authgate

import (
	"errors"
	"fmt"
)

var (
	// ErrClientNotReady indicates Build was not called or failed.
	ErrClientNotReady = errors.New("authgate: client not initialized")

	// ErrUnauthorized indicates the server rejected the credential and the
	// pipeline has already spent its single replay. The session has been
	// terminated by the time callers see this error.
	ErrUnauthorized = errors.New("authgate: unauthorized")

	// ErrForbidden indicates the authenticated identity lacks permission for
	// the requested operation. The session stays intact.
	ErrForbidden = errors.New("authgate: forbidden")

	// ErrNoRefreshToken indicates a refresh was needed but no refresh token
	// is held, so the session cannot be extended.
	ErrNoRefreshToken = errors.New("authgate: no refresh token")

	// ErrRefreshFailed indicates the refresh endpoint rejected the refresh
	// token or could not be reached. Refresh failure is terminal: the session
	// is cleared before this error is returned.
	ErrRefreshFailed = errors.New("authgate: token refresh failed")
)

// BusinessError is a server-reported application failure: the HTTP exchange
// succeeded but the response envelope carries a non-zero code. It never
// affects session state.
type BusinessError struct {
	Code    int
	Message string
}

func (e *BusinessError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("authgate: business error code %d", e.Code)
	}
	return fmt.Sprintf("authgate: %s (code %d)", e.Message, e.Code)
}

// TransportError is a network failure or an HTTP status outside the
// envelope protocol (5xx, unexpected 4xx, undecodable body).
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode == 0:
		return fmt.Sprintf("authgate: transport error: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("authgate: http %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("authgate: http %d", e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
