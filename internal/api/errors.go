package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure cases.
var (
	// ErrSessionExpired is returned when authorization fails even after
	// one refresh attempt. It always follows the logout side effect.
	ErrSessionExpired = errors.New("session expired")

	// ErrNoSession is returned when an operation requires a session id
	// and none was supplied.
	ErrNoSession = errors.New("no session selected")

	// ErrEmptyMessage is returned when a send carries neither text nor
	// an attachment.
	ErrEmptyMessage = errors.New("nothing to send")
)

// RequestError is a non-success HTTP response that was not an
// authorization failure. Message is a best-effort extraction from the
// response body.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request failed (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("request failed (%d)", e.Status)
}

// NetworkError wraps transport failures where no response arrived.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsSessionExpired checks whether err is a terminal auth failure.
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

// IsNetwork checks whether err is a transport failure.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
