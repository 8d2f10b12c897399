package session

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrAuthenticationRejected: the backend refused the credentials or the token.
	ErrAuthenticationRejected = errors.New("authentication rejected")
	// ErrIdentityResolutionFailed: a stored credential could not be turned into an Identity.
	ErrIdentityResolutionFailed = errors.New("identity resolution failed")
	// ErrTransportFailure: the backend could not be reached or answered garbage.
	ErrTransportFailure = errors.New("transport failure")
	ErrNotAuthenticated = errors.New("not authenticated")

	errLoginSuperseded = errors.New("session ended while logging in")
)

// DefaultLoginError is reported when a failed login carries no usable message.
const DefaultLoginError = "Login failed"

// Rejection is what a Backend returns when the server answered with an error status.
type Rejection struct {
	StatusCode int
	Message    string // from the error payload, may be empty
}

func (r *Rejection) Error() string {
	if r.Message == "" {
		return fmt.Sprintf("%s: HTTP %d", ErrAuthenticationRejected, r.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", ErrAuthenticationRejected, r.StatusCode, r.Message)
}

func (r *Rejection) Unwrap() error { return ErrAuthenticationRejected }

// loginErrorMessage extracts the user facing reason of a failed login.
// Transport failures are never told apart from a plain failure.
func loginErrorMessage(err error) string {
	var rej *Rejection
	if errors.As(err, &rej) && rej.Message != "" {
		return rej.Message
	}
	return DefaultLoginError
}
