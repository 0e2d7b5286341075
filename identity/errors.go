package identity

import (
	"errors"
	"net"
	"strings"
)

var (
	// ErrNotFound signals that no identity exists for the given key.
	ErrNotFound = errors.New("identity: account not found")
	// ErrInvalidCredentials signals wrong email or password.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	// ErrEmailInUse signals that the email is already registered.
	ErrEmailInUse = errors.New("identity: email already in use")
	// ErrWeakPassword signals the password doesn't meet the minimum length.
	ErrWeakPassword = errors.New("identity: password must be at least 6 characters")
	// ErrInvalidEmail signals a malformed email address.
	ErrInvalidEmail = errors.New("identity: invalid email format")
	// ErrUnavailable signals a connectivity failure talking to a backing
	// store, as opposed to a credential problem. Callers surface distinct
	// guidance for it.
	ErrUnavailable = errors.New("identity: backend unavailable")
	// ErrResetTokenInvalid signals an unknown, expired or already-consumed
	// password reset token.
	ErrResetTokenInvalid = errors.New("identity: reset token invalid or expired")
	// ErrInvalidGoogleToken signals a Google ID token that failed verification.
	ErrInvalidGoogleToken = errors.New("identity: google token verification failed")
)

// classify converts transport-level failures into ErrUnavailable so that
// call sites branch on a sentinel instead of inspecting error text. Other
// errors pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if IsUnavailable(err) {
		return errors.Join(ErrUnavailable, err)
	}
	return err
}

// IsUnavailable reports whether err looks like a connectivity failure.
// The string checks cover driver errors that do not implement net.Error,
// mirroring the offline/network/unavailable codes of the hosted backends
// this service replaces.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"offline", "network", "unavailable", "connection refused", "connection reset", "no such host"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
