// internal/domain/auth/source.go
package auth

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned when the auth source rejects the credentials
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSourceUnavailable wraps network failures talking to the auth source
	ErrSourceUnavailable = errors.New("auth source unavailable")
	// ErrNoToken is returned when the auth source accepted the request but sent no token
	ErrNoToken = errors.New("no token received")
)

// Source exchanges credentials for an opaque token
type Source interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// RejectedError carries the auth source's own rejection message
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("login rejected (%d): %s", e.Status, e.Message)
}

func (e *RejectedError) Unwrap() error {
	return ErrInvalidCredentials
}

// UserMessage turns a login error into the text shown on the login form
func UserMessage(err error) string {
	var rejected *RejectedError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &rejected) && rejected.Message != "":
		return rejected.Message
	case errors.As(err, &rejected):
		return fmt.Sprintf("Error: %d", rejected.Status)
	case errors.Is(err, ErrSourceUnavailable):
		return "Server not responding"
	case errors.Is(err, ErrNoToken):
		return "No token received"
	default:
		return "Login failed"
	}
}
