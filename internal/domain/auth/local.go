// internal/domain/auth/local.go
package auth

import (
	"context"
	"net/http"

	pkgauth "github.com/your-org/storefront-core/internal/pkg/auth"
)

// LocalSource checks a single configured account and issues signed tokens,
// for running without the remote auth API.
type LocalSource struct {
	username     string
	passwordHash string
	passwords    *pkgauth.PasswordManager
	tokens       *pkgauth.JWTManager
}

// NewLocalSource creates a new local auth source
func NewLocalSource(username, passwordHash string, passwords *pkgauth.PasswordManager, tokens *pkgauth.JWTManager) *LocalSource {
	return &LocalSource{
		username:     username,
		passwordHash: passwordHash,
		passwords:    passwords,
		tokens:       tokens,
	}
}

// Login verifies the credentials and returns a fresh access token
func (s *LocalSource) Login(_ context.Context, username, password string) (string, error) {
	if username != s.username || s.passwords.VerifyPassword(password, s.passwordHash) != nil {
		return "", &RejectedError{Status: http.StatusUnauthorized, Message: "username or password is incorrect"}
	}

	token, err := s.tokens.GenerateAccessToken(username)
	if err != nil || token == "" {
		return "", ErrNoToken
	}
	return token, nil
}
