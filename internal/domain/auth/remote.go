// internal/domain/auth/remote.go
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

// RemoteSource logs in against a fakestoreapi-compatible POST /auth/login
type RemoteSource struct {
	loginURL   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[string]
	logger     *logrus.Logger
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// NewRemoteSource creates a new remote auth source
func NewRemoteSource(baseURL string, timeout time.Duration, failures uint32, cooldown time.Duration, logger *logrus.Logger) *RemoteSource {
	if failures == 0 {
		failures = 5
	}

	return &RemoteSource{
		loginURL:   strings.TrimRight(baseURL, "/") + "/auth/login",
		httpClient: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:    "auth",
			Timeout: cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			// rejected credentials mean the source is up; a cancelled caller proves nothing
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrNoToken) ||
					errors.Is(err, context.Canceled)
			},
		}),
		logger: logger,
	}
}

// Login posts the credentials and returns the issued token
func (s *RemoteSource) Login(ctx context.Context, username, password string) (string, error) {
	token, err := s.breaker.Execute(func() (string, error) {
		return s.login(ctx, username, password)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		return "", err
	}
	return token, nil
}

func (s *RemoteSource) login(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.loginURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.WithError(err).Error("Auth source request failed")
		return "", fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return "", fmt.Errorf("%w: unexpected status %d", ErrSourceUnavailable, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &RejectedError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}

	var payload loginResponse
	if err := json.Unmarshal(data, &payload); err != nil || payload.Token == "" {
		return "", ErrNoToken
	}
	return payload.Token, nil
}
