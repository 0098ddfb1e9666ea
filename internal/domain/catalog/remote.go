// internal/domain/catalog/remote.go
package catalog

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

// RemoteSource reads the catalog from a fakestoreapi-compatible HTTP API
type RemoteSource struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *logrus.Logger
}

// RemoteOptions configures the HTTP client and circuit breaker of a RemoteSource
type RemoteOptions struct {
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

func NewRemoteSource(baseURL string, opts RemoteOptions, logger *logrus.Logger) *RemoteSource {
	failures := opts.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	settings := gobreaker.Settings{
		Name:    "catalog",
		Timeout: opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// an unknown product is an answer and a caller that gave up says nothing about the source
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrProductNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	}

	return &RemoteSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: opts.Timeout},
		breaker:    gobreaker.NewCircuitBreaker[[]byte](settings),
		logger:     logger,
	}
}

// List fetches every product
func (s *RemoteSource) List(ctx context.Context) ([]Product, error) {
	body, err := s.fetch(ctx, "/products")
	if err != nil {
		return nil, err
	}

	var products []Product
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("%w: malformed product list: %v", ErrSourceUnavailable, err)
	}
	return products, nil
}

// Get fetches a single product. The upstream answers unknown ids with an
// empty 200 body, which is reported as ErrProductNotFound.
func (s *RemoteSource) Get(ctx context.Context, id int64) (*Product, error) {
	body, err := s.fetch(ctx, fmt.Sprintf("/products/%d", id))
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrProductNotFound
	}

	var product Product
	if err := json.Unmarshal(trimmed, &product); err != nil {
		return nil, fmt.Errorf("%w: malformed product: %v", ErrSourceUnavailable, err)
	}
	return &product, nil
}

func (s *RemoteSource) fetch(ctx context.Context, path string) ([]byte, error) {
	body, err := s.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrProductNotFound
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: unexpected status %d", ErrSourceUnavailable, resp.StatusCode)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		return data, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		if !errors.Is(err, ErrProductNotFound) {
			s.logger.WithError(err).WithField("path", path).Error("Product source request failed")
		}
		return nil, err
	}
	return body, nil
}
