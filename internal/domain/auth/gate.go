// internal/domain/auth/gate.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-core/internal/infrastructure/storage"
)

// Gate decides whether protected views may be shown to an execution context.
// Authorization is the presence of a token in the origin's shared store.
type Gate struct {
	kv     storage.Store
	source Source
	logger *logrus.Logger
}

// NewGate creates a gate for the context behind kv
func NewGate(kv storage.Store, source Source, logger *logrus.Logger) *Gate {
	return &Gate{
		kv:     kv,
		source: source,
		logger: logger,
	}
}

// IsAuthorized reports whether a non-empty token is stored. Storage failures
// count as unauthorized.
func (g *Gate) IsAuthorized(ctx context.Context) bool {
	token, err := g.kv.Get(ctx, storage.KeyToken)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			g.logger.WithError(err).Warn("Failed to read token")
		}
		return false
	}
	return strings.TrimSpace(token) != ""
}

// Login exchanges credentials for a token and stores it for the whole origin
func (g *Gate) Login(ctx context.Context, username, password string) error {
	token, err := g.source.Login(ctx, username, password)
	if err != nil {
		g.logger.WithFields(logrus.Fields{
			"username": username,
			"error":    err.Error(),
		}).Warn("Login failed")
		return err
	}
	if token == "" {
		return ErrNoToken
	}

	if err := g.kv.Set(ctx, storage.KeyToken, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	g.logger.WithFields(logrus.Fields{
		"username":   username,
		"context_id": g.kv.ContextID(),
	}).Info("User logged in")
	return nil
}

// Logout deletes the token and the cart. Both deletions are announced to the
// other contexts of the origin.
func (g *Gate) Logout(ctx context.Context) error {
	if err := g.kv.Delete(ctx, storage.KeyToken); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	if err := g.kv.Delete(ctx, storage.KeyCart); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	g.logger.WithField("context_id", g.kv.ContextID()).Info("User logged out")
	return nil
}

// Watch calls fn with the re-evaluated authorization state whenever another
// context logs in or out.
func (g *Gate) Watch(ctx context.Context, fn func(authorized bool)) (storage.Subscription, error) {
	sub, err := g.kv.Subscribe(ctx, storage.KeyToken, func(storage.Change) {
		fn(g.IsAuthorized(ctx))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to watch token: %w", err)
	}
	return sub, nil
}
