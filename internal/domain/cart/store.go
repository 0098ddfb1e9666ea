// internal/domain/cart/store.go
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-core/internal/domain/catalog"
	"github.com/your-org/storefront-core/internal/infrastructure/storage"
)

var (
	// ErrInvalidQuantity is returned when adding fewer than one unit
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrQuantityOverflow is returned when an increment would exceed the largest line quantity
	ErrQuantityOverflow = fmt.Errorf("%w: line quantity would overflow", ErrInvalidQuantity)
)

// Store owns the cart of one execution context. Every mutation is a
// read-modify-write of the shared cart entry without locking, so concurrent
// writers from other contexts resolve as last write wins.
type Store struct {
	kv     storage.Store
	logger *logrus.Logger
}

// NewStore creates a cart store over a context's key-value view
func NewStore(kv storage.Store, logger *logrus.Logger) *Store {
	return &Store{
		kv:     kv,
		logger: logger,
	}
}

// Load reads the persisted cart. A missing, unreadable or malformed entry is an empty cart.
func (s *Store) Load(ctx context.Context) CartState {
	raw, err := s.kv.Get(ctx, storage.KeyCart)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.WithError(err).Warn("Failed to read cart, using empty cart")
		}
		return CartState{}
	}

	var lines []CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		s.logger.WithFields(logrus.Fields{
			"context_id": s.kv.ContextID(),
			"error":      err.Error(),
		}).Warn("Malformed cart entry, using empty cart")
		return CartState{}
	}

	return normalize(lines)
}

// AddOrIncrement adds quantity units of product. An existing line keeps its snapshot
// and only grows in quantity.
func (s *Store) AddOrIncrement(ctx context.Context, product catalog.Product, quantity int) (CartState, error) {
	if quantity < 1 {
		return s.Load(ctx), ErrInvalidQuantity
	}

	state := s.Load(ctx)
	if i := state.Find(product.ID); i >= 0 {
		if quantity > math.MaxInt-state[i].Quantity {
			return state, ErrQuantityOverflow
		}
		state[i].Quantity += quantity
	} else {
		state = append(state, lineFromProduct(product, quantity))
	}

	return s.save(ctx, state)
}

// SetQuantity replaces the quantity of a line in place; below 1 removes it.
// An unknown product id leaves the cart untouched.
func (s *Store) SetQuantity(ctx context.Context, productID int64, quantity int) (CartState, error) {
	if quantity < 1 {
		return s.Remove(ctx, productID)
	}

	state := s.Load(ctx)
	i := state.Find(productID)
	if i < 0 {
		return state, nil
	}

	state[i].Quantity = quantity
	return s.save(ctx, state)
}

// Remove deletes a line, keeping the order of the rest
func (s *Store) Remove(ctx context.Context, productID int64) (CartState, error) {
	state := s.Load(ctx)
	i := state.Find(productID)
	if i < 0 {
		return state, nil
	}

	next := make(CartState, 0, len(state)-1)
	next = append(next, state[:i]...)
	next = append(next, state[i+1:]...)
	return s.save(ctx, next)
}

// Clear drops the persisted cart entirely
func (s *Store) Clear(ctx context.Context) (CartState, error) {
	if err := s.kv.Delete(ctx, storage.KeyCart); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}
	return CartState{}, nil
}

func (s *Store) save(ctx context.Context, state CartState) (CartState, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cart: %w", err)
	}

	if err := s.kv.Set(ctx, storage.KeyCart, string(data)); err != nil {
		return nil, fmt.Errorf("failed to persist cart: %w", err)
	}

	return state, nil
}

// normalize restores the one-line-per-product and quantity >= 1 rules on data
// written by someone else.
func normalize(lines []CartLine) CartState {
	state := make(CartState, 0, len(lines))
	for _, line := range lines {
		if line.Quantity < 1 {
			continue
		}
		if i := state.Find(line.ID); i >= 0 {
			if line.Quantity > math.MaxInt-state[i].Quantity {
				state[i].Quantity = math.MaxInt
			} else {
				state[i].Quantity += line.Quantity
			}
			continue
		}
		state = append(state, line)
	}
	return state
}
