// internal/domain/cartsync/broadcaster.go
package cartsync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-core/internal/domain/cart"
	"github.com/your-org/storefront-core/internal/infrastructure/storage"
)

// ErrAlreadyStarted is returned by Start on a running broadcaster
var ErrAlreadyStarted = errors.New("broadcaster already started")

// Aggregate is the cart-derived view shown outside the cart page (the header badge)
type Aggregate struct {
	ItemCount int             `json:"item_count"`
	LineCount int             `json:"line_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Of computes the aggregate of a cart state
func Of(state cart.CartState) Aggregate {
	return Aggregate{
		ItemCount: cart.ItemCount(state),
		LineCount: len(state),
		Subtotal:  cart.Subtotal(state),
	}
}

// Broadcaster keeps one execution context's aggregate current with cart writes
// made by other contexts and fans it out to listeners.
type Broadcaster struct {
	kv     storage.Store
	carts  *cart.Store
	logger *logrus.Logger

	mu        sync.RWMutex
	ctx       context.Context
	sub       storage.Subscription
	current   Aggregate
	listeners map[int]chan Aggregate
	nextID    int
}

// New creates a broadcaster for the context behind kv
func New(kv storage.Store, carts *cart.Store, logger *logrus.Logger) *Broadcaster {
	return &Broadcaster{
		kv:        kv,
		carts:     carts,
		logger:    logger,
		listeners: make(map[int]chan Aggregate),
	}
}

// Start computes the initial aggregate and subscribes to external cart changes
func (b *Broadcaster) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.sub != nil {
		b.mu.Unlock()
		return ErrAlreadyStarted
	}
	b.ctx = ctx
	b.current = Of(b.carts.Load(ctx))
	b.mu.Unlock()

	sub, err := b.kv.Subscribe(ctx, storage.KeyCart, b.onChange)
	if err != nil {
		return fmt.Errorf("failed to subscribe to cart changes: %w", err)
	}

	b.mu.Lock()
	b.sub = sub
	b.mu.Unlock()

	b.logger.WithField("context_id", b.kv.ContextID()).Debug("Cart sync started")
	return nil
}

// Stop ends the subscription and closes every listener channel
func (b *Broadcaster) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.listeners {
		close(ch)
		delete(b.listeners, id)
	}

	if b.sub == nil {
		return nil
	}
	err := b.sub.Close()
	b.sub = nil
	return err
}

// Subscribe registers a listener. The channel holds only the latest aggregate,
// so a slow listener skips intermediate values. Call the returned func to unsubscribe.
func (b *Broadcaster) Subscribe() (<-chan Aggregate, func()) {
	ch := make(chan Aggregate, 1)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.listeners[id]; ok {
			close(ch)
			delete(b.listeners, id)
		}
	}
	return ch, cancel
}

// Current returns the last computed aggregate
func (b *Broadcaster) Current() Aggregate {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// Publish replaces the aggregate after a write made by this context
func (b *Broadcaster) Publish(state cart.CartState) {
	b.publish(Of(state))
}

func (b *Broadcaster) onChange(change storage.Change) {
	b.mu.RLock()
	ctx := b.ctx
	b.mu.RUnlock()

	state := b.carts.Load(ctx)
	b.logger.WithFields(logrus.Fields{
		"context_id": b.kv.ContextID(),
		"source":     change.ContextID,
		"op":         change.Op,
		"lines":      len(state),
	}).Debug("Cart changed in another context")

	b.publish(Of(state))
}

func (b *Broadcaster) publish(aggregate Aggregate) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = aggregate
	for _, ch := range b.listeners {
		select {
		case <-ch:
		default:
		}
		ch <- aggregate
	}
}
