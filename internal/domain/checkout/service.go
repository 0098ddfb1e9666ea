// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-core/internal/domain/cart"
	"github.com/your-org/storefront-core/internal/domain/pricing"
)

// ErrEmptyCart is returned when checking out a cart with no lines
var ErrEmptyCart = errors.New("cart is empty")

// Receipt is returned by a completed checkout
type Receipt struct {
	OrderID     string           `json:"order_id"`
	Lines       cart.CartState   `json:"lines"`
	Pricing     pricing.Snapshot `json:"pricing"`
	Coupon      string           `json:"coupon,omitempty"`
	CompletedAt time.Time        `json:"completed_at"`
}

// Summary is the pricing of a cart with the session's applied coupon
type Summary struct {
	Pricing pricing.Snapshot   `json:"pricing"`
	Coupon  pricing.Resolution `json:"coupon"`
}

// DefaultCouponTTL matches the lifetime of the session cookie
const DefaultCouponTTL = 24 * time.Hour

// Service prices carts, tracks the coupon applied in each session and runs the
// simulated payment step. Applied coupons live in memory only and are dropped
// once a session has not used them for the coupon TTL.
type Service struct {
	engine    *pricing.Engine
	resolver  *pricing.Resolver
	delay     time.Duration
	sleep     func(time.Duration)
	now       func() time.Time
	couponTTL time.Duration
	logger    *logrus.Logger

	mu      sync.Mutex
	applied map[string]appliedCoupon
}

type appliedCoupon struct {
	code     string
	lastUsed time.Time
}

// Option customizes a Service
type Option func(*Service)

// WithSleeper replaces time.Sleep for the payment delay
func WithSleeper(sleep func(time.Duration)) Option {
	return func(s *Service) {
		s.sleep = sleep
	}
}

// WithClock replaces time.Now for coupon expiry
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithCouponTTL sets how long an unused applied coupon is kept
func WithCouponTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.couponTTL = ttl
		}
	}
}

// NewService creates a new checkout service
func NewService(engine *pricing.Engine, resolver *pricing.Resolver, delay time.Duration, logger *logrus.Logger, opts ...Option) *Service {
	s := &Service{
		engine:    engine,
		resolver:  resolver,
		delay:     delay,
		sleep:     time.Sleep,
		now:       time.Now,
		couponTTL: DefaultCouponTTL,
		logger:    logger,
		applied:   make(map[string]appliedCoupon),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApplyCoupon resolves code against the current cart. A valid code replaces the
// session's applied coupon; an invalid one leaves the previous coupon in effect.
func (s *Service) ApplyCoupon(session string, state cart.CartState, code string) (pricing.Resolution, Summary) {
	resolution := s.resolver.Resolve(code, cart.Subtotal(state))

	if resolution.Valid {
		s.mu.Lock()
		now := s.now()
		s.pruneLocked(now)
		s.applied[session] = appliedCoupon{code: resolution.Code, lastUsed: now}
		s.mu.Unlock()
	} else {
		s.logger.WithFields(logrus.Fields{
			"session": session,
			"code":    code,
		}).Info("Rejected coupon code")
	}

	return resolution, s.Summary(session, state)
}

// AppliedCoupon returns the code applied in a session, if any, and marks it used
func (s *Service) AppliedCoupon(session string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.applied[session]
	if !ok {
		return ""
	}
	now := s.now()
	if now.Sub(entry.lastUsed) > s.couponTTL {
		delete(s.applied, session)
		return ""
	}
	entry.lastUsed = now
	s.applied[session] = entry
	return entry.code
}

// AppliedSessions reports how many sessions currently hold a coupon
func (s *Service) AppliedSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.applied)
}

func (s *Service) pruneLocked(now time.Time) {
	for session, entry := range s.applied {
		if now.Sub(entry.lastUsed) > s.couponTTL {
			delete(s.applied, session)
		}
	}
}

// Forget drops the session's applied coupon
func (s *Service) Forget(session string) {
	s.mu.Lock()
	delete(s.applied, session)
	s.mu.Unlock()
}

// Summary prices state, re-resolving the applied coupon against the current subtotal
func (s *Service) Summary(session string, state cart.CartState) Summary {
	snapshot, resolution := s.engine.PriceWithCoupon(state, s.resolver, s.AppliedCoupon(session))
	return Summary{Pricing: snapshot, Coupon: resolution}
}

// Checkout waits out the simulated payment, then clears the cart and the applied
// coupon. Once started it cannot be cancelled.
func (s *Service) Checkout(ctx context.Context, session string, carts *cart.Store) (*Receipt, error) {
	state := carts.Load(ctx)
	if len(state) == 0 {
		return nil, ErrEmptyCart
	}

	summary := s.Summary(session, state)
	s.sleep(s.delay)

	// the payment step has completed, the cart must be cleared even if the caller went away
	if _, err := carts.Clear(context.WithoutCancel(ctx)); err != nil {
		return nil, fmt.Errorf("failed to complete checkout: %w", err)
	}
	s.Forget(session)

	receipt := &Receipt{
		OrderID:     uuid.New().String(),
		Lines:       state,
		Pricing:     summary.Pricing.Rounded(),
		CompletedAt: time.Now().UTC(),
	}
	if summary.Coupon.Valid {
		receipt.Coupon = summary.Coupon.Code
	}

	s.logger.WithFields(logrus.Fields{
		"session":  session,
		"order_id": receipt.OrderID,
		"lines":    len(state),
		"total":    receipt.Pricing.Total.StringFixed(2),
	}).Info("Checkout completed")

	return receipt, nil
}
