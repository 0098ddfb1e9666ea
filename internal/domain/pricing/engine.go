// internal/domain/pricing/engine.go
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-core/internal/config"
	"github.com/your-org/storefront-core/internal/domain/cart"
)

// Snapshot is the derived pricing of a cart at full precision
type Snapshot struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Rounded returns the snapshot rounded to cents, half away from zero
func (s Snapshot) Rounded() Snapshot {
	return Snapshot{
		Subtotal: s.Subtotal.Round(2),
		Shipping: s.Shipping.Round(2),
		Discount: s.Discount.Round(2),
		Total:    s.Total.Round(2),
	}
}

// Engine computes pricing snapshots
type Engine struct {
	shippingFee           decimal.Decimal
	freeShippingThreshold decimal.Decimal
}

// NewEngine creates an engine with a flat shipping fee waived above the threshold
func NewEngine(shippingFee, freeShippingThreshold decimal.Decimal) *Engine {
	return &Engine{
		shippingFee:           shippingFee,
		freeShippingThreshold: freeShippingThreshold,
	}
}

// NewEngineFromConfig parses the pricing section of the configuration
func NewEngineFromConfig(cfg *config.Config) (*Engine, error) {
	fee, err := decimal.NewFromString(cfg.Pricing.ShippingFee)
	if err != nil {
		return nil, fmt.Errorf("invalid shipping fee: %w", err)
	}
	threshold, err := decimal.NewFromString(cfg.Pricing.FreeShippingThreshold)
	if err != nil {
		return nil, fmt.Errorf("invalid free shipping threshold: %w", err)
	}
	return NewEngine(fee, threshold), nil
}

// Price derives the snapshot of state with an already resolved discount
func (e *Engine) Price(state cart.CartState, discount decimal.Decimal) Snapshot {
	subtotal := cart.Subtotal(state)

	shipping := e.shippingFee
	if len(state) == 0 || subtotal.GreaterThan(e.freeShippingThreshold) {
		shipping = decimal.Zero
	}

	total := subtotal.Add(shipping).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Snapshot{
		Subtotal: subtotal,
		Shipping: shipping,
		Discount: discount,
		Total:    total,
	}
}

// PriceWithCoupon resolves code against the current subtotal and prices the cart
func (e *Engine) PriceWithCoupon(state cart.CartState, resolver *Resolver, code string) (Snapshot, Resolution) {
	resolution := resolver.Resolve(code, cart.Subtotal(state))
	return e.Price(state, resolution.Discount), resolution
}
