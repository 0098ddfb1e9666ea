// internal/interfaces/http/handlers/response.go
package handlers

import (
	"time"

	"github.com/your-org/storefront-core/internal/domain/cart"
	"github.com/your-org/storefront-core/internal/domain/cartsync"
	"github.com/your-org/storefront-core/internal/domain/checkout"
	"github.com/your-org/storefront-core/internal/domain/pricing"
)

// PricingResponse is a pricing snapshot rounded for display
type PricingResponse struct {
	Subtotal string `json:"subtotal"`
	Shipping string `json:"shipping"`
	Discount string `json:"discount"`
	Total    string `json:"total"`
}

func newPricingResponse(s pricing.Snapshot) PricingResponse {
	rounded := s.Rounded()
	return PricingResponse{
		Subtotal: rounded.Subtotal.StringFixed(2),
		Shipping: rounded.Shipping.StringFixed(2),
		Discount: rounded.Discount.StringFixed(2),
		Total:    rounded.Total.StringFixed(2),
	}
}

// CouponResponse describes the coupon in effect or the one just tried
type CouponResponse struct {
	Code     string `json:"code,omitempty"`
	Valid    bool   `json:"valid"`
	Rate     string `json:"rate,omitempty"`
	Discount string `json:"discount"`
}

func newCouponResponse(r pricing.Resolution) CouponResponse {
	resp := CouponResponse{
		Code:     r.Code,
		Valid:    r.Valid,
		Discount: r.Discount.Round(2).StringFixed(2),
	}
	if r.Valid {
		resp.Rate = r.Rate.String()
	}
	return resp
}

// CartResponse is the cart with its badge count
type CartResponse struct {
	Items     cart.CartState `json:"items"`
	ItemCount int            `json:"item_count"`
}

func newCartResponse(state cart.CartState) CartResponse {
	if state == nil {
		state = cart.CartState{}
	}
	return CartResponse{
		Items:     state,
		ItemCount: cart.ItemCount(state),
	}
}

// SummaryResponse is the pricing of the cart with the applied coupon
type SummaryResponse struct {
	Pricing PricingResponse `json:"pricing"`
	Coupon  *CouponResponse `json:"coupon,omitempty"`
}

func newSummaryResponse(s checkout.Summary) SummaryResponse {
	resp := SummaryResponse{Pricing: newPricingResponse(s.Pricing)}
	if s.Coupon.Valid {
		coupon := newCouponResponse(s.Coupon)
		resp.Coupon = &coupon
	}
	return resp
}

// ReceiptResponse is a completed checkout
type ReceiptResponse struct {
	OrderID     string          `json:"order_id"`
	Items       cart.CartState  `json:"items"`
	Pricing     PricingResponse `json:"pricing"`
	Coupon      string          `json:"coupon,omitempty"`
	CompletedAt time.Time       `json:"completed_at"`
}

func newReceiptResponse(r *checkout.Receipt) ReceiptResponse {
	return ReceiptResponse{
		OrderID:     r.OrderID,
		Items:       r.Lines,
		Pricing:     newPricingResponse(r.Pricing),
		Coupon:      r.Coupon,
		CompletedAt: r.CompletedAt,
	}
}

// AggregateResponse is the cart badge pushed to event stream clients
type AggregateResponse struct {
	ItemCount int    `json:"item_count"`
	LineCount int    `json:"line_count"`
	Subtotal  string `json:"subtotal"`
}

func newAggregateResponse(a cartsync.Aggregate) AggregateResponse {
	return AggregateResponse{
		ItemCount: a.ItemCount,
		LineCount: a.LineCount,
		Subtotal:  a.Subtotal.Round(2).StringFixed(2),
	}
}
