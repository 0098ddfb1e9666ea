// internal/domain/pricing/coupon.go
package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidRate is returned when a coupon rate is outside [0, 1]
var ErrInvalidRate = errors.New("coupon rate must be between 0 and 1")

// Resolution is the outcome of resolving a coupon code against a subtotal
type Resolution struct {
	Code     string          `json:"code"`
	Rate     decimal.Decimal `json:"rate"`
	Discount decimal.Decimal `json:"discount"`
	Valid    bool            `json:"valid"`
}

// Resolver maps coupon codes to discount rates. Codes match case-insensitively.
type Resolver struct {
	rates map[string]decimal.Decimal
}

// NewResolver creates a resolver over a code -> rate table
func NewResolver(table map[string]decimal.Decimal) (*Resolver, error) {
	rates := make(map[string]decimal.Decimal, len(table))
	for code, rate := range table {
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("%w: %s=%s", ErrInvalidRate, code, rate.String())
		}
		rates[normalizeCode(code)] = rate
	}
	return &Resolver{rates: rates}, nil
}

// Resolve computes the discount for code against the current subtotal. Unknown
// and empty codes resolve to an invalid zero discount.
func (r *Resolver) Resolve(code string, subtotal decimal.Decimal) Resolution {
	normalized := normalizeCode(code)
	rate, ok := r.rates[normalized]
	if normalized == "" || !ok {
		return Resolution{Code: normalized, Discount: decimal.Zero, Valid: false}
	}

	return Resolution{
		Code:     normalized,
		Rate:     rate,
		Discount: subtotal.Mul(rate),
		Valid:    true,
	}
}

// ParseCoupons builds a coupon table from "CODE:RATE,CODE:RATE"
func ParseCoupons(raw string) (map[string]decimal.Decimal, error) {
	table := make(map[string]decimal.Decimal)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		code, rateText, found := strings.Cut(entry, ":")
		if !found || strings.TrimSpace(code) == "" {
			return nil, fmt.Errorf("invalid coupon entry %q", entry)
		}

		rate, err := decimal.NewFromString(strings.TrimSpace(rateText))
		if err != nil {
			return nil, fmt.Errorf("invalid coupon rate in %q: %w", entry, err)
		}
		table[normalizeCode(code)] = rate
	}
	return table, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
