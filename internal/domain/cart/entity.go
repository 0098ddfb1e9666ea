// internal/domain/cart/entity.go
package cart

import (
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-core/internal/domain/catalog"
)

// CartLine is one product in the cart. Product fields are copied at add time
// so later catalog changes never alter what is already in the cart.
type CartLine struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Category string  `json:"category"`
	Quantity int     `json:"quantity"`
}

// LineTotal returns price x quantity at full precision
func (l CartLine) LineTotal() decimal.Decimal {
	return decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartState is the ordered list of cart lines, at most one per product id
type CartState []CartLine

// Find returns the index of the line for productID, or -1
func (s CartState) Find(productID int64) int {
	for i, line := range s {
		if line.ID == productID {
			return i
		}
	}
	return -1
}

// ItemCount returns the sum of all line quantities
func ItemCount(state CartState) int {
	count := 0
	for _, line := range state {
		count += line.Quantity
	}
	return count
}

// Subtotal returns the sum of all line totals at full precision
func Subtotal(state CartState) decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range state {
		subtotal = subtotal.Add(line.LineTotal())
	}
	return subtotal
}

func lineFromProduct(product catalog.Product, quantity int) CartLine {
	return CartLine{
		ID:       product.ID,
		Title:    product.Title,
		Price:    product.Price,
		Image:    product.Image,
		Category: product.Category,
		Quantity: quantity,
	}
}
