// internal/domain/catalog/entity.go
package catalog

import (
	"context"
	"errors"
)

var (
	// ErrProductNotFound is returned when the source has no product with the requested id
	ErrProductNotFound = errors.New("product not found")
	// ErrSourceUnavailable wraps network and API failures of a product source
	ErrSourceUnavailable = errors.New("product source unavailable")
)

// Product is a catalog entry as returned by the product source
type Product struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Rating      Rating  `json:"rating"`
}

// Rating holds the average rate (0-5) and the number of votes
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// ProductSource is the read-only catalog collaborator
type ProductSource interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (*Product, error)
}
