// internal/domain/catalog/query.go
package catalog

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// SortOption selects the order of a catalog listing
type SortOption string

const (
	SortDefault   SortOption = "default"
	SortPriceLow  SortOption = "price-low"
	SortPriceHigh SortOption = "price-high"
	SortRating    SortOption = "rating"
)

// CategoryAll disables the category filter
const CategoryAll = "all"

// Query is the category filter, search term and sort option of a listing
type Query struct {
	Category   string     `form:"category" json:"category"`
	SearchTerm string     `form:"search" json:"search"`
	Sort       SortOption `form:"sort" json:"sort"`
}

// Apply filters and orders products for display. The input slice is never modified
// and the same (products, query) pair always yields the same ordered result.
func Apply(products []Product, q Query) []Product {
	result := make([]Product, 0, len(products))

	folder := cases.Fold()
	term := folder.String(q.SearchTerm)

	for _, p := range products {
		if q.Category != "" && q.Category != CategoryAll && p.Category != q.Category {
			continue
		}
		if term != "" &&
			!strings.Contains(folder.String(p.Title), term) &&
			!strings.Contains(folder.String(p.Description), term) {
			continue
		}
		result = append(result, p)
	}

	switch q.Sort {
	case SortPriceLow:
		slices.SortStableFunc(result, func(a, b Product) int {
			return cmp.Compare(a.Price, b.Price)
		})
	case SortPriceHigh:
		slices.SortStableFunc(result, func(a, b Product) int {
			return cmp.Compare(b.Price, a.Price)
		})
	case SortRating:
		slices.SortStableFunc(result, func(a, b Product) int {
			return cmp.Compare(b.Rating.Rate, a.Rating.Rate)
		})
	}

	return result
}

// Categories lists the distinct categories in first-seen order
func Categories(products []Product) []string {
	seen := make(map[string]struct{}, len(products))
	categories := make([]string, 0)
	for _, p := range products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	return categories
}

// ParseSortOption maps user input to a SortOption; anything unknown is SortDefault
func ParseSortOption(raw string) SortOption {
	switch opt := SortOption(strings.ToLower(strings.TrimSpace(raw))); opt {
	case SortPriceLow, SortPriceHigh, SortRating:
		return opt
	default:
		return SortDefault
	}
}
