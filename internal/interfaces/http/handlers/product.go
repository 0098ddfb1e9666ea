// internal/interfaces/http/handlers/product.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-core/internal/domain/catalog"
)

// ProductHandler handles catalog endpoints
type ProductHandler struct {
	catalog *catalog.Service
	logger  *logrus.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(catalogService *catalog.Service, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalogService,
		logger:  logger,
	}
}

// GetProducts handles GET /products?category=&search=&sort=
func (h *ProductHandler) GetProducts(c *gin.Context) {
	var q catalog.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}
	q.Sort = catalog.ParseSortOption(string(q.Sort))

	products, err := h.catalog.Search(c.Request.Context(), q)
	if err != nil {
		respondCatalogError(c, err, "Failed to load products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Products retrieved successfully",
		"data":    products,
		"query":   q,
		"count":   len(products),
	})
}

// GetProduct handles GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product ID",
		})
		return
	}

	product, err := h.catalog.Product(c.Request.Context(), id)
	if err != nil {
		respondCatalogError(c, err, "Failed to load product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product retrieved successfully",
		"data":    product,
	})
}

// GetCategories handles GET /categories
func (h *ProductHandler) GetCategories(c *gin.Context) {
	categories, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		respondCatalogError(c, err, "Failed to load categories")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Categories retrieved successfully",
		"data":    append([]string{catalog.CategoryAll}, categories...),
	})
}

func respondCatalogError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Product not found",
		})
	case errors.Is(err, catalog.ErrSourceUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   message,
			"details": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": message,
		})
	}
}
