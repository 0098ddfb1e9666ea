// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-core/internal/domain/cart"
	"github.com/your-org/storefront-core/internal/domain/catalog"
	"github.com/your-org/storefront-core/internal/infrastructure/storage"
	"github.com/your-org/storefront-core/internal/interfaces/http/middleware"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	stores  storage.Factory
	catalog *catalog.Service
	logger  *logrus.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(stores storage.Factory, catalogService *catalog.Service, logger *logrus.Logger) *CartHandler {
	return &CartHandler{
		stores:  stores,
		catalog: catalogService,
		logger:  logger,
	}
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  *int  `json:"quantity"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	state := h.cartStore(c).Load(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    newCartResponse(state),
	})
}

// GetCartCount handles GET /cart/count
func (h *CartHandler) GetCartCount(c *gin.Context) {
	state := h.cartStore(c).Load(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{"item_count": cart.ItemCount(state)},
	})
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	product, err := h.catalog.Product(c.Request.Context(), req.ProductID)
	if err != nil {
		respondCatalogError(c, err, "Failed to load product")
		return
	}

	state, err := h.cartStore(c).AddOrIncrement(c.Request.Context(), *product, quantity)
	if err != nil {
		h.respondCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    newCartResponse(state),
	})
}

// UpdateCartItem handles PUT /cart/items/:id
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	state, err := h.cartStore(c).SetQuantity(c.Request.Context(), productID, *req.Quantity)
	if err != nil {
		h.respondCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    newCartResponse(state),
	})
}

// RemoveFromCart handles DELETE /cart/items/:id
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	state, err := h.cartStore(c).Remove(c.Request.Context(), productID)
	if err != nil {
		h.respondCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    newCartResponse(state),
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	state, err := h.cartStore(c).Clear(c.Request.Context())
	if err != nil {
		h.respondCartError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
		"data":    newCartResponse(state),
	})
}

func (h *CartHandler) cartStore(c *gin.Context) *cart.Store {
	return cart.NewStore(h.stores.Open(middleware.GetOrigin(c), middleware.GetContextID(c)), h.logger)
}

func (h *CartHandler) respondCartError(c *gin.Context, err error) {
	if errors.Is(err, cart.ErrInvalidQuantity) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"origin":     middleware.GetOrigin(c),
		"context_id": middleware.GetContextID(c),
		"error":      err.Error(),
	}).Error("Cart update failed")

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Failed to update cart",
	})
}

func productIDParam(c *gin.Context) (int64, bool) {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product ID",
		})
		return 0, false
	}
	return productID, true
}
