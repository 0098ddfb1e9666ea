// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-core/internal/domain/cart"
	"github.com/your-org/storefront-core/internal/domain/checkout"
	"github.com/your-org/storefront-core/internal/infrastructure/storage"
	"github.com/your-org/storefront-core/internal/interfaces/http/middleware"
)

// CheckoutHandler handles coupon, summary and checkout endpoints
type CheckoutHandler struct {
	stores   storage.Factory
	checkout *checkout.Service
	logger   *logrus.Logger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(stores storage.Factory, checkoutService *checkout.Service, logger *logrus.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		stores:   stores,
		checkout: checkoutService,
		logger:   logger,
	}
}

// ApplyCouponRequest represents apply coupon request
type ApplyCouponRequest struct {
	Code string `json:"code"`
}

// GetSummary handles GET /cart/summary
func (h *CheckoutHandler) GetSummary(c *gin.Context) {
	state := h.cartStore(c).Load(c.Request.Context())
	summary := h.checkout.Summary(middleware.SessionKey(c), state)

	c.JSON(http.StatusOK, gin.H{
		"message": "Summary calculated successfully",
		"data":    newSummaryResponse(summary),
	})
}

// ApplyCoupon handles POST /cart/coupon. A rejected code is a normal answer, not an error.
func (h *CheckoutHandler) ApplyCoupon(c *gin.Context) {
	var req ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	state := h.cartStore(c).Load(c.Request.Context())
	resolution, summary := h.checkout.ApplyCoupon(middleware.SessionKey(c), state, req.Code)

	message := "Coupon applied successfully"
	if !resolution.Valid {
		message = "Invalid coupon code"
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data": gin.H{
			"coupon":  newCouponResponse(resolution),
			"summary": newSummaryResponse(summary),
		},
	})
}

// Checkout handles POST /checkout
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	receipt, err := h.checkout.Checkout(c.Request.Context(), middleware.SessionKey(c), h.cartStore(c))
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Your cart is empty",
			})
			return
		}

		h.logger.WithError(err).Error("Checkout failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to complete checkout",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment successful, thank you for your order",
		"data":    newReceiptResponse(receipt),
	})
}

func (h *CheckoutHandler) cartStore(c *gin.Context) *cart.Store {
	return cart.NewStore(h.stores.Open(middleware.GetOrigin(c), middleware.GetContextID(c)), h.logger)
}
