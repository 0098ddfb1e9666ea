// internal/interfaces/http/handlers/auth.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-core/internal/domain/auth"
	"github.com/your-org/storefront-core/internal/domain/checkout"
	"github.com/your-org/storefront-core/internal/infrastructure/storage"
	"github.com/your-org/storefront-core/internal/interfaces/http/middleware"
)

// AuthHandler handles login and logout
type AuthHandler struct {
	stores   storage.Factory
	source   auth.Source
	checkout *checkout.Service
	logger   *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(stores storage.Factory, source auth.Source, checkoutService *checkout.Service, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		stores:   stores,
		source:   source,
		checkout: checkoutService,
		logger:   logger,
	}
}

// LoginRequest represents login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	if err := h.gate(c).Login(c.Request.Context(), req.Username, req.Password); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			status = http.StatusUnauthorized
		case errors.Is(err, auth.ErrSourceUnavailable), errors.Is(err, auth.ErrNoToken):
			status = http.StatusBadGateway
		}

		c.JSON(status, gin.H{
			"error": auth.UserMessage(err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"data":    gin.H{"authorized": true, "redirect": "/products"},
	})
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.gate(c).Logout(c.Request.Context()); err != nil {
		h.logger.WithError(err).Error("Logout failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to logout",
		})
		return
	}
	h.checkout.Forget(middleware.SessionKey(c))

	c.JSON(http.StatusOK, gin.H{
		"message": "Logout successful",
		"data":    gin.H{"authorized": false, "redirect": "/login"},
	})
}

// GetStatus handles GET /auth/status
func (h *AuthHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{"authorized": h.gate(c).IsAuthorized(c.Request.Context())},
	})
}

func (h *AuthHandler) gate(c *gin.Context) *auth.Gate {
	return auth.NewGate(h.stores.Open(middleware.GetOrigin(c), middleware.GetContextID(c)), h.source, h.logger)
}
