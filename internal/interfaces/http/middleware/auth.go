// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-core/internal/domain/auth"
	"github.com/your-org/storefront-core/internal/infrastructure/storage"
)

// RequireToken rejects requests whose origin holds no token. It must run after Session.
func RequireToken(stores storage.Factory, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		gate := auth.NewGate(stores.Open(GetOrigin(c), GetContextID(c)), nil, logger)

		if !gate.IsAuthorized(c.Request.Context()) {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":    "Authentication required",
				"redirect": "/login",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
