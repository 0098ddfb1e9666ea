// internal/interfaces/http/middleware/security.go
package middleware

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeaders adds security headers to responses
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Prevent clickjacking
		c.Header("X-Frame-Options", "DENY")

		// Prevent MIME type sniffing
		c.Header("X-Content-Type-Options", "nosniff")

		// XSS Protection
		c.Header("X-XSS-Protection", "1; mode=block")

		// Referrer Policy
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// The API serves JSON and event streams only
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Cart and token responses are per session
		c.Header("Cache-Control", "no-store")

		// Hide server information
		c.Header("Server", "Storefront API")

		c.Next()
	}
}
