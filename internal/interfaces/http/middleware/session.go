// internal/interfaces/http/middleware/session.go
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// SessionCookie identifies the origin: every tab of one browser shares it
	SessionCookie = "session_id"
	// ContextHeader identifies the execution context (tab) within the origin
	ContextHeader = "X-Context-ID"
	// ContextQuery is the fallback for clients that cannot set headers, such as EventSource
	ContextQuery = "context_id"

	originKey    = "origin"
	contextIDKey = "context_id"
)

// Session resolves the origin and execution context of a request, creating
// either when the client did not send one.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin, err := c.Cookie(SessionCookie)
		if err != nil || origin == "" {
			origin = uuid.New().String()
			// Set session cookie (24 hours)
			c.SetCookie(SessionCookie, origin, 86400, "/", "", false, true)
		}

		contextID := c.GetHeader(ContextHeader)
		if contextID == "" {
			contextID = c.Query(ContextQuery)
		}
		if contextID == "" {
			contextID = uuid.New().String()
		}

		c.Set(originKey, origin)
		c.Set(contextIDKey, contextID)
		c.Header(ContextHeader, contextID)
		c.Next()
	}
}

// GetOrigin returns the origin resolved by Session
func GetOrigin(c *gin.Context) string {
	return c.GetString(originKey)
}

// GetContextID returns the execution context resolved by Session
func GetContextID(c *gin.Context) string {
	return c.GetString(contextIDKey)
}

// SessionKey identifies one execution context across origins
func SessionKey(c *gin.Context) string {
	return GetOrigin(c) + ":" + GetContextID(c)
}
