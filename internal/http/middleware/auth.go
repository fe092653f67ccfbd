// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the identity middleware. The service trusts an opaque
// user id supplied out of band by the surrounding deployment (gateway or
// session layer) via the X-User-ID header; everything downstream receives
// that identity explicitly through the request context instead of reading
// ambient global state.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// userIDKey is the Gin context key under which the caller identity is stored.
	userIDKey = "userID"
	// userIDHeader carries the opaque user id.
	userIDHeader = "X-User-ID"
)

// RequireUser rejects requests without an identified user with 401 and
// stores the identity in the Gin context for handlers, logging, and rate
// limiting. No further validation happens here; authentication proper is
// the concern of an upstream subsystem.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader(userIDHeader))
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    "Authentication required.",
			})
			return
		}
		c.Set(userIDKey, uid)
		c.Next()
	}
}

// UserID returns the identity stored by RequireUser, or "" when the request
// is unauthenticated (only possible on routes mounted outside the guard).
func UserID(c *gin.Context) string {
	if v, ok := c.Get(userIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
