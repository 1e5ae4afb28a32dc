// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller's identity. The service sits behind the
// platform gateway, which authenticates the session and forwards the subject
// as X-User-ID; this middleware trusts that header, stores the id in the Gin
// context, and rejects requests that arrive without one.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// ctxKeyUserID is the Gin context key under which the caller id is stored.
	ctxKeyUserID = "userID"
	// userIDHeader carries the authenticated subject from the gateway.
	userIDHeader = "X-User-ID"
)

// RequireUser extracts the caller identity from X-User-ID. Requests without
// a user id are rejected with a 401 envelope before reaching any handler.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader(userIDHeader))
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthorized",
				"message":    "user identity required",
			})
			return
		}
		c.Set(ctxKeyUserID, uid)
		c.Next()
	}
}

// UserID returns the authenticated caller id stored by RequireUser, or ""
// when the request was not authenticated.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
