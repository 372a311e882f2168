package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"finops-backend/internal/shared/server/respond"
)

const callerIDKey = "callerId"

// Auth validates the shared API key and stores the caller identity in context.
// When apiKey is empty (dev/local), requests pass through as an anonymous caller.
func Auth(apiKey string) gin.HandlerFunc {
	expected := strings.TrimSpace(apiKey)
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		if expected == "" {
			c.Set(callerIDKey, "anonymous")
			c.Next()
			return
		}

		presented := strings.TrimSpace(c.GetHeader("Authorization"))
		presented = strings.TrimSpace(strings.TrimPrefix(presented, "Bearer"))
		if presented == "" {
			presented = strings.TrimSpace(c.GetHeader("X-Api-Key"))
		}
		if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) != 1 {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid API key", nil)
			return
		}

		c.Set(callerIDKey, "api-key")
		c.Next()
	}
}

// CallerIDFromContext returns the caller identity stored by Auth.
func CallerIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(callerIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
