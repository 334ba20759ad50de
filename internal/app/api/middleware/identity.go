package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// Identity reads the user identity established by the fronting auth layer
// (X-User-ID header). Requests without it cannot use the account-scoped API.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetHeader("X-User-ID")
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "unauthorized"})
			return
		}
		c.Set(userIDKey, uid)
		ctx := context.WithValue(c.Request.Context(), "user_id", uid)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// UserID returns the identity set by Identity.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
