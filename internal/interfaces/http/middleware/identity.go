package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// userIDKey is the gin context key the identity middleware fills.
const userIDKey = "user_id"

// Identity resolves the calling user from the X-User-ID header set by
// the fronting gateway. Requests without a usable identity are rejected
// before any handler runs.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}

		userID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || userID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid identity"})
			return
		}

		c.Set(userIDKey, uint(userID))
		c.Next()
	}
}

// UserID returns the identity the middleware resolved.
func UserID(c *gin.Context) uint {
	return c.GetUint(userIDKey)
}
