package middleware

import (
	"net/http"                 // HTTP status codes
	"ton_topup/internal/utils" // Claims type

	"github.com/gin-gonic/gin" // Gin web framework
)

// RequireRole checks the role claim set by JWTAuthMiddleware.
// An empty secret disables the check, matching JWTAuthMiddleware.
func RequireRole(secret, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next() // Open endpoint
			return
		}
		v, exists := c.Get(ClaimsKey) // Get claims from context
		// Check if claims exist in context
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		claims, ok := v.(*utils.Claims)
		// Check the role claim
		if !ok || claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Observer access required"})
			return
		}
		c.Next() // Role matches
	}
}
