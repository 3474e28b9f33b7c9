package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadcompass/internal/domain/access"
	"leadcompass/internal/pkg/response"
)

// RequireRole ensures that the authenticated session has the specified role
func RequireRole(requiredRole access.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := access.FromContext(c.Request.Context())
		if !ok {
			response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Not signed in")
			c.Abort()
			return
		}

		if sess.Role != requiredRole {
			response.CustomError(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			c.Abort()
			return
		}

		c.Next()
	}
}

// CEOOnly middleware requires the CEO role
func CEOOnly() gin.HandlerFunc {
	return RequireRole(access.RoleCEO)
}
