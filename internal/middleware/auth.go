package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"leadcompass/internal/domain/access"
	"leadcompass/internal/domain/auth"
	"leadcompass/internal/pkg/response"
)

// SessionResolver turns a bearer token into the caller's session
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*access.Session, error)
}

// SessionAuth requires a valid bearer token. The session is stored on the request
// context for handlers and as profile_id/role on the gin context for logging.
func SessionAuth(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization header required")
			c.Abort()
			return
		}

		sess, err := resolver.Resolve(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, auth.ErrAccountTerminated) {
				response.Error(c, http.StatusForbidden, "ACCOUNT_TERMINATED", "This account has been terminated")
			} else {
				response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			}
			c.Abort()
			return
		}

		c.Set("profile_id", sess.ProfileID)
		c.Set("role", string(sess.Role))
		c.Request = c.Request.WithContext(access.WithSession(c.Request.Context(), sess))
		c.Next()
	}
}
