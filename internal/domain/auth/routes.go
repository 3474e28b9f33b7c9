package auth

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes mounts sign-in. guards run before the handler, e.g. a rate limiter.
func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup, guards ...gin.HandlerFunc) {
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/login", append(guards, h.Login)...)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.GET("/auth/me", h.Me)
}
