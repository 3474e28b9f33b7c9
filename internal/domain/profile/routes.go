package profile

import "github.com/gin-gonic/gin"

// RegisterRoutes registers staff profile routes under an authenticated group
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	profiles := r.Group("/profiles")
	{
		profiles.GET("", h.List)
		profiles.GET("/employees", h.ListEmployees)
		profiles.POST("", h.Create)
		profiles.PATCH("/:id", h.Update)
		profiles.POST("/:id/terminate", h.Terminate)
	}
}
