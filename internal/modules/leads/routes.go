package leads

import "github.com/gin-gonic/gin"

// RegisterRoutes registers lead routes under an authenticated group.
// Fixed paths are registered before /:id.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	leads := r.Group("/leads")
	{
		leads.GET("", h.List)
		leads.GET("/closed", h.Closed)
		leads.GET("/export", h.Export)
		leads.GET("/mutations", h.Mutations)
		leads.POST("", h.Create)
		leads.POST("/import", h.Import)
		leads.POST("/delete-all", h.DeleteAll)
		leads.POST("/refresh", h.Refresh)
		leads.GET("/:id", h.Get)
		leads.PATCH("/:id", h.Update)
		leads.DELETE("/:id", h.Delete)
	}
}
