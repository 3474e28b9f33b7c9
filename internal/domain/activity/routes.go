package activity

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the activity feed under an authenticated group
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	activities := r.Group("/activities")
	{
		activities.GET("", h.List)
		activities.POST("/:id/dismiss", h.Dismiss)
		activities.POST("/:id/revert", h.Revert)
	}
}

// RegisterWSRoutes mounts the live feed. It authenticates on its own.
func RegisterWSRoutes(r *gin.RouterGroup, ws *WSHandler) {
	r.GET("/ws/activities", ws.Serve)
}
