package reports

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	reports := r.Group("/reports")
	{
		reports.GET("/dashboard", h.Dashboard)
		reports.GET("/charts", h.Charts)
		reports.GET("/team", h.Team)
		reports.GET("/team/:name", h.Member)
		reports.GET("/export", h.Export)
	}
}
