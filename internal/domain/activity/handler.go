package activity

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"leadcompass/internal/domain/access"
	"leadcompass/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /activities
// @Summary Recent activity
// @Description CEO only. Undismissed field changes inside the recency window, newest first
// @Tags Activities
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /activities [get]
func (h *Handler) List(c *gin.Context) {
	sess, _ := access.FromContext(c.Request.Context())

	items, err := h.service.Recent(c.Request.Context(), sess)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"activities":     items,
		"window_minutes": int(h.service.Window().Minutes()),
	})
}

// Dismiss handles POST /activities/:id/dismiss
// @Summary Dismiss activity
// @Description CEO only
// @Tags Activities
// @Produce json
// @Security BearerAuth
// @Param id path string true "Activity ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /activities/{id}/dismiss [post]
func (h *Handler) Dismiss(c *gin.Context) {
	sess, _ := access.FromContext(c.Request.Context())

	if err := h.service.Dismiss(c.Request.Context(), sess, c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"dismissed": true})
}

// Revert handles POST /activities/:id/revert
// @Summary Revert activity
// @Description CEO only. Restores the old value on the lead and dismisses the activity
// @Tags Activities
// @Produce json
// @Security BearerAuth
// @Param id path string true "Activity ID"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /activities/{id}/revert [post]
func (h *Handler) Revert(c *gin.Context) {
	sess, _ := access.FromContext(c.Request.Context())

	l, err := h.service.Revert(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"lead": l})
}
