package profile

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

// List handles GET /api/v1/profiles
// @Summary List profiles
// @Description CEO only
// @Tags Profiles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /profiles [get]
func (h *Handler) List(c *gin.Context) {
	sess, _ := access.FromContext(c.Request.Context())

	profiles, err := h.service.List(c.Request.Context(), sess)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"profiles": profiles})
}

// ListEmployees handles GET /api/v1/profiles/employees
// @Summary List employees
// @Description Employees and the names leads may be assigned to. Salary is hidden from employees
// @Tags Profiles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /profiles/employees [get]
func (h *Handler) ListEmployees(c *gin.Context) {
	sess, _ := access.FromContext(c.Request.Context())

	profiles, err := h.service.ListEmployees(c.Request.Context(), sess)
	if err != nil {
		response.FromError(c, err)
		return
	}
	names, err := h.service.AssignableNames(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"employees": profiles, "assignable": names})
}

// Create handles POST /api/v1/profiles
// @Summary Create profile
// @Description CEO only
// @Tags Profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRequest true "Profile data"
// @Success 201 {object} response.Response{data=Profile}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /profiles [post]
func (h *Handler) Create(c *gin.Context) {
	sess, _ := access.FromContext(c.Request.Context())

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	p, err := h.service.Create(c.Request.Context(), sess, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, p)
}

// Update handles PATCH /api/v1/profiles/:id
// @Summary Update profile
// @Description CEO only
// @Tags Profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Profile ID"
// @Param request body UpdateRequest true "Fields to change"
// @Success 200 {object} response.Response{data=Profile}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /profiles/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	sess, _ := access.FromContext(c.Request.Context())

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	p, err := h.service.Update(c.Request.Context(), sess, c.Param("id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

// Terminate handles POST /api/v1/profiles/:id/terminate
// @Summary Terminate profile
// @Description CEO only. Terminated staff cannot sign in or take new leads
// @Tags Profiles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Profile ID"
// @Success 200 {object} response.Response{data=Profile}
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /profiles/{id}/terminate [post]
func (h *Handler) Terminate(c *gin.Context) {
	sess, _ := access.FromContext(c.Request.Context())

	p, err := h.service.Terminate(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}
