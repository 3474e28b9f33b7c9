package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"leadcompass/internal/domain/access"
	"leadcompass/internal/pkg/response"
	"leadcompass/internal/pkg/validator"
)

// Handler manages HTTP sign-in
type Handler struct {
	service  *Service
	profiles ProfileLookup
}

func NewHandler(service *Service, profiles ProfileLookup) *Handler {
	return &Handler{service: service, profiles: profiles}
}

// Login handles POST /api/v1/auth/login
// @Summary Sign in
// @Description Checks email and password and issues an access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} response.Response{data=LoginResult}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.CustomError(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Messages(&req); errs != nil {
		response.CustomError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", errs)
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		case errors.Is(err, ErrAccountTerminated):
			response.Error(c, http.StatusForbidden, "ACCOUNT_TERMINATED", "This account has been terminated")
		default:
			response.FromError(c, err)
		}
		return
	}

	response.Success(c, http.StatusOK, res)
}

// Me handles GET /api/v1/auth/me
// @Summary Current session
// @Description Session and profile of the caller
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	sess, ok := access.FromContext(c.Request.Context())
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Not signed in")
		return
	}

	p, err := h.profiles.Get(c.Request.Context(), sess.ProfileID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": sess, "profile": p})
}
