package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"leadcompass/internal/pkg/apperr"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// CustomError accepts a string, an error or a details map as the message.
func CustomError(c *gin.Context, statusCode int, code string, message any) {
	switch m := message.(type) {
	case string:
		Error(c, statusCode, code, m)
	case error:
		Error(c, statusCode, code, m.Error())
	default:
		ErrorWithDetails(c, statusCode, code, http.StatusText(statusCode), m)
	}
}

// FromError writes the response for one of the apperr kinds.
// Anything else becomes a 500. The error is also attached to the gin context for ErrorLogger.
func FromError(c *gin.Context, err error) {
	_ = c.Error(err)

	var (
		ve *apperr.ValidationError
		pe *apperr.PermissionError
		ne *apperr.NotFoundError
		se *apperr.PersistenceError
		xe *apperr.ParseError
	)
	switch {
	case errors.As(err, &ve):
		ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed", ve.Fields)
	case errors.As(err, &pe):
		ErrorWithDetails(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions",
			gin.H{"capability": pe.Capability})
	case errors.As(err, &ne):
		Error(c, http.StatusNotFound, "NOT_FOUND", ne.Error())
	case errors.As(err, &xe):
		Error(c, http.StatusBadRequest, "PARSE_ERROR", xe.Reason)
	case errors.As(err, &se):
		ErrorWithDetails(c, http.StatusServiceUnavailable, "PERSISTENCE_ERROR", se.Op+" failed, please retry",
			gin.H{"retryable": true})
	default:
		Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}
