// Package responses contains HTTP response DTOs for the auth-api.
package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"chatter-server/services/auth-api/internal/domain/user"
)

// MessageResponse is a plain informational response.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleError maps domain errors to HTTP status codes and writes the error
// envelope.
func HandleError(c *gin.Context, err error, message string) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		HandleValidationError(c, err)
	case errors.Is(err, user.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid email or password."})
	case errors.Is(err, user.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired token."})
	case errors.Is(err, user.ErrInactive):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Account is inactive."})
	case errors.Is(err, user.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found."})
	case errors.Is(err, user.ErrDuplicate):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Username or email already registered."})
	case errors.Is(err, user.ErrWrongOTP):
		c.JSON(http.StatusBadRequest, MessageResponse{Message: "Wrong OTP."})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: message})
	}
}

// HandleValidationError writes a 400 envelope for malformed request bodies.
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}
