// Package responses contains HTTP response DTOs for the chat-api.
package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatter-server/services/chat-api/internal/domain/chat"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// HandleError maps domain errors to HTTP status codes and writes the error
// envelope.
func HandleError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, chat.ErrAuthRequired):
		writeError(c, http.StatusUnauthorized, "unauthorized_error", "Authentication required")
	case errors.Is(err, chat.ErrRoomNotFound):
		writeError(c, http.StatusNotFound, "not_found_error", "Room not found")
	case errors.Is(err, chat.ErrMessageNotFound):
		writeError(c, http.StatusNotFound, "not_found_error", "Message not found")
	case errors.Is(err, chat.ErrMissingUsernames), errors.Is(err, chat.ErrInvalidMembers):
		writeError(c, http.StatusBadRequest, "validation_error", err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal_error", message)
	}
}

// HandleValidationError writes a 400 envelope for malformed request bodies.
func HandleValidationError(c *gin.Context, err error) {
	writeError(c, http.StatusBadRequest, "validation_error", err.Error())
}

func writeError(c *gin.Context, status int, errType, message string) {
	c.JSON(status, ErrorResponse{Error: &ErrorDetail{
		Message: message,
		Type:    errType,
	}})
}
