// Package response centralizes HTTP response shapes and helpers.
// Handlers rely on it to keep controllers thin and uniform.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/tayseer-service/internal/repository"
	"github.com/maxviazov/tayseer-service/internal/service"
)

// Envelope wraps every successful response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorPayload is the canonical error envelope returned by the API.
type ErrorPayload struct {
	Success     bool                 `json:"success"`
	Message     string               `json:"message"`
	Error       string               `json:"error"`
	FieldErrors []service.FieldError `json:"field_errors,omitempty"`
}

// MapError converts a domain / infrastructure error into an HTTP status and payload.
// Unknown errors never leak their text to the client.
func MapError(err error) (int, ErrorPayload) {
	if err == nil {
		return http.StatusOK, ErrorPayload{Success: true, Error: "ok"}
	}

	if errors.Is(err, service.ErrInvalidInput) {
		return http.StatusBadRequest, ErrorPayload{
			Error:       "invalid_input",
			Message:     "one or more fields are invalid",
			FieldErrors: service.FieldErrors(err),
		}
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, ErrorPayload{Error: "not_found", Message: "resource not found"}
	case errors.Is(err, repository.ErrAlreadyExists):
		return http.StatusConflict, ErrorPayload{Error: "already_exists", Message: "resource already exists"}
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, ErrorPayload{Error: "conflict", Message: "request conflicts with current state"}
	default:
		return http.StatusInternalServerError, ErrorPayload{Error: "internal_error", Message: "internal server error"}
	}
}

// WriteError writes an error response and aborts the context.
// The raw error is attached to the context so the access log can report it.
func WriteError(c *gin.Context, err error) {
	status, payload := MapError(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, payload)
}

// WriteData writes a successful JSON response.
func WriteData(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// WriteMessage writes a successful JSON response with a human-readable note and optional data.
func WriteMessage(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Data: data, Message: message})
}
