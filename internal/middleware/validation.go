package middleware

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gtech-mulearn/mulearn/internal/app/models/dto"
	"github.com/gtech-mulearn/mulearn/internal/pkg/validation"
)

// BindJSON decodes and validates the request body into obj. On failure the
// 400 envelope has already been written and false is returned.
func BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		HandleBindError(c, err)
		return false
	}
	return true
}

// BindQuery binds and validates query parameters into obj
func BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		HandleBindError(c, err)
		return false
	}
	return true
}

// HandleBindError turns a binding failure into the validation envelope.
// Field errors are keyed by JSON field name.
func HandleBindError(c *gin.Context, err error) {
	if fields, ok := validation.FieldErrors(err); ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewValidationErrorResponse(fields))
		return
	}

	msg := "Invalid request body"
	if errors.Is(err, io.EOF) {
		msg = "Request body is required"
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(http.StatusBadRequest, msg))
}
