package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Message writes a JSON body containing only a message field. Every
// non-payload response in the API uses this shape.
func Message(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"message": message})
}

// Fail logs the underlying error and returns a generic message to the
// client. Internal details never reach the response body.
func Fail(ctx *gin.Context, message string, err error) {
	if Sugar != nil {
		Sugar.Errorw(message, "path", ctx.FullPath(), "error", err)
	}
	Message(ctx, http.StatusInternalServerError, message)
}

// BadRequest reports a validation failure naming the offending input.
func BadRequest(ctx *gin.Context, message string) {
	Message(ctx, http.StatusBadRequest, message)
}

// NotFound reports a missing entity.
func NotFound(ctx *gin.Context, message string) {
	Message(ctx, http.StatusNotFound, message)
}
