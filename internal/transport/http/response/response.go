package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"authgate/internal/app"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"

	MessageInternal = "Internal server error"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, httpStatus int, message string, data interface{}) {
	c.JSON(httpStatus, APIResponse{
		Status:  StatusOK,
		Message: message,
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, APIResponse{
		Status:  StatusError,
		Message: message,
	})
}

// Fail renders err. Domain errors keep their message; anything else becomes a bare 500
// and is attached to the context for the request logger.
func Fail(c *gin.Context, err error) {
	if appErr, ok := app.AsError(err); ok {
		Error(c, appErr.Kind.Status(), appErr.Message)
		return
	}
	_ = c.Error(err)
	Error(c, http.StatusInternalServerError, MessageInternal)
}
