package middleware

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/yigit/enrollhub/internal/pkg/apperrors"
)

// BindJSON decodes the request body into obj. On failure it writes a 400
// response and returns false; field rules are left to the services so that
// every violation is reported at once.
func BindJSON(c *gin.Context, obj interface{}) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}
	message := "Invalid request format: " + err.Error()
	if errors.Is(err, io.EOF) {
		message = "Request body is required"
	}
	HandleAPIError(c, apperrors.NewBadRequestError(message))
	return false
}
