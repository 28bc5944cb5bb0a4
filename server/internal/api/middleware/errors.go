package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/dobriak/mini-ipam/models"
)

// abortWithError writes the standard error body and stops the chain.
func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: GetRequestID(c),
	})
}
