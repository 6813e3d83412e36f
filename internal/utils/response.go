package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scribe/internal/apperrors"
)

// Success writes data as a 200 JSON body.
func Success(c *gin.Context, data gin.H) {
	c.JSON(http.StatusOK, data)
}

// Error writes {"error": msg} with the status carried by err. Errors that are
// not AppErrors become a generic 500 so internal details never leak.
func Error(c *gin.Context, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Internal(err)
	}
	c.JSON(appErr.HTTPStatus, gin.H{"error": appErr.Message})
}

// AbortWithError is Error for middleware that must stop the chain.
func AbortWithError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}
