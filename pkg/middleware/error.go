package middleware

import (
	"net/http"

	"bountyhub/pkg/errutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error renders the last error attached by a handler. BaseError keeps its own
// status; anything else becomes a 500.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		if v, ok := errutil.As(last.Err); ok {
			if v.Code.HTTPStatus() >= http.StatusInternalServerError {
				zap.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(last.Err))
			}
			c.JSON(v.Code.HTTPStatus(), v.JSON())
			return
		}

		zap.L().Error("unhandled error", zap.String("path", c.FullPath()), zap.Error(last.Err))
		internal := errutil.BaseError{Code: errutil.StatusInternal, Message: "internal error"}
		c.JSON(http.StatusInternalServerError, internal.JSON())
	}
}
