package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/mediscan/mediscan-api/pkg/httputil"
)

// Recovery turns a handler panic into a 500 that carries the request id.
// http.ErrAbortHandler is re-raised so net/http drops the connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			requestLogger(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Str("method", c.Request.Method).
				Str("route", c.FullPath()).
				Str("path", c.Request.URL.Path).
				Msg("handler panic recovered")

			if c.Writer.Written() {
				c.Abort()
				return
			}
			resp := httputil.NewErrorResponse("internal server error")
			resp.RequestID = c.GetString(ContextRequestID)
			c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
		}()
		c.Next()
	}
}
