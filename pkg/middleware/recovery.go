package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/zenon0777/payever-backend-assessment/pkg/log"
	"github.com/zenon0777/payever-backend-assessment/pkg/response"
)

// Recovery turns a panic in a downstream handler into a 500 response in the
// standard envelope and logs the stack through the request logger.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				l := log.Ctx(c.Request.Context())
				l.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				response.AbortWithError(c, http.StatusInternalServerError, response.CodeInternal, "internal server error")
			}
		}()
		c.Next()
	}
}
