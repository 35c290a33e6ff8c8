package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/estate/internal/identity"
	"github.com/stwalsh4118/estate/internal/logger"
)

// Recovery turns a handler panic into a 500 error envelope. The panic is
// logged with its stack, the route and the acting user when one is known.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			fields := map[string]interface{}{
				"method": c.Request.Method,
				"route":  c.FullPath(),
				"path":   c.Request.URL.Path,
				"stack":  string(debug.Stack()),
			}
			requestLogger := GetLogger(c)
			if requestLogger == nil {
				requestLogger = log
				fields["request_id"] = GetRequestID(c)
			}
			if user := identity.UserFrom(c.Request.Context()); user != nil {
				fields["user_id"] = *user
			}
			requestLogger.Error("Panic recovered", fmt.Errorf("panic: %v", rec), fields)

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":       "INTERNAL_SERVER_ERROR",
					"message":    "An unexpected error occurred",
					"request_id": GetRequestID(c),
				},
			})
		}()

		c.Next()
	}
}
