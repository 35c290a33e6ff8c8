package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/estate/internal/auth"
	"github.com/stwalsh4118/estate/internal/identity"
)

// UserIDKey is the Gin context key of the authenticated user id.
const UserIDKey = "user_id"

// Auth resolves the acting user from an "Authorization: Bearer" token and
// attaches it to the request context, where the services read it.
// A present but invalid token is always rejected. A missing token is
// rejected only when required is set; otherwise the request is anonymous.
// With an empty secret no token can be verified and every request is anonymous.
func Auth(secret string, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			if required {
				abortUnauthorized(c, "Missing bearer token")
				return
			}
			c.Next()
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, "Malformed authorization header")
			return
		}

		claims, err := auth.ParseToken(secret, strings.TrimSpace(token))
		if err != nil {
			if log := GetLogger(c); log != nil {
				log.Warn("Rejected bearer token", map[string]interface{}{
					"error": err.Error(),
					"path":  c.Request.URL.Path,
				})
			}
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Request = c.Request.WithContext(identity.WithUser(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":       "UNAUTHORIZED",
			"message":    message,
			"request_id": GetRequestID(c),
		},
	})
}
