package middleware

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/estate/internal/config"
)

// CORS builds the gin-contrib/cors handler from the configured origins,
// methods and headers. The request id header is always allowed and exposed.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	headers := cfg.Headers
	if !containsFold(headers, RequestIDHeader) {
		headers = append(append([]string{}, headers...), RequestIDHeader)
	}

	return cors.New(cors.Config{
		AllowOrigins:     cfg.Origins,
		AllowMethods:     cfg.Methods,
		AllowHeaders:     headers,
		ExposeHeaders:    []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           cfg.MaxAge,
	})
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
