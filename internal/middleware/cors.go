package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"homedash/internal/config"
)

// CORSMiddleware applies the configured CORS policy. The dashboard frontend
// is usually served from another port during development.
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	cors := cfg.Security.CORS
	if !cors.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	allowAll := len(cors.AllowedOrigins) == 0
	allowed := make(map[string]bool, len(cors.AllowedOrigins))
	for _, origin := range cors.AllowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}
	methods := strings.Join(cors.AllowedMethods, ", ")
	headers := strings.Join(cors.AllowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if allowAll {
				c.Header("Access-Control-Allow-Origin", "*")
			} else if allowed[origin] {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
			if methods != "" {
				c.Header("Access-Control-Allow-Methods", methods)
			}
			if headers != "" {
				c.Header("Access-Control-Allow-Headers", headers)
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
