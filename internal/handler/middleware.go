package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireBearerMiddleware guards the API and unified read surfaces with a
// static bearer token. An empty token disables auth, for dev only.
func RequireBearerMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		p := c.Request.URL.Path
		// Keep infra endpoints open.
		if p == "/healthz" || p == "/readyz" {
			c.Next()
			return
		}
		if strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, "/crm/") || strings.HasPrefix(p, "/engagement/") {
			auth := strings.TrimSpace(c.GetHeader("Authorization"))
			if auth != "Bearer "+token {
				Error(c, http.StatusUnauthorized, "missing or invalid bearer token", nil)
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
