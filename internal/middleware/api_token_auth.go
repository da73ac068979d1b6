package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/impresahub/impresa_backend/internal/core/ports/services"
)

// APITokenAuth authenticates requests carrying an x-api-key header.
// Requests without a valid key fall through to JWT authentication.
func APITokenAuth(tokenSvc services.APITokenSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isPublicRoute(c.Request.URL.Path) {
			c.Next()
			return
		}

		apiKey := c.GetHeader("x-api-key")
		if apiKey == "" {
			c.Next()
			return
		}

		user, err := tokenSvc.ValidateToken(c.Request.Context(), apiKey)
		if err != nil {
			GetLoggerFromCtx(c.Request.Context()).Warn("API token rejected", "error", err)
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(WithActor(c.Request.Context(), user.Actor()))
		c.Set(authMethod, "api_token")
		c.Next()
	}
}

// isPublicRoute checks if the given path is a public route that doesn't require authentication
func isPublicRoute(path string) bool {
	publicRoutes := []string{
		"/api/v1/auth/login",
		"/api/v1/auth/register",
		"/health",
		"/metrics",
	}

	for _, route := range publicRoutes {
		if path == route {
			return true
		}
	}

	return false
}
