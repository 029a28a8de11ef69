package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sizechart-backend/internal/shared/response"
	"sizechart-backend/pkg/jwt"
)

const RoleAdmin = "admin"

// AdminAuth requires a valid access token carrying the admin role.
func AdminAuth(tokens *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
		if !found || scheme != "Bearer" || token == "" {
			response.AbortError(c, http.StatusUnauthorized, "AUTH_TOKEN_MISSING", "Missing or invalid authorization header")
			return
		}

		claims, err := tokens.ValidateAccessToken(token)
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, "AUTH_TOKEN_INVALID", "Invalid token")
			return
		}

		if claims.Role != RoleAdmin {
			response.AbortError(c, http.StatusForbidden, "AUTH_ROLE_DENIED", "Access denied: admin role required")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}
