package middleware

import (
	"net/http"

	"rentmate/internal/domain"
	"rentmate/internal/pkg/jwt"
	"rentmate/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireRole ensures that the authenticated subject has one of the given roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			return
		}

		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		response.Abort(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
	}
}

func AdminOnly() gin.HandlerFunc {
	return RequireRole(jwt.RoleAdmin)
}

func MitraOnly() gin.HandlerFunc {
	return RequireRole(jwt.RoleMitra)
}

// BookerOnly admits users and mitras, the two roles that can book talents.
func BookerOnly() gin.HandlerFunc {
	return RequireRole(jwt.RoleUser, jwt.RoleMitra)
}

// Actor returns the caller identity stored by JWTAuth.
func Actor(c *gin.Context) domain.Actor {
	return domain.Actor{ID: c.GetInt64("user_id"), Role: domain.UserRole(c.GetString("role"))}
}
