package middleware

import (
	"net/http"
	"strings"

	"rentmate/internal/pkg/jwt"
	"rentmate/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// JWTAuth validates the bearer token and stores user_id and role in the context.
// Browsers cannot set headers on WebSocket or EventSource requests, so an
// access_token query parameter is accepted when the header is absent.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, code, msg := bearerToken(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, code, msg)
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if q := strings.TrimSpace(c.Query("access_token")); q != "" {
			return q, "", ""
		}
		return "", "AUTH_HEADER_MISSING", "Authorization header is required"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'"
	}
	return strings.TrimSpace(parts[1]), "", ""
}
