package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"rentmate/internal/pkg/jwt"
)

func protectedRouter(jwtService *jwt.Service, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWTAuth(jwtService))
	router.Use(extra...)
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetInt64("user_id"),
			"role":    c.GetString("role"),
		})
	})
	return router
}

func TestJWTAuth_ValidToken(t *testing.T) {
	jwtService := jwt.New("test-secret-123", time.Hour)
	validToken, _ := jwtService.GenerateToken(42, jwt.RoleMitra)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+validToken)
	protectedRouter(jwtService).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "42")
	assert.Contains(t, w.Body.String(), "mitra")
}

func TestJWTAuth_QueryToken(t *testing.T) {
	jwtService := jwt.New("test-secret-123", time.Hour)
	token, _ := jwtService.GenerateToken(5, jwt.RoleUser)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected?access_token="+token, nil)
	protectedRouter(jwtService).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuth_InvalidToken(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer invalid-jwt-here")
	protectedRouter(jwt.New("wrong-secret", time.Hour)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestJWTAuth_NoToken(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	protectedRouter(jwt.New("secret", time.Hour)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_HEADER_MISSING")
}

func TestJWTAuth_WrongFormat(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic dGVzdA==")
	protectedRouter(jwt.New("secret", time.Hour)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_AUTH_FORMAT")
}

func TestAdminOnly(t *testing.T) {
	jwtService := jwt.New("secret", time.Hour)
	router := protectedRouter(jwtService, AdminOnly())

	userToken, _ := jwtService.GenerateToken(1, jwt.RoleUser)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminToken, _ := jwtService.GenerateToken(1, jwt.RoleAdmin)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBookerOnly_AllowsMitra(t *testing.T) {
	jwtService := jwt.New("secret", time.Hour)
	token, _ := jwtService.GenerateToken(3, jwt.RoleMitra)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	protectedRouter(jwtService, BookerOnly()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
