package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rentmate/internal/middleware"
	"rentmate/internal/pkg/response"
)

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", h.RegisterUser)
		authGroup.POST("/login", h.Login)
	}

	mitraGroup := v1.Group("/mitra")
	{
		mitraGroup.POST("/register", h.RegisterMitra)
		mitraGroup.POST("/login", h.LoginMitra)
	}
}

// RegisterProtectedRoutes expects protected to be behind JWTAuth.
func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.GET("/me", h.GetMe)
}

func (h *Handler) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	res, err := h.service.RegisterUser(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) RegisterMitra(c *gin.Context) {
	var req RegisterMitraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	res, err := h.service.RegisterMitra(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

func (h *Handler) LoginMitra(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	res, err := h.service.LoginMitra(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) GetMe(c *gin.Context) {
	p, err := h.service.Me(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": p})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmailAlreadyExists):
		response.Error(c, http.StatusConflict, "EMAIL_EXISTS", "This email is already registered")
	case errors.Is(err, ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, ErrMitraRejected):
		response.Error(c, http.StatusForbidden, "MITRA_REJECTED", err.Error())
	case errors.Is(err, ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		response.Internal(c, err)
	}
}
