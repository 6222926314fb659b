package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rentmate/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(v1 *gin.RouterGroup) {
	v1.GET("/talents", h.ListTalents)
	v1.GET("/talents/:id", h.GetTalent)
	v1.GET("/cities", h.Cities)
	v1.GET("/payment-settings", h.PaymentSettings)
}

// ListTalents handles GET /api/v1/talents?city=&q=
func (h *Handler) ListTalents(c *gin.Context) {
	list, err := h.service.ListTalents(c.Request.Context(), c.Query("city"), c.Query("q"))
	if err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"talents": list, "count": len(list)})
}

func (h *Handler) GetTalent(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid talent id")
		return
	}
	t, err := h.service.GetTalent(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrTalentNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"talent": t})
}

func (h *Handler) Cities(c *gin.Context) {
	cities, err := h.service.Cities(c.Request.Context())
	if err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"cities": cities})
}

func (h *Handler) PaymentSettings(c *gin.Context) {
	ps, err := h.service.PaymentSettings(c.Request.Context())
	if err != nil {
		response.Internal(c, err)
		return
	}
	response.Success(c, http.StatusOK, ps)
}
