package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rentmate/internal/domain"
	"rentmate/internal/middleware"
	"rentmate/internal/pkg/response"
	"rentmate/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes expects admin to be behind JWTAuth and AdminOnly.
func (h *Handler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.GET("/dashboard", h.Dashboard)

	// bookings
	admin.GET("/bookings", h.ListBookings)
	admin.POST("/bookings/:id/approve", h.ApproveBooking)
	admin.POST("/bookings/:id/reject", h.RejectBooking)
	admin.GET("/revenue", h.Revenue)

	// mitra verification
	admin.GET("/mitras/pending", h.ListPendingMitras)
	admin.POST("/mitras/sync", h.SyncMitras)
	admin.POST("/mitras/:id/approve", h.ApproveMitra)
	admin.POST("/mitras/:id/reject", h.RejectMitra)

	// settings
	admin.GET("/settings", h.GetSettings)
	admin.PUT("/settings/commission", h.UpdateCommission)
	admin.PUT("/settings/cities", h.UpdateCities)
	admin.PUT("/settings/payment", h.UpdatePayment)

	admin.GET("/blocked-talents", h.ListBlocked)
	admin.POST("/blocked-talents", h.Block)
	admin.DELETE("/blocked-talents/:talentId", h.Unblock)

	admin.GET("/reports", h.ListReports)
	admin.POST("/reports/:id/resolve", h.ResolveReport)
}

// RegisterReportRoutes exposes report filing to bookers; rg must be behind JWTAuth.
func (h *Handler) RegisterReportRoutes(rg *gin.RouterGroup) {
	rg.POST("/reports", middleware.BookerOnly(), h.FileReport)
}

func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, d)
}

func (h *Handler) ListBookings(c *gin.Context) {
	list, err := h.service.ListBookings(c.Request.Context(), domain.BookingStage(c.Query("stage")))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": list, "count": len(list)})
}

func (h *Handler) ApproveBooking(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	d, err := h.service.ApproveBooking(c.Request.Context(), middleware.Actor(c).ID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, d)
}

func (h *Handler) RejectBooking(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req RejectBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", ErrReasonRequired.Error())
		return
	}
	d, err := h.service.RejectBooking(c.Request.Context(), middleware.Actor(c).ID, id, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, d)
}

func (h *Handler) Revenue(c *gin.Context) {
	r, err := h.service.RevenueReport(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, r)
}

func (h *Handler) ListPendingMitras(c *gin.Context) {
	list, err := h.service.ListPendingMitras(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"mitras": list, "count": len(list)})
}

func (h *Handler) SyncMitras(c *gin.Context) {
	res, err := h.service.SyncPendingMitras(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusBadGateway, "BACKEND_UNAVAILABLE", err.Error())
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) ApproveMitra(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	m, err := h.service.ApproveMitra(c.Request.Context(), middleware.Actor(c).ID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"mitra": m})
}

func (h *Handler) RejectMitra(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req RejectMitraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", ErrReasonRequired.Error())
		return
	}
	m, err := h.service.RejectMitra(c.Request.Context(), id, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"mitra": m})
}

func (h *Handler) GetSettings(c *gin.Context) {
	s, err := h.service.GetSettings(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"settings": s})
}

func (h *Handler) UpdateCommission(c *gin.Context) {
	var req CommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.CommissionPercent == nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "commission_percent is required")
		return
	}
	s, err := h.service.UpdateCommission(c.Request.Context(), middleware.Actor(c).ID, *req.CommissionPercent)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"settings": s})
}

func (h *Handler) UpdateCities(c *gin.Context) {
	var req CitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "cities are required")
		return
	}
	s, err := h.service.UpdateCities(c.Request.Context(), middleware.Actor(c).ID, req.Cities)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"settings": s})
}

func (h *Handler) UpdatePayment(c *gin.Context) {
	var req PaymentSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	s, err := h.service.UpdatePaymentSettings(c.Request.Context(), middleware.Actor(c).ID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"settings": s})
}

func (h *Handler) ListBlocked(c *gin.Context) {
	list, err := h.service.ListBlockedTalents(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"blocked_talents": list})
}

func (h *Handler) Block(c *gin.Context) {
	var req BlockTalentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "talent_id is required")
		return
	}
	b, err := h.service.BlockTalent(c.Request.Context(), middleware.Actor(c).ID, req.TalentID, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"blocked_talent": b})
}

func (h *Handler) Unblock(c *gin.Context) {
	id, ok := parseID(c, "talentId")
	if !ok {
		return
	}
	if err := h.service.UnblockTalent(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"talent_id": id, "blocked": false})
}

func (h *Handler) FileReport(c *gin.Context) {
	booker, _ := middleware.Actor(c).Booker()
	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "talent_id and reason are required")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ValidationFailed(c, fields)
		return
	}
	r, err := h.service.FileReport(c.Request.Context(), booker, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"report": r})
}

func (h *Handler) ListReports(c *gin.Context) {
	list, err := h.service.ListReports(c.Request.Context(), domain.ReportStatus(c.Query("status")))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reports": list})
}

func (h *Handler) ResolveReport(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ResolveReportRequest
	_ = c.ShouldBindJSON(&req)
	r, err := h.service.ResolveReport(c.Request.Context(), middleware.Actor(c).ID, id, req.Note)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"report": r})
}

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid id")
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrReasonRequired),
		errors.Is(err, ErrInvalidCommission), errors.Is(err, ErrInvalidDateRange):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrBookingNotFound), errors.Is(err, ErrMitraNotFound),
		errors.Is(err, ErrTalentNotFound), errors.Is(err, ErrReportNotFound), errors.Is(err, ErrNotBlocked):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrInvalidStatusTransition):
		response.Error(c, http.StatusConflict, "INVALID_STATUS_TRANSITION", err.Error())
	case errors.Is(err, ErrMitraNotPending), errors.Is(err, ErrAlreadyBlocked), errors.Is(err, ErrReportResolved):
		response.Error(c, http.StatusConflict, "CONFLICT", err.Error())
	default:
		response.Internal(c, err)
	}
}
