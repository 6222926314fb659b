package booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

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

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/talents/:id/availability", h.Availability)
}

// RegisterRoutes expects rg to be behind JWTAuth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings/quote", h.Quote)
	rg.GET("/bookings/:id", h.GetBooking)

	bookers := rg.Group("", middleware.BookerOnly())
	bookers.POST("/bookings", h.CreateBooking)
	bookers.GET("/bookings/mine", h.ListMine)
	bookers.POST("/bookings/:id/confirm-payment", h.ConfirmPayment)
	bookers.GET("/payment-code", h.PaymentCode)
}

// RegisterMitraRoutes expects rg to be behind JWTAuth and MitraOnly.
func (h *Handler) RegisterMitraRoutes(rg *gin.RouterGroup) {
	rg.GET("/bookings", h.ListTalentBookings)
}

func (h *Handler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	q, err := h.service.Quote(c.Request.Context(), req.TalentID, req.Duration)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, q)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	booker, ok := middleware.Actor(c).Booker()
	if !ok {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Only users and mitras can book")
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ValidationFailed(c, fields)
		return
	}

	v, err := h.service.CreateBooking(c.Request.Context(), booker, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": v})
}

func (h *Handler) ListMine(c *gin.Context) {
	booker, _ := middleware.Actor(c).Booker()
	list, err := h.service.ListMyBookings(c.Request.Context(), booker)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": list})
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	v, err := h.service.GetBooking(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": v})
}

func (h *Handler) ConfirmPayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	booker, _ := middleware.Actor(c).Booker()

	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	v, err := h.service.ConfirmPayment(c.Request.Context(), booker, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": v})
}

func (h *Handler) PaymentCode(c *gin.Context) {
	booker, _ := middleware.Actor(c).Booker()
	talentID, err := strconv.ParseInt(c.Query("talent_id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "talent_id is required")
		return
	}
	code, err := h.service.GetOrCreatePaymentCode(c.Request.Context(), booker, talentID, c.Query("date"), c.Query("time"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payment_code": code})
}

func (h *Handler) ListTalentBookings(c *gin.Context) {
	list, err := h.service.ListTalentBookings(c.Request.Context(), middleware.Actor(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": list})
}

// Availability lists booked slots of a day. With time and duration it also answers whether that slot is taken.
func (h *Handler) Availability(c *gin.Context) {
	talentID, ok := parseID(c, "id")
	if !ok {
		return
	}
	date := c.Query("date")
	slots, err := h.service.Availability(c.Request.Context(), talentID, date)
	if err != nil {
		writeError(c, err)
		return
	}

	out := gin.H{"date": date, "booked_slots": slots}
	if clock := c.Query("time"); clock != "" {
		duration, err := strconv.Atoi(c.DefaultQuery("duration", "1"))
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid duration")
			return
		}
		booked, err := h.service.IsSlotBooked(c.Request.Context(), talentID, date, clock, duration)
		if err != nil {
			writeError(c, err)
			return
		}
		out["is_booked"] = booked
	}
	response.Success(c, http.StatusOK, out)
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
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking details")
	case errors.Is(err, ErrStartInPast):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrPaymentMethodRequired):
		response.Error(c, http.StatusBadRequest, "PAYMENT_METHOD_REQUIRED", err.Error())
	case errors.Is(err, ErrInvalidPaymentMethod):
		response.Error(c, http.StatusBadRequest, "INVALID_PAYMENT_METHOD", err.Error())
	case errors.Is(err, ErrPaymentProofRequired):
		response.Error(c, http.StatusBadRequest, "PAYMENT_PROOF_REQUIRED", err.Error())
	case errors.Is(err, ErrInvalidProof):
		response.Error(c, http.StatusBadRequest, "INVALID_PAYMENT_PROOF", ErrInvalidProof.Error())
	case errors.Is(err, ErrProofTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, "PAYMENT_PROOF_TOO_LARGE", err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrTalentNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, ErrSelfBooking), errors.Is(err, ErrTalentUnavailable):
		response.Error(c, http.StatusUnprocessableEntity, "TALENT_UNAVAILABLE", err.Error())
	case errors.Is(err, ErrSlotBooked), errors.Is(err, ErrDuplicateBooking):
		response.Error(c, http.StatusConflict, "BOOKING_CONFLICT", err.Error())
	case errors.Is(err, ErrInvalidStatusTransition):
		response.Error(c, http.StatusConflict, "INVALID_STATUS_TRANSITION", err.Error())
	default:
		response.Internal(c, err)
	}
}
