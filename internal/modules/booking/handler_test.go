package booking

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rentmate/internal/domain"
)

func setupTestRouter(f *fixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID := c.GetHeader("X-Test-User-ID"); userID != "" {
			id, _ := strconv.ParseInt(userID, 10, 64)
			c.Set("user_id", id)
			c.Set("role", c.GetHeader("X-Test-Role"))
		}
		c.Next()
	})
	h := NewHandler(f.svc)
	h.RegisterPublicRoutes(r.Group("/api/v1"))
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doJSON(r http.Handler, method, path string, body interface{}, userID, role string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-Test-User-ID", userID)
		req.Header.Set("X-Test-Role", role)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestHandler_ConfirmPaymentWithoutMethod(t *testing.T) {
	f := newFixture()
	f.bookings.On("GetByID", mock.Anything, int64(42)).Return(pendingBooking(), nil)
	r := setupTestRouter(f)

	w := doJSON(r, http.MethodPost, "/api/v1/bookings/42/confirm-payment", map[string]string{}, "1", "user")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "PAYMENT_METHOD_REQUIRED", env.Error.Code)
	assert.Equal(t, "select payment method", env.Error.Message)
}

func TestHandler_AdminCannotBook(t *testing.T) {
	r := setupTestRouter(newFixture())

	w := doJSON(r, http.MethodPost, "/api/v1/bookings", CreateBookingRequest{TalentID: 5, Date: "2026-11-02", Time: "19:00", Duration: 2, Type: domain.BookingOnline}, "1", "admin")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_CreateBookingConflict(t *testing.T) {
	f := newFixture()
	f.talents.On("GetByID", mock.Anything, int64(5)).Return(ayu(), nil)
	f.blocked.On("IsBlocked", mock.Anything, int64(5)).Return(false, nil)
	f.users.On("GetByID", mock.Anything, int64(1)).Return(&domain.User{ID: 1}, nil)
	approved := pendingBooking()
	approved.BookerID = 9
	approved.ApprovalStatus = domain.ApprovalApproved
	f.bookings.On("List", mock.Anything, mock.Anything).Return([]domain.Booking{*approved}, nil)
	r := setupTestRouter(f)

	w := doJSON(r, http.MethodPost, "/api/v1/bookings", CreateBookingRequest{TalentID: 5, Date: "2026-11-02", Time: "20:00", Duration: 2, Type: domain.BookingOnline}, "1", "user")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "BOOKING_CONFLICT", decode(t, w).Error.Code)
}

func TestHandler_AvailabilityWithSlotCheck(t *testing.T) {
	f := newFixture()
	approved := pendingBooking()
	approved.ApprovalStatus = domain.ApprovalApproved
	f.bookings.On("List", mock.Anything, mock.Anything).Return([]domain.Booking{*approved}, nil)
	r := setupTestRouter(f)

	w := doJSON(r, http.MethodGet, "/api/v1/talents/5/availability?date=2026-11-02&time=20:30&duration=1", nil, "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		BookedSlots []Slot `json:"booked_slots"`
		IsBooked    bool   `json:"is_booked"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Len(t, data.BookedSlots, 1)
	assert.True(t, data.IsBooked)
}

func TestHandler_GetBookingNotFound(t *testing.T) {
	f := newFixture()
	f.bookings.On("GetByID", mock.Anything, int64(7)).Return(nil, domain.ErrNotFound)
	r := setupTestRouter(f)

	w := doJSON(r, http.MethodGet, "/api/v1/bookings/7", nil, "1", "user")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_CreateBookingRejectsMalformedSlot(t *testing.T) {
	r := setupTestRouter(newFixture())

	w := doJSON(r, http.MethodPost, "/api/v1/bookings", CreateBookingRequest{TalentID: 5, Date: "02/11/2026", Time: "25:00", Duration: 30, Type: domain.BookingOnline}, "1", "user")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var env struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Equal(t, map[string]string{"date": "yyyymmdd", "time": "hhmm", "duration": "max"}, env.Error.Details)
}
