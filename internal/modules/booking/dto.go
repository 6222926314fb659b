package booking

import (
	"time"

	"rentmate/internal/domain"
)

type QuoteRequest struct {
	TalentID int64 `json:"talent_id" binding:"required"`
	Duration int   `json:"duration" binding:"required"`
}

type Quote struct {
	TalentID     int64 `json:"talent_id"`
	Duration     int   `json:"duration"`
	PricePerHour int64 `json:"price_per_hour"`
	Total        int64 `json:"total"`
}

type CreateBookingRequest struct {
	TalentID int64              `json:"talent_id" binding:"required"`
	Date     string             `json:"date" binding:"required" validate:"yyyymmdd"`
	Time     string             `json:"time" binding:"required" validate:"hhmm"`
	Duration int                `json:"duration" binding:"required" validate:"min=1,max=24"`
	Purpose  string             `json:"purpose" validate:"max=500"`
	Type     domain.BookingType `json:"type" binding:"required" validate:"oneof=online offline"`
}

type ConfirmPaymentRequest struct {
	Method         domain.PaymentMethod `json:"payment_method"`
	Proof          string               `json:"payment_proof"`
	TransferAmount *int64               `json:"transfer_amount"`
}

// View is a booking as presented to clients: stored fields plus derived ones.
type View struct {
	domain.Booking
	Stage        domain.BookingStage  `json:"stage"`
	PaymentSplit *domain.PaymentSplit `json:"payment_split,omitempty"`
}

type Slot struct {
	BookingID int64     `json:"booking_id"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Duration  int       `json:"duration"`
	StartAt   time.Time `json:"start_at"`
	EndAt     time.Time `json:"end_at"`
}
