package admin

import (
	"rentmate/internal/domain"
	"rentmate/internal/modules/booking"
)

type RejectBookingRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type RejectMitraRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type CommissionRequest struct {
	CommissionPercent *int `json:"commission_percent" binding:"required"`
}

type CitiesRequest struct {
	Cities []string `json:"cities" binding:"required"`
}

type PaymentSettingsRequest struct {
	BankAccounts []domain.BankAccount `json:"bank_accounts"`
	QRIS         *domain.QRISSettings `json:"qris"`
}

type BlockTalentRequest struct {
	TalentID int64  `json:"talent_id" binding:"required"`
	Reason   string `json:"reason"`
}

type CreateReportRequest struct {
	TalentID  int64  `json:"talent_id" binding:"required"`
	BookingID *int64 `json:"booking_id"`
	Reason    string `json:"reason" binding:"required" validate:"max=200"`
	Details   string `json:"details" validate:"max=2000"`
}

type ResolveReportRequest struct {
	Note string `json:"note"`
}

// Decision is the outcome of an approve or reject action.
type Decision struct {
	Booking booking.View        `json:"booking"`
	Session *domain.ChatSession `json:"chat_session,omitempty"`
	Notice  string              `json:"notice,omitempty"`
}

type RevenueTotals struct {
	Bookings    int   `json:"bookings"`
	Total       int64 `json:"total"`
	AppAmount   int64 `json:"app_amount"`
	MitraAmount int64 `json:"mitra_amount"`
}

func (t *RevenueTotals) add(s domain.PaymentSplit) {
	t.Bookings++
	t.Total += s.Total
	t.AppAmount += s.AppAmount
	t.MitraAmount += s.MitraAmount
}

type TalentRevenue struct {
	TalentID   int64  `json:"talent_id"`
	TalentName string `json:"talent_name"`
	RevenueTotals
}

type RevenueReport struct {
	From              string          `json:"from,omitempty"`
	To                string          `json:"to,omitempty"`
	CommissionPercent int             `json:"commission_percent"`
	Totals            RevenueTotals   `json:"totals"`
	ByTalent          []TalentRevenue `json:"by_talent"`
	Bookings          []booking.View  `json:"bookings"`
}

type Dashboard struct {
	BookingsByStage   map[domain.BookingStage]int `json:"bookings_by_stage"`
	Talents           int64                       `json:"talents"`
	PendingMitras     int64                       `json:"pending_mitras"`
	OpenReports       int64                       `json:"open_reports"`
	CommissionPercent int                         `json:"commission_percent"`
	Revenue           RevenueTotals               `json:"revenue"`
}

type SyncResult struct {
	Fetched  int `json:"fetched"`
	Imported int `json:"imported"`
}
