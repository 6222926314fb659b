package domain

import "time"

type BookerType string

const (
	BookerUser  BookerType = "user"
	BookerMitra BookerType = "mitra"
)

// Booker identifies who booked: a user account or a mitra account.
type Booker struct {
	ID   int64
	Type BookerType
}

type BookingType string

const (
	BookingOnline  BookingType = "online"
	BookingOffline BookingType = "offline"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending_approval"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// BookingStage is the lifecycle position of a booking as seen at a given instant.
// It is derived from stored fields and the clock and is never persisted.
type BookingStage string

const (
	StageDraft           BookingStage = "draft"
	StagePendingPayment  BookingStage = "pending_payment"
	StagePendingApproval BookingStage = "pending_approval"
	StageApproved        BookingStage = "approved"
	StageRejected        BookingStage = "rejected"
	StageCompleted       BookingStage = "completed"
)

type PaymentMethod string

const (
	PaymentQRIS    PaymentMethod = "qris"
	PaymentBCA     PaymentMethod = "bca"
	PaymentBNI     PaymentMethod = "bni"
	PaymentBRI     PaymentMethod = "bri"
	PaymentMandiri PaymentMethod = "mandiri"
)

// ValidPaymentMethod reports whether m is one of the accepted transfer methods.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentQRIS, PaymentBCA, PaymentBNI, PaymentBRI, PaymentMandiri:
		return true
	}
	return false
}

// Booking is one booking attempt of a talent by a user or a mitra.
type Booking struct {
	ID         int64      `json:"id" gorm:"primaryKey"`
	BookerID   int64      `json:"booker_id" gorm:"not null;index:idx_bookings_booker"`
	BookerType BookerType `json:"booker_type" gorm:"type:varchar(16);not null;index:idx_bookings_booker"`
	TalentID   int64      `json:"talent_id" gorm:"not null;index"`

	// Display fields copied at creation time.
	BookerName   string `json:"booker_name"`
	BookerAvatar string `json:"booker_avatar,omitempty"`
	TalentName   string `json:"talent_name"`
	TalentPhoto  string `json:"talent_photo,omitempty"`

	Date     string      `json:"date" gorm:"type:varchar(10);not null;index"`
	Time     string      `json:"time" gorm:"type:varchar(5);not null"`
	Duration int         `json:"duration"`
	StartAt  time.Time   `json:"start_at" gorm:"index"`
	EndAt    time.Time   `json:"end_at"`
	Purpose  string      `json:"purpose,omitempty" gorm:"type:text"`
	Type     BookingType `json:"type" gorm:"type:varchar(16)"`

	Total          int64         `json:"total"`
	PaymentStatus  PaymentStatus `json:"payment_status" gorm:"type:varchar(16);not null;default:'pending'"`
	PaymentMethod  PaymentMethod `json:"payment_method,omitempty" gorm:"type:varchar(16)"`
	PaymentCode    string        `json:"payment_code" gorm:"type:varchar(32)"`
	PaymentProof   string        `json:"payment_proof,omitempty" gorm:"type:text"`
	TransferAmount int64         `json:"transfer_amount,omitempty"`
	TransferTime   *time.Time    `json:"transfer_time,omitempty"`

	ApprovalStatus  ApprovalStatus `json:"approval_status" gorm:"type:varchar(32);not null;default:'pending_approval';index"`
	RejectionReason string         `json:"rejection_reason,omitempty" gorm:"type:text"`
	DecidedBy       *int64         `json:"decided_by,omitempty"`
	DecidedAt       *time.Time     `json:"decided_at,omitempty"`
	ReminderSentAt  *time.Time     `json:"reminder_sent_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Booking) TableName() string { return "bookings" }

// StageAt derives the lifecycle stage of b at now.
func (b *Booking) StageAt(now time.Time) BookingStage {
	switch b.ApprovalStatus {
	case ApprovalRejected:
		return StageRejected
	case ApprovalApproved:
		if !now.Before(b.EndAt) {
			return StageCompleted
		}
		return StageApproved
	}
	if b.PaymentStatus == PaymentPaid {
		return StagePendingApproval
	}
	return StagePendingPayment
}

// BookedBy reports whether bk made this booking.
func (b *Booking) BookedBy(bk Booker) bool {
	return b.BookerID == bk.ID && b.BookerType == bk.Type
}

// IsActive reports whether the booking still occupies its slot for the booker.
func (b *Booking) IsActive() bool {
	return b.ApprovalStatus == ApprovalPending || b.ApprovalStatus == ApprovalApproved
}

// Overlaps reports whether the half-open ranges [aStart,aEnd) and [bStart,bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// PaymentCode is the stable transfer reference for one booker/talent/slot combination.
type PaymentCode struct {
	ID         int64      `gorm:"primaryKey"`
	BookerID   int64      `gorm:"not null;uniqueIndex:idx_payment_code_slot"`
	BookerType BookerType `gorm:"type:varchar(16);not null;uniqueIndex:idx_payment_code_slot"`
	TalentID   int64      `gorm:"not null;uniqueIndex:idx_payment_code_slot"`
	Date       string     `gorm:"type:varchar(10);not null;uniqueIndex:idx_payment_code_slot"`
	Time       string     `gorm:"type:varchar(5);not null;uniqueIndex:idx_payment_code_slot"`
	Code       string     `gorm:"type:varchar(32);not null;uniqueIndex"`
	CreatedAt  time.Time
}

func (PaymentCode) TableName() string { return "payment_codes" }
