package repository

import (
	"context"
	"time"

	"rentmate/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// BookingFilter narrows List. Zero values are ignored; dates are inclusive YYYY-MM-DD bounds.
type BookingFilter struct {
	BookerID       int64
	BookerType     domain.BookerType
	TalentID       int64
	ApprovalStatus []domain.ApprovalStatus
	PaymentStatus  domain.PaymentStatus
	DateFrom       string
	DateTo         string
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	return translate("create booking", r.db.WithContext(ctx).Create(b).Error)
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, translate("get booking", err)
	}
	return &b, nil
}

func (r *BookingRepository) List(ctx context.Context, f BookingFilter) ([]domain.Booking, error) {
	q := r.db.WithContext(ctx).Model(&domain.Booking{})
	if f.BookerID != 0 {
		q = q.Where("booker_id = ? AND booker_type = ?", f.BookerID, f.BookerType)
	}
	if f.TalentID != 0 {
		q = q.Where("talent_id = ?", f.TalentID)
	}
	if len(f.ApprovalStatus) > 0 {
		q = q.Where("approval_status IN ?", f.ApprovalStatus)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.DateFrom != "" {
		q = q.Where("date >= ?", f.DateFrom)
	}
	if f.DateTo != "" {
		q = q.Where("date <= ?", f.DateTo)
	}

	var out []domain.Booking
	err := q.Order("created_at DESC").Order("id DESC").Find(&out).Error
	return out, translate("list bookings", err)
}

// MarkPaid records the transfer only while the booking is still awaiting payment.
func (r *BookingRepository) MarkPaid(ctx context.Context, id int64, method domain.PaymentMethod, proof string, amount int64, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.Booking{}).
		Where("id = ? AND approval_status = ? AND payment_status = ?", id, domain.ApprovalPending, domain.PaymentPending).
		Updates(map[string]interface{}{
			"payment_status":  domain.PaymentPaid,
			"payment_method":  method,
			"payment_proof":   proof,
			"transfer_amount": amount,
			"transfer_time":   at,
			"updated_at":      at,
		})
	return r.conditional("mark booking paid", res)
}

// Decide moves a pending booking to approved or rejected. The update only applies
// when payment_status is one of allowedPayment.
func (r *BookingRepository) Decide(ctx context.Context, id int64, to domain.ApprovalStatus, allowedPayment []domain.PaymentStatus, reason string, adminID int64, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.Booking{}).
		Where("id = ? AND approval_status = ? AND payment_status IN ?", id, domain.ApprovalPending, allowedPayment).
		Updates(map[string]interface{}{
			"approval_status":  to,
			"rejection_reason": reason,
			"decided_by":       adminID,
			"decided_at":       at,
			"updated_at":       at,
		})
	return r.conditional("decide booking", res)
}

func (r *BookingRepository) MarkReminderSent(ctx context.Context, id int64, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.Booking{}).
		Where("id = ? AND reminder_sent_at IS NULL", id).
		Update("reminder_sent_at", at)
	return r.conditional("mark reminder sent", res)
}

// Upsert writes b keeping its id; used by snapshot import.
func (r *BookingRepository) Upsert(ctx context.Context, b *domain.Booking) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(b).Error
	return translate("upsert booking", err)
}

func (r *BookingRepository) conditional(op string, res *gorm.DB) error {
	if res.Error != nil {
		return translate(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return translate(op, domain.ErrStaleState)
	}
	return nil
}
