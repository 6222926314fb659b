package repository

import (
	"context"
	"errors"

	"rentmate/internal/domain"

	"gorm.io/gorm"
)

type PaymentCodeRepository struct {
	db *gorm.DB
}

func NewPaymentCodeRepository(db *gorm.DB) *PaymentCodeRepository {
	return &PaymentCodeRepository{db: db}
}

func (r *PaymentCodeRepository) find(ctx context.Context, slot domain.PaymentCode) (*domain.PaymentCode, error) {
	var pc domain.PaymentCode
	err := r.db.WithContext(ctx).
		Where("booker_id = ? AND booker_type = ? AND talent_id = ? AND date = ? AND time = ?",
			slot.BookerID, slot.BookerType, slot.TalentID, slot.Date, slot.Time).
		First(&pc).Error
	if err != nil {
		return nil, err
	}
	return &pc, nil
}

// GetOrCreate returns the code stored for the slot, inserting newCode() when there is none.
// A concurrent insert for the same slot is resolved by re-reading the winner.
func (r *PaymentCodeRepository) GetOrCreate(ctx context.Context, slot domain.PaymentCode, newCode func() string) (*domain.PaymentCode, error) {
	pc, err := r.find(ctx, slot)
	if err == nil {
		return pc, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, translate("get payment code", err)
	}

	const attempts = 3
	for i := 0; i < attempts; i++ {
		created := slot
		created.ID = 0
		created.Code = newCode()
		err = r.db.WithContext(ctx).Create(&created).Error
		if err == nil {
			return &created, nil
		}
		if !isUniqueConstraintError(err) {
			return nil, translate("create payment code", err)
		}
		if pc, ferr := r.find(ctx, slot); ferr == nil {
			return pc, nil
		}
		// Collision on the code itself: retry with a fresh one.
	}
	return nil, translate("create payment code", err)
}

// PurgeBefore deletes codes of slots dated before date that no booking references.
func (r *PaymentCodeRepository) PurgeBefore(ctx context.Context, date string) (int64, error) {
	used := r.db.Model(&domain.Booking{}).Select("payment_code")
	res := r.db.WithContext(ctx).
		Where("date < ? AND code NOT IN (?)", date, used).
		Delete(&domain.PaymentCode{})
	return res.RowsAffected, translate("purge payment codes", res.Error)
}
