package repository

import (
	"context"
	"time"

	"rentmate/internal/domain"

	"gorm.io/gorm"
)

type MitraRepository struct {
	db *gorm.DB
}

func NewMitraRepository(db *gorm.DB) *MitraRepository {
	return &MitraRepository{db: db}
}

// CreateWithTalent inserts the talent first and binds the account to its id.
func (r *MitraRepository) CreateWithTalent(ctx context.Context, m *domain.MitraAccount, t *domain.Talent) error {
	m.Email = normalizeEmail(m.Email)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		m.TalentID = t.ID
		return tx.Create(m).Error
	})
	return translate("create mitra", err)
}

func (r *MitraRepository) GetByID(ctx context.Context, id int64) (*domain.MitraAccount, error) {
	var m domain.MitraAccount
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translate("get mitra", err)
	}
	return &m, nil
}

func (r *MitraRepository) GetByEmail(ctx context.Context, email string) (*domain.MitraAccount, error) {
	var m domain.MitraAccount
	err := r.db.WithContext(ctx).Where("LOWER(email) = ?", normalizeEmail(email)).First(&m).Error
	if err != nil {
		return nil, translate("get mitra by email", err)
	}
	return &m, nil
}

func (r *MitraRepository) GetByTalentID(ctx context.Context, talentID int64) (*domain.MitraAccount, error) {
	var m domain.MitraAccount
	if err := r.db.WithContext(ctx).Where("talent_id = ?", talentID).First(&m).Error; err != nil {
		return nil, translate("get mitra by talent", err)
	}
	return &m, nil
}

func (r *MitraRepository) ListByStatus(ctx context.Context, status domain.MitraStatus) ([]domain.MitraAccount, error) {
	var out []domain.MitraAccount
	err := r.db.WithContext(ctx).Where("status = ?", status).Order("created_at ASC").Find(&out).Error
	return out, translate("list mitras", err)
}

func (r *MitraRepository) CountByStatus(ctx context.Context, status domain.MitraStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.MitraAccount{}).Where("status = ?", status).Count(&n).Error
	return n, translate("count mitras", err)
}

// Verify moves a pending account to verified and marks its talent verified.
func (r *MitraRepository) Verify(ctx context.Context, id, adminID int64, at time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m domain.MitraAccount
		if err := tx.First(&m, id).Error; err != nil {
			return err
		}
		res := tx.Model(&domain.MitraAccount{}).
			Where("id = ? AND status = ?", id, domain.MitraPending).
			Updates(map[string]interface{}{
				"status":          domain.MitraVerified,
				"rejected_reason": "",
				"verified_at":     at,
				"verified_by":     adminID,
				"updated_at":      at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrStaleState
		}
		return tx.Model(&domain.Talent{}).Where("id = ?", m.TalentID).
			Updates(map[string]interface{}{"verified": true, "updated_at": at}).Error
	})
	return translate("verify mitra", err)
}

func (r *MitraRepository) Reject(ctx context.Context, id int64, reason string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.MitraAccount{}).
		Where("id = ? AND status = ?", id, domain.MitraPending).
		Updates(map[string]interface{}{
			"status":          domain.MitraRejected,
			"rejected_reason": reason,
			"updated_at":      at,
		})
	if res.Error != nil {
		return translate("reject mitra", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return translate("reject mitra", domain.ErrStaleState)
	}
	return nil
}

// Claim sets the credentials and profile of an account imported without a
// password. An account that already has a password is left untouched.
func (r *MitraRepository) Claim(ctx context.Context, m *domain.MitraAccount, t *domain.Talent) error {
	at := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.MitraAccount{}).
			Where("id = ? AND password_hash = ?", m.ID, "").
			Updates(map[string]interface{}{
				"password_hash": m.PasswordHash,
				"name":          m.Name,
				"phone":         m.Phone,
				"updated_at":    at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrStaleState
		}
		return tx.Model(&domain.Talent{}).Where("id = ?", m.TalentID).
			Updates(map[string]interface{}{
				"name":           t.Name,
				"city":           t.City,
				"category":       t.Category,
				"price_per_hour": t.PricePerHour,
				"photo_url":      t.PhotoURL,
				"bio":            t.Bio,
				"updated_at":     at,
			}).Error
	})
	return translate("claim mitra", err)
}
