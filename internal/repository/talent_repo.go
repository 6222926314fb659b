package repository

import (
	"context"
	"strings"

	"rentmate/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TalentRepository struct {
	db *gorm.DB
}

func NewTalentRepository(db *gorm.DB) *TalentRepository {
	return &TalentRepository{db: db}
}

type TalentFilter struct {
	City         string
	Query        string
	VerifiedOnly bool
	// ExcludeBlocked hides talents listed in blocked_talents.
	ExcludeBlocked bool
}

func (r *TalentRepository) Create(ctx context.Context, t *domain.Talent) error {
	return translate("create talent", r.db.WithContext(ctx).Create(t).Error)
}

func (r *TalentRepository) GetByID(ctx context.Context, id int64) (*domain.Talent, error) {
	var t domain.Talent
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, translate("get talent", err)
	}
	return &t, nil
}

func (r *TalentRepository) List(ctx context.Context, f TalentFilter) ([]domain.Talent, error) {
	q := r.db.WithContext(ctx).Model(&domain.Talent{})
	if f.City != "" {
		q = q.Where("LOWER(city) = ?", strings.ToLower(strings.TrimSpace(f.City)))
	}
	if f.Query != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(f.Query))+"%")
	}
	if f.VerifiedOnly {
		q = q.Where("verified = ?", true)
	}
	if f.ExcludeBlocked {
		q = q.Where("id NOT IN (?)", r.db.Model(&domain.BlockedTalent{}).Select("talent_id"))
	}

	var out []domain.Talent
	err := q.Order("name ASC").Find(&out).Error
	return out, translate("list talents", err)
}

func (r *TalentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Talent{}).Count(&n).Error
	return n, translate("count talents", err)
}

// Upsert writes t keeping its id; used by snapshot import.
func (r *TalentRepository) Upsert(ctx context.Context, t *domain.Talent) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(t).Error
	return translate("upsert talent", err)
}
