package repository

import (
	"context"

	"rentmate/internal/domain"

	"gorm.io/gorm"
)

type BlockedTalentRepository struct {
	db *gorm.DB
}

func NewBlockedTalentRepository(db *gorm.DB) *BlockedTalentRepository {
	return &BlockedTalentRepository{db: db}
}

func (r *BlockedTalentRepository) Block(ctx context.Context, b *domain.BlockedTalent) error {
	return translate("block talent", r.db.WithContext(ctx).Create(b).Error)
}

func (r *BlockedTalentRepository) Unblock(ctx context.Context, talentID int64) error {
	res := r.db.WithContext(ctx).Where("talent_id = ?", talentID).Delete(&domain.BlockedTalent{})
	if res.Error != nil {
		return translate("unblock talent", res.Error)
	}
	if res.RowsAffected == 0 {
		return translate("unblock talent", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *BlockedTalentRepository) List(ctx context.Context) ([]domain.BlockedTalent, error) {
	var out []domain.BlockedTalent
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error
	return out, translate("list blocked talents", err)
}

func (r *BlockedTalentRepository) IsBlocked(ctx context.Context, talentID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.BlockedTalent{}).Where("talent_id = ?", talentID).Count(&n).Error
	if err != nil {
		return false, translate("check blocked talent", err)
	}
	return n > 0, nil
}
