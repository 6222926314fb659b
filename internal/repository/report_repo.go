package repository

import (
	"context"
	"time"

	"rentmate/internal/domain"

	"gorm.io/gorm"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, rep *domain.Report) error {
	return translate("create report", r.db.WithContext(ctx).Create(rep).Error)
}

func (r *ReportRepository) List(ctx context.Context, status domain.ReportStatus) ([]domain.Report, error) {
	q := r.db.WithContext(ctx).Model(&domain.Report{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []domain.Report
	err := q.Order("created_at DESC").Find(&out).Error
	return out, translate("list reports", err)
}

func (r *ReportRepository) CountOpen(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Report{}).Where("status = ?", domain.ReportOpen).Count(&n).Error
	return n, translate("count reports", err)
}

func (r *ReportRepository) Resolve(ctx context.Context, id, adminID int64, note string, at time.Time) (*domain.Report, error) {
	res := r.db.WithContext(ctx).Model(&domain.Report{}).
		Where("id = ? AND status = ?", id, domain.ReportOpen).
		Updates(map[string]interface{}{
			"status":          domain.ReportResolved,
			"resolution_note": note,
			"resolved_by":     adminID,
			"resolved_at":     at,
		})
	if res.Error != nil {
		return nil, translate("resolve report", res.Error)
	}

	var rep domain.Report
	if err := r.db.WithContext(ctx).First(&rep, id).Error; err != nil {
		return nil, translate("resolve report", err)
	}
	if res.RowsAffected == 0 {
		return &rep, translate("resolve report", domain.ErrStaleState)
	}
	return &rep, nil
}
