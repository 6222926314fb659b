package repository

import (
	"context"

	"rentmate/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context) (*domain.PlatformSettings, error) {
	var s domain.PlatformSettings
	if err := r.db.WithContext(ctx).First(&s, domain.SettingsRowID).Error; err != nil {
		return nil, translate("get platform settings", err)
	}
	return &s, nil
}

// EnsureDefaults inserts defaults when no settings row exists yet and returns the stored row.
func (r *SettingsRepository) EnsureDefaults(ctx context.Context, defaults *domain.PlatformSettings) (*domain.PlatformSettings, error) {
	defaults.ID = domain.SettingsRowID
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(defaults).Error
	if err != nil {
		return nil, translate("seed platform settings", err)
	}
	return r.Get(ctx)
}

func (r *SettingsRepository) Save(ctx context.Context, s *domain.PlatformSettings) error {
	s.ID = domain.SettingsRowID
	return translate("save platform settings", r.db.WithContext(ctx).Save(s).Error)
}
