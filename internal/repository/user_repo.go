package repository

import (
	"context"
	"strings"

	"rentmate/internal/domain"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	u.Email = normalizeEmail(u.Email)
	return translate("create user", r.db.WithContext(ctx).Create(u).Error)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", normalizeEmail(email)).
		First(&u).Error
	if err != nil {
		return nil, translate("get user by email", err)
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate("get user", err)
	}
	return &u, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("role = ?", domain.RoleUser).Count(&n).Error
	return n, translate("count users", err)
}
