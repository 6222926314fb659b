package auth

import (
	"context"
	"time"

	"rentmate/internal/domain"
	"rentmate/internal/verification"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type MitraRepository interface {
	CreateWithTalent(ctx context.Context, m *domain.MitraAccount, t *domain.Talent) error
	Claim(ctx context.Context, m *domain.MitraAccount, t *domain.Talent) error
	GetByEmail(ctx context.Context, email string) (*domain.MitraAccount, error)
	GetByID(ctx context.Context, id int64) (*domain.MitraAccount, error)
	Verify(ctx context.Context, id, adminID int64, at time.Time) error
	Reject(ctx context.Context, id int64, reason string, at time.Time) error
}

// Backend is the verification backend as seen by registration and login.
type Backend interface {
	RegisterTalent(ctx context.Context, app verification.TalentApplication) error
	Login(ctx context.Context, email, password string) (*verification.LoginResult, error)
}

type jwtService interface {
	GenerateToken(userID int64, role string) (string, error)
	TTL() time.Duration
}
