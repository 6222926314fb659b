package booking

import (
	"context"
	"time"

	"rentmate/internal/domain"
	"rentmate/internal/repository"
)

type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	List(ctx context.Context, f repository.BookingFilter) ([]domain.Booking, error)
	MarkPaid(ctx context.Context, id int64, method domain.PaymentMethod, proof string, amount int64, at time.Time) error
}

type TalentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Talent, error)
}

type PaymentCodeRepository interface {
	GetOrCreate(ctx context.Context, slot domain.PaymentCode, newCode func() string) (*domain.PaymentCode, error)
}

type BlockList interface {
	IsBlocked(ctx context.Context, talentID int64) (bool, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type MitraRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.MitraAccount, error)
}

type SettingsRepository interface {
	Get(ctx context.Context) (*domain.PlatformSettings, error)
}
