package admin

import (
	"context"
	"time"

	"rentmate/internal/domain"
	"rentmate/internal/repository"
	"rentmate/internal/verification"
)

type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	List(ctx context.Context, f repository.BookingFilter) ([]domain.Booking, error)
	Decide(ctx context.Context, id int64, to domain.ApprovalStatus, allowedPayment []domain.PaymentStatus, reason string, adminID int64, at time.Time) error
}

// ChatSessions opens the chat of a freshly approved booking.
type ChatSessions interface {
	GetOrCreateChatSession(ctx context.Context, b *domain.Booking) (*domain.ChatSession, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type MitraRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.MitraAccount, error)
	GetByEmail(ctx context.Context, email string) (*domain.MitraAccount, error)
	CreateWithTalent(ctx context.Context, m *domain.MitraAccount, t *domain.Talent) error
	ListByStatus(ctx context.Context, status domain.MitraStatus) ([]domain.MitraAccount, error)
	CountByStatus(ctx context.Context, status domain.MitraStatus) (int64, error)
	Verify(ctx context.Context, id, adminID int64, at time.Time) error
	Reject(ctx context.Context, id int64, reason string, at time.Time) error
}

type TalentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Talent, error)
	Count(ctx context.Context) (int64, error)
}

type SettingsRepository interface {
	Get(ctx context.Context) (*domain.PlatformSettings, error)
	Save(ctx context.Context, s *domain.PlatformSettings) error
}

type BlockedTalentRepository interface {
	Block(ctx context.Context, b *domain.BlockedTalent) error
	Unblock(ctx context.Context, talentID int64) error
	List(ctx context.Context) ([]domain.BlockedTalent, error)
}

type ReportRepository interface {
	Create(ctx context.Context, r *domain.Report) error
	List(ctx context.Context, status domain.ReportStatus) ([]domain.Report, error)
	CountOpen(ctx context.Context) (int64, error)
	Resolve(ctx context.Context, id, adminID int64, note string, at time.Time) (*domain.Report, error)
}

// Backend is the slice of the verification backend the back-office talks to.
type Backend interface {
	SendApproval(ctx context.Context, email, name string) error
	SendConfirmation(ctx context.Context, n verification.BookingNotice) error
	PendingTalents(ctx context.Context) ([]verification.PendingTalent, error)
}
