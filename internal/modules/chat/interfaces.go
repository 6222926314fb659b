package chat

import (
	"context"

	"rentmate/internal/domain"
	"rentmate/internal/repository"
)

type SessionRepository interface {
	GetByID(ctx context.Context, id string) (*domain.ChatSession, error)
	GetByBookingID(ctx context.Context, bookingID int64) (*domain.ChatSession, error)
	Create(ctx context.Context, s *domain.ChatSession, opening domain.ChatMessage) (*domain.ChatSession, bool, error)
	ListByBooker(ctx context.Context, bookerID int64, bookerType domain.BookerType) ([]domain.ChatSession, error)
	ListByTalent(ctx context.Context, talentID int64) ([]domain.ChatSession, error)
	Update(ctx context.Context, sessionID string, fn func(*domain.ChatMutation) error) (*domain.ChatMutation, error)
}

type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	List(ctx context.Context, f repository.BookingFilter) ([]domain.Booking, error)
}

type MitraRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.MitraAccount, error)
}
