package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentmate/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) GetByID(ctx context.Context, id string) (*domain.ChatSession, error) {
	var s domain.ChatSession
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, translate("get chat session", err)
	}
	return &s, nil
}

func (r *ChatRepository) GetByBookingID(ctx context.Context, bookingID int64) (*domain.ChatSession, error) {
	var s domain.ChatSession
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&s).Error; err != nil {
		return nil, translate("get chat session by booking", err)
	}
	return &s, nil
}

// Create inserts a session and its opening message atomically. When another
// caller created the session for the same booking first, that session is
// returned with created=false.
func (r *ChatRepository) Create(ctx context.Context, s *domain.ChatSession, opening domain.ChatMessage) (*domain.ChatSession, bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Messages").Create(s).Error; err != nil {
			return err
		}
		opening.SessionID = s.ID
		return tx.Create(&opening).Error
	})
	if err == nil {
		return s, true, nil
	}
	if !isUniqueConstraintError(err) {
		return nil, false, translate("create chat session", err)
	}

	existing, gerr := r.GetByBookingID(ctx, s.BookingID)
	if gerr != nil {
		return nil, false, fmt.Errorf("create chat session: re-read after conflict: %w", gerr)
	}
	return existing, false, nil
}

func (r *ChatRepository) ListByBooker(ctx context.Context, bookerID int64, bookerType domain.BookerType) ([]domain.ChatSession, error) {
	var out []domain.ChatSession
	err := r.db.WithContext(ctx).
		Where("booker_id = ? AND booker_type = ?", bookerID, bookerType).
		Order("last_message_at DESC").
		Find(&out).Error
	return out, translate("list booker chat sessions", err)
}

func (r *ChatRepository) ListByTalent(ctx context.Context, talentID int64) ([]domain.ChatSession, error) {
	var out []domain.ChatSession
	err := r.db.WithContext(ctx).
		Where("talent_id = ?", talentID).
		Order("last_message_at DESC").
		Find(&out).Error
	return out, translate("list talent chat sessions", err)
}

// ListAll returns every session with its history; used by snapshot export.
func (r *ChatRepository) ListAll(ctx context.Context) ([]domain.ChatSession, error) {
	var out []domain.ChatSession
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("timestamp ASC, id ASC") }).
		Order("id ASC").
		Find(&out).Error
	return out, translate("list chat sessions", err)
}

func (r *ChatRepository) Messages(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	return r.messages(r.db.WithContext(ctx), sessionID)
}

func (r *ChatRepository) messages(db *gorm.DB, sessionID string) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	err := db.Where("session_id = ?", sessionID).Order("timestamp ASC, id ASC").Find(&out).Error
	return out, translate("list chat messages", err)
}

// callbackError carries an error returned by an Update callback out of the transaction unchanged.
type callbackError struct{ err error }

func (e callbackError) Error() string { return e.err.Error() }

// Update runs fn against the locked session and its history, then persists
// every touched message, the appended ones and the recounted session.
func (r *ChatRepository) Update(ctx context.Context, sessionID string, fn func(*domain.ChatMutation) error) (*domain.ChatMutation, error) {
	var mut *domain.ChatMutation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s domain.ChatSession
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", sessionID).
			First(&s).Error; err != nil {
			return err
		}

		msgs, err := r.messages(tx, sessionID)
		if err != nil {
			return err
		}

		mut = domain.NewChatMutation(&s, msgs)
		if err := fn(mut); err != nil {
			return callbackError{err}
		}

		for _, i := range mut.Changed() {
			m := &mut.Messages[i]
			if m.ID == 0 {
				if err := tx.Create(m).Error; err != nil {
					return err
				}
				continue
			}
			if err := tx.Model(m).Select("status", "read_by_user", "read_by_talent", "read_by_mitra_as_booker").
				Updates(m).Error; err != nil {
				return err
			}
		}

		s.RecountUnread(mut.Messages)
		s.UpdatedAt = time.Now()
		return tx.Omit("Messages").Save(&s).Error
	})
	if err != nil {
		var cbErr callbackError
		if errors.As(err, &cbErr) {
			return nil, cbErr.err
		}
		return nil, translate("update chat session", err)
	}
	return mut, nil
}

// Upsert writes the session and its messages keeping their ids; used by snapshot import.
func (r *ChatRepository) Upsert(ctx context.Context, s *domain.ChatSession) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Messages").Clauses(clause.OnConflict{UpdateAll: true}).Create(s).Error; err != nil {
			return err
		}
		for i := range s.Messages {
			s.Messages[i].SessionID = s.ID
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&s.Messages[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return translate("upsert chat session", err)
}
