// Package snapshot moves marketplace data between databases as one JSON document.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"

	"rentmate/internal/domain"
	"rentmate/internal/repository"
)

// Version is bumped whenever the document layout changes incompatibly.
const Version = 1

var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

type Snapshot struct {
	Version      int                      `json:"version"`
	ExportedAt   time.Time                `json:"exported_at"`
	Settings     *domain.PlatformSettings `json:"settings,omitempty"`
	Talents      []domain.Talent          `json:"talents"`
	Bookings     []domain.Booking         `json:"bookings"`
	ChatSessions []domain.ChatSession     `json:"chat_sessions"`
}

// Counts reports how many records a snapshot holds.
type Counts struct {
	Talents      int `json:"talents"`
	Bookings     int `json:"bookings"`
	ChatSessions int `json:"chat_sessions"`
	ChatMessages int `json:"chat_messages"`
}

func (s *Snapshot) Counts() Counts {
	c := Counts{Talents: len(s.Talents), Bookings: len(s.Bookings), ChatSessions: len(s.ChatSessions)}
	for _, cs := range s.ChatSessions {
		c.ChatMessages += len(cs.Messages)
	}
	return c
}

// Export reads every talent, booking and chat session with its history.
func Export(ctx context.Context, db *gorm.DB, now time.Time) (*Snapshot, error) {
	snap := &Snapshot{Version: Version, ExportedAt: now.UTC()}

	settings, err := repository.NewSettingsRepository(db).Get(ctx)
	switch {
	case err == nil:
		snap.Settings = settings
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	if snap.Talents, err = repository.NewTalentRepository(db).List(ctx, repository.TalentFilter{}); err != nil {
		return nil, err
	}
	if snap.Bookings, err = repository.NewBookingRepository(db).List(ctx, repository.BookingFilter{}); err != nil {
		return nil, err
	}
	if snap.ChatSessions, err = repository.NewChatRepository(db).ListAll(ctx); err != nil {
		return nil, err
	}
	return snap, nil
}

// Import upserts the snapshot in one transaction, keeping every id.
func Import(ctx context.Context, db *gorm.DB, snap *Snapshot) error {
	if snap.Version != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, snap.Version)
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if snap.Settings != nil {
			if err := repository.NewSettingsRepository(tx).Save(ctx, snap.Settings); err != nil {
				return err
			}
		}

		talents := repository.NewTalentRepository(tx)
		for i := range snap.Talents {
			if err := talents.Upsert(ctx, &snap.Talents[i]); err != nil {
				return err
			}
		}

		bookings := repository.NewBookingRepository(tx)
		for i := range snap.Bookings {
			if err := bookings.Upsert(ctx, &snap.Bookings[i]); err != nil {
				return err
			}
		}

		chats := repository.NewChatRepository(tx)
		for i := range snap.ChatSessions {
			if err := chats.Upsert(ctx, &snap.ChatSessions[i]); err != nil {
				return err
			}
		}

		if tx.Dialector.Name() == "postgres" {
			return resetSequences(tx)
		}
		return nil
	})
}

// resetSequences moves postgres id sequences past the imported ids.
func resetSequences(tx *gorm.DB) error {
	for _, table := range []string{"talents", "bookings", "chat_messages"} {
		q := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM %s", table, table)
		if err := tx.Exec(q).Error; err != nil {
			return fmt.Errorf("reset %s sequence: %w", table, err)
		}
	}
	return nil
}

func Write(w io.Writer, snap *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

func Read(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
