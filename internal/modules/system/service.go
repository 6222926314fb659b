// Package system exposes health information and the live change stream.
package system

import (
	"context"
	"errors"
	"time"

	"rentmate/internal/domain"
	"rentmate/internal/events"
)

type Backend interface {
	Offline() bool
	Health(ctx context.Context) error
}

type Subscriber interface {
	Subscribe() (<-chan events.Event, func())
	Subscribers() int
}

type MitraRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.MitraAccount, error)
}

// Pinger checks the database connection.
type Pinger func(ctx context.Context) error

type Status struct {
	Status              string    `json:"status"`
	Database            string    `json:"database"`
	VerificationBackend string    `json:"verification_backend"`
	OfflineMode         bool      `json:"offline_mode"`
	StreamSubscribers   int       `json:"stream_subscribers"`
	Time                time.Time `json:"time"`
}

type Service struct {
	ping    Pinger
	backend Backend
	bus     Subscriber
	mitras  MitraRepository
	now     func() time.Time
}

func NewService(ping Pinger, backend Backend, bus Subscriber, mitras MitraRepository) *Service {
	return &Service{ping: ping, backend: backend, bus: bus, mitras: mitras, now: time.Now}
}

// Status probes the database and the verification backend. A failed probe
// degrades the status; only the database being down is reported as an error.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	st := &Status{Status: "ok", Database: "ok", VerificationBackend: "online", Time: s.now().UTC()}

	var dbErr error
	if err := s.ping(ctx); err != nil {
		st.Status = "down"
		st.Database = "unreachable"
		dbErr = err
	}

	if err := s.backend.Health(ctx); err != nil || s.backend.Offline() {
		st.VerificationBackend = "offline"
		st.OfflineMode = true
		if st.Status == "ok" {
			st.Status = "degraded"
		}
	}
	st.StreamSubscribers = s.bus.Subscribers()
	return st, dbErr
}

// Viewer is a stream consumer with the talent it manages, if any.
type Viewer struct {
	Actor    domain.Actor
	TalentID int64
}

func (s *Service) Viewer(ctx context.Context, actor domain.Actor) (Viewer, error) {
	v := Viewer{Actor: actor}
	if actor.Role != domain.RoleMitra {
		return v, nil
	}
	m, err := s.mitras.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return v, nil
		}
		return v, err
	}
	v.TalentID = m.TalentID
	return v, nil
}

// Visible reports whether e concerns the viewer. Admins see everything and
// settings changes are broadcast to all.
func (v Viewer) Visible(e events.Event) bool {
	if v.Actor.Role == domain.RoleAdmin || e.Kind == events.SettingsUpdated {
		return true
	}
	if booker, ok := v.Actor.Booker(); ok && e.BookerID == booker.ID && e.BookerType == booker.Type {
		return true
	}
	if v.Actor.Role == domain.RoleMitra {
		if v.TalentID != 0 && e.TalentID == v.TalentID {
			return true
		}
		if e.MitraID == v.Actor.ID {
			return true
		}
	}
	return false
}
