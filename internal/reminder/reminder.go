// Package reminder mails bookers shortly before their approved bookings start.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"rentmate/internal/domain"
	"rentmate/internal/repository"
	"rentmate/internal/verification"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

type BookingRepository interface {
	List(ctx context.Context, f repository.BookingFilter) ([]domain.Booking, error)
	MarkReminderSent(ctx context.Context, id int64, at time.Time) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type MitraRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.MitraAccount, error)
}

type Sender interface {
	SendReminder(ctx context.Context, n verification.BookingNotice) error
}

type Deps struct {
	Bookings BookingRepository
	Users    UserRepository
	Mitras   MitraRepository
	Sender   Sender
}

// Result summarizes one sweep.
type Result struct {
	Due    int `json:"due"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

type Scheduler struct {
	bookings BookingRepository
	users    UserRepository
	mitras   MitraRepository
	sender   Sender
	lead     time.Duration

	now     func() time.Time
	loggerf func(format string, args ...interface{})
}

func New(d Deps, lead time.Duration) *Scheduler {
	return &Scheduler{
		bookings: d.Bookings,
		users:    d.Users,
		mitras:   d.Mitras,
		sender:   d.Sender,
		lead:     lead,
		now:      time.Now,
		loggerf:  func(string, ...interface{}) {},
	}
}

func (s *Scheduler) SetLogger(loggerf func(format string, args ...interface{})) {
	if loggerf != nil {
		s.loggerf = loggerf
	}
}

// ValidateSpec reports whether spec is a usable 5-field cron expression.
func ValidateSpec(spec string) error {
	if _, err := cronParser.Parse(spec); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	return nil
}

// Start runs RunOnce on spec until ctx is cancelled. The returned channel is
// closed once the last sweep has finished.
func (s *Scheduler) Start(ctx context.Context, spec string) (<-chan struct{}, error) {
	c := cron.New(cron.WithParser(cronParser))
	_, err := c.AddFunc(spec, func() {
		res, err := s.RunOnce(ctx)
		if err != nil {
			s.loggerf("level=error msg=reminder_sweep_failed err=%v", err)
			return
		}
		if res.Due > 0 {
			s.loggerf("level=info msg=reminder_sweep due=%d sent=%d failed=%d", res.Due, res.Sent, res.Failed)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	c.Start()

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		close(done)
	}()
	return done, nil
}

// RunOnce reminds every approved booking starting within the lead window that
// has not been reminded yet. A failed send leaves the booking for the next sweep.
func (s *Scheduler) RunOnce(ctx context.Context) (Result, error) {
	now := s.now().UTC()
	horizon := now.Add(s.lead)

	candidates, err := s.bookings.List(ctx, repository.BookingFilter{
		ApprovalStatus: []domain.ApprovalStatus{domain.ApprovalApproved},
		DateFrom:       now.Add(-24 * time.Hour).Format("2006-01-02"),
		DateTo:         horizon.Add(24 * time.Hour).Format("2006-01-02"),
	})
	if err != nil {
		return Result{}, err
	}

	var res Result
	for i := range candidates {
		b := &candidates[i]
		if b.ReminderSentAt != nil || !b.StartAt.After(now) || b.StartAt.After(horizon) {
			continue
		}
		res.Due++

		if err := s.remind(ctx, b); err != nil {
			res.Failed++
			s.loggerf("level=warn msg=reminder_failed booking_id=%d err=%v", b.ID, err)
			continue
		}
		if err := s.bookings.MarkReminderSent(ctx, b.ID, s.now()); err != nil && !errors.Is(err, domain.ErrStaleState) {
			return res, err
		}
		res.Sent++
	}
	return res, nil
}

func (s *Scheduler) remind(ctx context.Context, b *domain.Booking) error {
	var email, name string
	switch b.BookerType {
	case domain.BookerMitra:
		m, err := s.mitras.GetByID(ctx, b.BookerID)
		if err != nil {
			return err
		}
		email, name = m.Email, m.Name
	default:
		u, err := s.users.GetByID(ctx, b.BookerID)
		if err != nil {
			return err
		}
		email, name = u.Email, u.Name
	}

	return s.sender.SendReminder(ctx, verification.BookingNotice{
		Email:      email,
		Name:       name,
		BookingID:  b.ID,
		TalentName: b.TalentName,
		Date:       b.Date,
		Time:       b.Time,
		Duration:   b.Duration,
		Total:      b.Total,
	})
}
