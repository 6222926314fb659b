package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"rentmate/internal/domain"
	"rentmate/internal/events"
	"rentmate/internal/notify"
	"rentmate/internal/repository"
)

const (
	MinDurationHours = 1
	MaxDurationHours = 24

	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

type Deps struct {
	Bookings     BookingRepository
	Talents      TalentRepository
	PaymentCodes PaymentCodeRepository
	Blocked      BlockList
	Users        UserRepository
	Mitras       MitraRepository
	Settings     SettingsRepository
	Events       events.Publisher
	Notifier     notify.Notifier
}

type Config struct {
	Location      *time.Location
	MaxProofBytes int
}

type Service struct {
	bookings BookingRepository
	talents  TalentRepository
	codes    PaymentCodeRepository
	blocked  BlockList
	users    UserRepository
	mitras   MitraRepository
	settings SettingsRepository
	events   events.Publisher
	notifier notify.Notifier

	loc      *time.Location
	maxProof int
	now      func() time.Time
	newCode  func() string
	loggerf  func(format string, args ...interface{})
}

func NewService(d Deps, cfg Config) *Service {
	s := &Service{
		bookings: d.Bookings,
		talents:  d.Talents,
		codes:    d.PaymentCodes,
		blocked:  d.Blocked,
		users:    d.Users,
		mitras:   d.Mitras,
		settings: d.Settings,
		events:   d.Events,
		notifier: d.Notifier,
		loc:      cfg.Location,
		maxProof: cfg.MaxProofBytes,
		now:      time.Now,
		newCode:  newPaymentCode,
		loggerf:  func(string, ...interface{}) {},
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	if s.notifier == nil {
		s.notifier = notify.Nop{}
	}
	return s
}

// SetLogger enables logging of best-effort side effects.
func (s *Service) SetLogger(loggerf func(format string, args ...interface{})) {
	if loggerf != nil {
		s.loggerf = loggerf
	}
}

func newPaymentCode() string {
	return "RM" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Quote prices a draft booking; nothing is persisted.
func (s *Service) Quote(ctx context.Context, talentID int64, duration int) (*Quote, error) {
	if duration < MinDurationHours || duration > MaxDurationHours {
		return nil, ErrValidation
	}
	t, err := s.talent(ctx, talentID)
	if err != nil {
		return nil, err
	}
	return &Quote{
		TalentID:     t.ID,
		Duration:     duration,
		PricePerHour: t.PricePerHour,
		Total:        int64(duration) * t.PricePerHour,
	}, nil
}

func (s *Service) CreateBooking(ctx context.Context, booker domain.Booker, req CreateBookingRequest) (*View, error) {
	if req.Duration < MinDurationHours || req.Duration > MaxDurationHours {
		return nil, ErrValidation
	}
	if req.Type != domain.BookingOnline && req.Type != domain.BookingOffline {
		return nil, ErrValidation
	}
	start, err := s.parseSlot(req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	end := start.Add(time.Duration(req.Duration) * time.Hour)
	now := s.now()
	if !start.After(now) {
		return nil, ErrStartInPast
	}

	t, err := s.talent(ctx, req.TalentID)
	if err != nil {
		return nil, err
	}
	if !t.Verified {
		return nil, ErrTalentUnavailable
	}
	blocked, err := s.blocked.IsBlocked(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrTalentUnavailable
	}

	name, avatar, err := s.bookerProfile(ctx, booker, t.ID)
	if err != nil {
		return nil, err
	}

	if err := s.checkOverlap(ctx, booker, t.ID, start, end); err != nil {
		return nil, err
	}

	code, err := s.codes.GetOrCreate(ctx, domain.PaymentCode{
		BookerID:   booker.ID,
		BookerType: booker.Type,
		TalentID:   t.ID,
		Date:       req.Date,
		Time:       req.Time,
	}, s.newCode)
	if err != nil {
		return nil, err
	}

	b := &domain.Booking{
		BookerID:       booker.ID,
		BookerType:     booker.Type,
		TalentID:       t.ID,
		BookerName:     name,
		BookerAvatar:   avatar,
		TalentName:     t.Name,
		TalentPhoto:    t.PhotoURL,
		Date:           req.Date,
		Time:           req.Time,
		Duration:       req.Duration,
		StartAt:        start.UTC(),
		EndAt:          end.UTC(),
		Purpose:        strings.TrimSpace(req.Purpose),
		Type:           req.Type,
		Total:          int64(req.Duration) * t.PricePerHour,
		PaymentStatus:  domain.PaymentPending,
		PaymentCode:    code.Code,
		ApprovalStatus: domain.ApprovalPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}

	s.events.Publish(ctx, bookingEvent(events.BookingCreated, b))
	return s.view(ctx, b)
}

// GetOrCreatePaymentCode returns the transfer reference for the booker's slot.
func (s *Service) GetOrCreatePaymentCode(ctx context.Context, booker domain.Booker, talentID int64, date, clock string) (string, error) {
	if talentID <= 0 {
		return "", ErrValidation
	}
	if _, err := s.parseSlot(date, clock); err != nil {
		return "", err
	}
	code, err := s.codes.GetOrCreate(ctx, domain.PaymentCode{
		BookerID:   booker.ID,
		BookerType: booker.Type,
		TalentID:   talentID,
		Date:       date,
		Time:       clock,
	}, s.newCode)
	if err != nil {
		return "", err
	}
	return code.Code, nil
}

// ConfirmPayment records the booker's transfer and hands the booking to admin review.
func (s *Service) ConfirmPayment(ctx context.Context, booker domain.Booker, bookingID int64, req ConfirmPaymentRequest) (*View, error) {
	b, err := s.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.BookedBy(booker) {
		return nil, ErrForbidden
	}
	if b.StageAt(s.now()) != domain.StagePendingPayment {
		return nil, ErrInvalidStatusTransition
	}

	method := domain.PaymentMethod(strings.ToLower(strings.TrimSpace(string(req.Method))))
	if method == "" {
		return nil, ErrPaymentMethodRequired
	}
	if !domain.ValidPaymentMethod(method) {
		return nil, ErrInvalidPaymentMethod
	}

	proof := strings.TrimSpace(req.Proof)
	if proof == "" && method != domain.PaymentQRIS {
		return nil, ErrPaymentProofRequired
	}
	if proof != "" {
		if err := ValidateProof(proof, s.maxProof); err != nil {
			return nil, err
		}
	}

	amount := b.Total
	if req.TransferAmount != nil {
		amount = *req.TransferAmount
	}
	if amount <= 0 {
		return nil, ErrValidation
	}

	now := s.now()
	if err := s.bookings.MarkPaid(ctx, b.ID, method, proof, amount, now); err != nil {
		if errors.Is(err, domain.ErrStaleState) {
			return nil, ErrInvalidStatusTransition
		}
		return nil, err
	}

	b, err = s.get(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, bookingEvent(events.BookingPaymentConfirmed, b))
	text := fmt.Sprintf("Booking #%d paid via %s: %s booked %s on %s %s (Rp %d). Waiting for approval.",
		b.ID, strings.ToUpper(string(method)), b.BookerName, b.TalentName, b.Date, b.Time, amount)
	if err := s.notifier.Notify(ctx, text); err != nil {
		s.loggerf("level=warn msg=admin_notify_failed booking_id=%d err=%v", b.ID, err)
	}

	return s.view(ctx, b)
}

// GetBooking returns a booking visible to actor: its booker, the mitra of its talent, or an admin.
func (s *Service) GetBooking(ctx context.Context, actor domain.Actor, id int64) (*View, error) {
	b, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.canView(ctx, actor, b)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}
	return s.view(ctx, b)
}

func (s *Service) ListMyBookings(ctx context.Context, booker domain.Booker) ([]View, error) {
	list, err := s.bookings.List(ctx, repository.BookingFilter{BookerID: booker.ID, BookerType: booker.Type})
	if err != nil {
		return nil, err
	}
	return s.views(ctx, list)
}

// ListTalentBookings lists the bookings of the talent owned by mitraID.
func (s *Service) ListTalentBookings(ctx context.Context, mitraID int64) ([]View, error) {
	m, err := s.mitras.GetByID(ctx, mitraID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	list, err := s.bookings.List(ctx, repository.BookingFilter{TalentID: m.TalentID})
	if err != nil {
		return nil, err
	}
	return s.views(ctx, list)
}

// Availability lists the approved bookings of talentID that intersect date.
func (s *Service) Availability(ctx context.Context, talentID int64, date string) ([]Slot, error) {
	dayStart, err := s.parseSlot(date, "00:00")
	if err != nil {
		return nil, err
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	approved, err := s.approvedAround(ctx, talentID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	slots := make([]Slot, 0, len(approved))
	for _, b := range approved {
		slots = append(slots, Slot{
			BookingID: b.ID,
			Date:      b.Date,
			Time:      b.Time,
			Duration:  b.Duration,
			StartAt:   b.StartAt,
			EndAt:     b.EndAt,
		})
	}
	return slots, nil
}

// IsSlotBooked reports whether any approved booking of talentID overlaps the slot by at least a minute.
func (s *Service) IsSlotBooked(ctx context.Context, talentID int64, date, clock string, duration int) (bool, error) {
	if duration < MinDurationHours || duration > MaxDurationHours {
		return false, ErrValidation
	}
	start, err := s.parseSlot(date, clock)
	if err != nil {
		return false, err
	}
	approved, err := s.approvedAround(ctx, talentID, start, start.Add(time.Duration(duration)*time.Hour))
	if err != nil {
		return false, err
	}
	return len(approved) > 0, nil
}

func (s *Service) approvedAround(ctx context.Context, talentID int64, start, end time.Time) ([]domain.Booking, error) {
	candidates, err := s.bookings.List(ctx, repository.BookingFilter{
		TalentID:       talentID,
		ApprovalStatus: []domain.ApprovalStatus{domain.ApprovalApproved},
		DateFrom:       start.Add(-MaxDurationHours * time.Hour).In(s.loc).Format(dateLayout),
		DateTo:         end.In(s.loc).Format(dateLayout),
	})
	if err != nil {
		return nil, err
	}
	var out []domain.Booking
	for _, b := range candidates {
		if domain.Overlaps(start, end, b.StartAt, b.EndAt) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Service) checkOverlap(ctx context.Context, booker domain.Booker, talentID int64, start, end time.Time) error {
	candidates, err := s.bookings.List(ctx, repository.BookingFilter{
		TalentID:       talentID,
		ApprovalStatus: []domain.ApprovalStatus{domain.ApprovalPending, domain.ApprovalApproved},
		DateFrom:       start.Add(-MaxDurationHours * time.Hour).In(s.loc).Format(dateLayout),
		DateTo:         end.In(s.loc).Format(dateLayout),
	})
	if err != nil {
		return err
	}
	for _, b := range candidates {
		if !domain.Overlaps(start, end, b.StartAt, b.EndAt) {
			continue
		}
		if b.ApprovalStatus == domain.ApprovalApproved {
			return ErrSlotBooked
		}
		if b.BookedBy(booker) {
			return ErrDuplicateBooking
		}
	}
	return nil
}

func (s *Service) parseSlot(date, clock string) (time.Time, error) {
	t, err := time.ParseInLocation(dateTimeLayout, strings.TrimSpace(date)+" "+strings.TrimSpace(clock), s.loc)
	if err != nil {
		return time.Time{}, ErrValidation
	}
	return t, nil
}

func (s *Service) talent(ctx context.Context, id int64) (*domain.Talent, error) {
	t, err := s.talents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrTalentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *Service) get(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *Service) bookerProfile(ctx context.Context, booker domain.Booker, talentID int64) (string, string, error) {
	switch booker.Type {
	case domain.BookerUser:
		u, err := s.users.GetByID(ctx, booker.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return "", "", ErrForbidden
			}
			return "", "", err
		}
		return u.Name, u.AvatarURL, nil
	case domain.BookerMitra:
		m, err := s.mitras.GetByID(ctx, booker.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return "", "", ErrForbidden
			}
			return "", "", err
		}
		if m.TalentID == talentID {
			return "", "", ErrSelfBooking
		}
		return m.Name, "", nil
	}
	return "", "", ErrForbidden
}

func (s *Service) canView(ctx context.Context, actor domain.Actor, b *domain.Booking) (bool, error) {
	if actor.Role == domain.RoleAdmin {
		return true, nil
	}
	if bk, ok := actor.Booker(); ok && b.BookedBy(bk) {
		return true, nil
	}
	if actor.Role == domain.RoleMitra {
		m, err := s.mitras.GetByID(ctx, actor.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		return m.TalentID == b.TalentID, nil
	}
	return false, nil
}

func (s *Service) view(ctx context.Context, b *domain.Booking) (*View, error) {
	list, err := s.views(ctx, []domain.Booking{*b})
	if err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (s *Service) views(ctx context.Context, list []domain.Booking) ([]View, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load commission: %w", err)
	}
	now := s.now()
	out := make([]View, 0, len(list))
	for _, b := range list {
		v, err := NewView(b, settings.CommissionPercent, now)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// NewView derives the stage and the payment split under the current commission.
func NewView(b domain.Booking, commissionPercent int, now time.Time) (View, error) {
	split, err := domain.CalculatePaymentSplit(b.Total, commissionPercent)
	if err != nil {
		return View{}, err
	}
	return View{Booking: b, Stage: b.StageAt(now), PaymentSplit: &split}, nil
}

func bookingEvent(kind events.Kind, b *domain.Booking) events.Event {
	return events.Event{
		Kind:       kind,
		BookingID:  b.ID,
		TalentID:   b.TalentID,
		BookerID:   b.BookerID,
		BookerType: b.BookerType,
	}
}
