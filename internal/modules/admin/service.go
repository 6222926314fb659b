package admin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"rentmate/internal/domain"
	"rentmate/internal/events"
	"rentmate/internal/modules/booking"
	"rentmate/internal/repository"
	"rentmate/internal/verification"
)

// RefundNotice is appended to every rejection so the booker knows the transfer is returned by hand.
const RefundNotice = "If you already transferred, our team will refund the payment manually within 3 business days."

type Deps struct {
	Bookings BookingRepository
	Chats    ChatSessions
	Users    UserRepository
	Mitras   MitraRepository
	Talents  TalentRepository
	Settings SettingsRepository
	Blocked  BlockedTalentRepository
	Reports  ReportRepository
	Backend  Backend
	Events   events.Publisher
}

type Service struct {
	bookings BookingRepository
	chats    ChatSessions
	users    UserRepository
	mitras   MitraRepository
	talents  TalentRepository
	settings SettingsRepository
	blocked  BlockedTalentRepository
	reports  ReportRepository
	backend  Backend
	events   events.Publisher

	now     func() time.Time
	loggerf func(format string, args ...interface{})
}

func NewService(d Deps) *Service {
	pub := d.Events
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		bookings: d.Bookings,
		chats:    d.Chats,
		users:    d.Users,
		mitras:   d.Mitras,
		talents:  d.Talents,
		settings: d.Settings,
		blocked:  d.Blocked,
		reports:  d.Reports,
		backend:  d.Backend,
		events:   pub,
		now:      time.Now,
		loggerf:  func(string, ...interface{}) {},
	}
}

func (s *Service) SetLogger(loggerf func(format string, args ...interface{})) {
	if loggerf != nil {
		s.loggerf = loggerf
	}
}

// -------------------- Bookings --------------------

// ListBookings returns bookings, optionally narrowed to one derived stage.
func (s *Service) ListBookings(ctx context.Context, stage domain.BookingStage) ([]booking.View, error) {
	f := repository.BookingFilter{}
	switch stage {
	case "":
	case domain.StagePendingPayment:
		f.ApprovalStatus = []domain.ApprovalStatus{domain.ApprovalPending}
		f.PaymentStatus = domain.PaymentPending
	case domain.StagePendingApproval:
		f.ApprovalStatus = []domain.ApprovalStatus{domain.ApprovalPending}
		f.PaymentStatus = domain.PaymentPaid
	case domain.StageApproved, domain.StageCompleted:
		f.ApprovalStatus = []domain.ApprovalStatus{domain.ApprovalApproved}
	case domain.StageRejected:
		f.ApprovalStatus = []domain.ApprovalStatus{domain.ApprovalRejected}
	default:
		return nil, ErrValidation
	}

	list, err := s.bookings.List(ctx, f)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, list)
	if err != nil {
		return nil, err
	}
	if stage == "" {
		return views, nil
	}

	out := views[:0]
	for _, v := range views {
		if v.Stage == stage {
			out = append(out, v)
		}
	}
	return out, nil
}

// ApproveBooking approves a paid booking, opens its chat and confirms to the booker by email.
// Only bookings in pending_approval with payment_status paid qualify; an unpaid
// booking returns ErrInvalidStatusTransition. A chat that fails to open here is
// created lazily on first read, so the decision comes back without a session.
func (s *Service) ApproveBooking(ctx context.Context, adminID, bookingID int64) (*Decision, error) {
	if _, err := s.getBooking(ctx, bookingID); err != nil {
		return nil, err
	}

	err := s.bookings.Decide(ctx, bookingID, domain.ApprovalApproved,
		[]domain.PaymentStatus{domain.PaymentPaid}, "", adminID, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrStaleState) {
			return nil, ErrInvalidStatusTransition
		}
		return nil, err
	}

	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, bookingEvent(events.BookingApproved, b))
	s.loggerf("level=info msg=booking_approved booking_id=%d admin_id=%d", b.ID, adminID)

	session, err := s.chats.GetOrCreateChatSession(ctx, b)
	if err != nil {
		s.loggerf("level=warn msg=chat_open_failed booking_id=%d err=%v", b.ID, err)
		session = nil
	}

	s.sendConfirmation(ctx, b)

	v, err := s.view(ctx, b)
	if err != nil {
		return nil, err
	}
	return &Decision{Booking: *v, Session: session}, nil
}

func (s *Service) sendConfirmation(ctx context.Context, b *domain.Booking) {
	email, name, err := s.bookerContact(ctx, b)
	if err != nil {
		s.loggerf("level=warn msg=booker_contact_failed booking_id=%d err=%v", b.ID, err)
		return
	}
	err = s.backend.SendConfirmation(ctx, verification.BookingNotice{
		Email:      email,
		Name:       name,
		BookingID:  b.ID,
		TalentName: b.TalentName,
		Date:       b.Date,
		Time:       b.Time,
		Duration:   b.Duration,
		Total:      b.Total,
	})
	if err != nil {
		s.loggerf("level=warn msg=confirmation_email_failed booking_id=%d err=%v", b.ID, err)
	}
}

func (s *Service) bookerContact(ctx context.Context, b *domain.Booking) (string, string, error) {
	if b.BookerType == domain.BookerMitra {
		m, err := s.mitras.GetByID(ctx, b.BookerID)
		if err != nil {
			return "", "", err
		}
		return m.Email, m.Name, nil
	}
	u, err := s.users.GetByID(ctx, b.BookerID)
	if err != nil {
		return "", "", err
	}
	return u.Email, u.Name, nil
}

// RejectBooking rejects a booking awaiting payment or approval.
func (s *Service) RejectBooking(ctx context.Context, adminID, bookingID int64, reason string) (*Decision, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if _, err := s.getBooking(ctx, bookingID); err != nil {
		return nil, err
	}

	err := s.bookings.Decide(ctx, bookingID, domain.ApprovalRejected,
		[]domain.PaymentStatus{domain.PaymentPending, domain.PaymentPaid}, reason, adminID, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrStaleState) {
			return nil, ErrInvalidStatusTransition
		}
		return nil, err
	}

	b, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	s.events.Publish(ctx, bookingEvent(events.BookingRejected, b))
	s.loggerf("level=info msg=booking_rejected booking_id=%d admin_id=%d", b.ID, adminID)

	v, err := s.view(ctx, b)
	if err != nil {
		return nil, err
	}
	notice := fmt.Sprintf("Booking #%d was rejected: %s. %s", b.ID, reason, RefundNotice)
	return &Decision{Booking: *v, Notice: notice}, nil
}

// -------------------- Revenue --------------------

// RevenueReport sums approved bookings dated within [from, to]; empty bounds are open.
func (s *Service) RevenueReport(ctx context.Context, from, to string) (*RevenueReport, error) {
	if err := validRange(from, to); err != nil {
		return nil, err
	}

	list, err := s.bookings.List(ctx, repository.BookingFilter{
		ApprovalStatus: []domain.ApprovalStatus{domain.ApprovalApproved},
		DateFrom:       from,
		DateTo:         to,
	})
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	report := &RevenueReport{
		From:              from,
		To:                to,
		CommissionPercent: settings.CommissionPercent,
		ByTalent:          []TalentRevenue{},
		Bookings:          make([]booking.View, 0, len(list)),
	}
	byTalent := map[int64]*TalentRevenue{}
	now := s.now()
	for _, b := range list {
		v, err := booking.NewView(b, settings.CommissionPercent, now)
		if err != nil {
			return nil, err
		}
		report.Bookings = append(report.Bookings, v)
		report.Totals.add(*v.PaymentSplit)

		tr, ok := byTalent[b.TalentID]
		if !ok {
			tr = &TalentRevenue{TalentID: b.TalentID, TalentName: b.TalentName}
			byTalent[b.TalentID] = tr
		}
		tr.add(*v.PaymentSplit)
	}

	for _, tr := range byTalent {
		report.ByTalent = append(report.ByTalent, *tr)
	}
	sort.Slice(report.ByTalent, func(i, j int) bool {
		if report.ByTalent[i].Total != report.ByTalent[j].Total {
			return report.ByTalent[i].Total > report.ByTalent[j].Total
		}
		return report.ByTalent[i].TalentID < report.ByTalent[j].TalentID
	})
	return report, nil
}

func validRange(from, to string) error {
	var f, t time.Time
	var err error
	if from != "" {
		if f, err = time.Parse("2006-01-02", from); err != nil {
			return ErrInvalidDateRange
		}
	}
	if to != "" {
		if t, err = time.Parse("2006-01-02", to); err != nil {
			return ErrInvalidDateRange
		}
	}
	if from != "" && to != "" && t.Before(f) {
		return ErrInvalidDateRange
	}
	return nil
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	all, err := s.bookings.List(ctx, repository.BookingFilter{})
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		BookingsByStage: map[domain.BookingStage]int{
			domain.StagePendingPayment:  0,
			domain.StagePendingApproval: 0,
			domain.StageApproved:        0,
			domain.StageCompleted:       0,
			domain.StageRejected:        0,
		},
		CommissionPercent: settings.CommissionPercent,
	}
	now := s.now()
	for i := range all {
		b := &all[i]
		d.BookingsByStage[b.StageAt(now)]++
		if b.ApprovalStatus != domain.ApprovalApproved {
			continue
		}
		split, err := domain.CalculatePaymentSplit(b.Total, settings.CommissionPercent)
		if err != nil {
			return nil, err
		}
		d.Revenue.add(split)
	}

	if d.Talents, err = s.talents.Count(ctx); err != nil {
		return nil, err
	}
	if d.PendingMitras, err = s.mitras.CountByStatus(ctx, domain.MitraPending); err != nil {
		return nil, err
	}
	if d.OpenReports, err = s.reports.CountOpen(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// -------------------- Mitras --------------------

func (s *Service) ListPendingMitras(ctx context.Context) ([]domain.MitraAccount, error) {
	return s.mitras.ListByStatus(ctx, domain.MitraPending)
}

// ApproveMitra verifies the account and its talent, then tells the mitra by email.
func (s *Service) ApproveMitra(ctx context.Context, adminID, mitraID int64) (*domain.MitraAccount, error) {
	if err := s.mitras.Verify(ctx, mitraID, adminID, s.now()); err != nil {
		return nil, mapMitraErr(err)
	}
	m, err := s.mitras.GetByID(ctx, mitraID)
	if err != nil {
		return nil, mapMitraErr(err)
	}

	if err := s.backend.SendApproval(ctx, m.Email, m.Name); err != nil {
		s.loggerf("level=warn msg=approval_email_failed mitra_id=%d err=%v", m.ID, err)
	}
	s.events.Publish(ctx, events.Event{Kind: events.MitraUpdated, MitraID: m.ID, TalentID: m.TalentID})
	return m, nil
}

func (s *Service) RejectMitra(ctx context.Context, mitraID int64, reason string) (*domain.MitraAccount, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if err := s.mitras.Reject(ctx, mitraID, reason, s.now()); err != nil {
		return nil, mapMitraErr(err)
	}
	m, err := s.mitras.GetByID(ctx, mitraID)
	if err != nil {
		return nil, mapMitraErr(err)
	}
	s.events.Publish(ctx, events.Event{Kind: events.MitraUpdated, MitraID: m.ID, TalentID: m.TalentID})
	return m, nil
}

// SyncPendingMitras imports applications known only to the verification backend.
// Imported accounts carry no password; the applicant sets one by registering again.
func (s *Service) SyncPendingMitras(ctx context.Context) (*SyncResult, error) {
	pending, err := s.backend.PendingTalents(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch pending talents: %w", err)
	}

	res := &SyncResult{Fetched: len(pending)}
	for _, p := range pending {
		email := strings.ToLower(strings.TrimSpace(p.Email))
		if email == "" {
			continue
		}
		_, err := s.mitras.GetByEmail(ctx, email)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}

		m := &domain.MitraAccount{Email: email, Name: p.Name, Phone: p.Phone, Status: domain.MitraPending}
		t := &domain.Talent{Name: p.Name, City: p.City, PricePerHour: p.PricePerHour}
		if err := s.mitras.CreateWithTalent(ctx, m, t); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return nil, err
		}
		res.Imported++
		s.events.Publish(ctx, events.Event{Kind: events.MitraUpdated, MitraID: m.ID, TalentID: t.ID})
	}
	s.loggerf("level=info msg=pending_mitras_synced fetched=%d imported=%d", res.Fetched, res.Imported)
	return res, nil
}

func mapMitraErr(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return ErrMitraNotFound
	case errors.Is(err, domain.ErrStaleState):
		return ErrMitraNotPending
	}
	return err
}

// -------------------- Settings --------------------

func (s *Service) GetSettings(ctx context.Context) (*domain.PlatformSettings, error) {
	return s.settings.Get(ctx)
}

func (s *Service) UpdateCommission(ctx context.Context, adminID int64, pct int) (*domain.PlatformSettings, error) {
	if pct < 0 || pct > 100 {
		return nil, ErrInvalidCommission
	}
	return s.updateSettings(ctx, adminID, func(ps *domain.PlatformSettings) error {
		ps.CommissionPercent = pct
		return nil
	})
}

// UpdateCities replaces the city list, dropping blanks and case-insensitive duplicates.
func (s *Service) UpdateCities(ctx context.Context, adminID int64, cities []string) (*domain.PlatformSettings, error) {
	seen := map[string]struct{}{}
	clean := make([]string, 0, len(cities))
	for _, c := range cities {
		c = strings.TrimSpace(c)
		key := strings.ToLower(c)
		if c == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		clean = append(clean, c)
	}
	if len(clean) == 0 {
		return nil, ErrValidation
	}
	return s.updateSettings(ctx, adminID, func(ps *domain.PlatformSettings) error {
		ps.Cities = clean
		return nil
	})
}

// UpdatePaymentSettings replaces the bank accounts and/or the QRIS details.
func (s *Service) UpdatePaymentSettings(ctx context.Context, adminID int64, req PaymentSettingsRequest) (*domain.PlatformSettings, error) {
	if req.BankAccounts == nil && req.QRIS == nil {
		return nil, ErrValidation
	}
	accounts := make([]domain.BankAccount, 0, len(req.BankAccounts))
	for _, a := range req.BankAccounts {
		a.Bank = domain.PaymentMethod(strings.ToLower(strings.TrimSpace(string(a.Bank))))
		a.AccountNumber = strings.TrimSpace(a.AccountNumber)
		if !domain.ValidPaymentMethod(a.Bank) || a.Bank == domain.PaymentQRIS || a.AccountNumber == "" {
			return nil, ErrValidation
		}
		accounts = append(accounts, a)
	}
	return s.updateSettings(ctx, adminID, func(ps *domain.PlatformSettings) error {
		if req.BankAccounts != nil {
			ps.BankAccounts = accounts
		}
		if req.QRIS != nil {
			ps.QRIS = *req.QRIS
		}
		return nil
	})
}

func (s *Service) updateSettings(ctx context.Context, adminID int64, fn func(*domain.PlatformSettings) error) (*domain.PlatformSettings, error) {
	ps, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(ps); err != nil {
		return nil, err
	}
	ps.UpdatedBy = &adminID
	ps.UpdatedAt = s.now()
	if err := s.settings.Save(ctx, ps); err != nil {
		return nil, err
	}
	s.events.Publish(ctx, events.Event{Kind: events.SettingsUpdated, Payload: ps})
	return ps, nil
}

// -------------------- Blocked talents --------------------

func (s *Service) BlockTalent(ctx context.Context, adminID, talentID int64, reason string) (*domain.BlockedTalent, error) {
	if _, err := s.talents.GetByID(ctx, talentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrTalentNotFound
		}
		return nil, err
	}
	b := &domain.BlockedTalent{TalentID: talentID, Reason: strings.TrimSpace(reason), BlockedBy: adminID}
	if err := s.blocked.Block(ctx, b); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, ErrAlreadyBlocked
		}
		return nil, err
	}
	return b, nil
}

func (s *Service) UnblockTalent(ctx context.Context, talentID int64) error {
	if err := s.blocked.Unblock(ctx, talentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrNotBlocked
		}
		return err
	}
	return nil
}

func (s *Service) ListBlockedTalents(ctx context.Context) ([]domain.BlockedTalent, error) {
	return s.blocked.List(ctx)
}

// -------------------- Reports --------------------

// FileReport records a complaint from a booker about a talent.
func (s *Service) FileReport(ctx context.Context, reporter domain.Booker, req CreateReportRequest) (*domain.Report, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" || req.TalentID <= 0 {
		return nil, ErrValidation
	}
	if _, err := s.talents.GetByID(ctx, req.TalentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrTalentNotFound
		}
		return nil, err
	}
	if req.BookingID != nil {
		b, err := s.getBooking(ctx, *req.BookingID)
		if err != nil {
			return nil, err
		}
		if !b.BookedBy(reporter) || b.TalentID != req.TalentID {
			return nil, ErrValidation
		}
	}

	r := &domain.Report{
		ReporterID:   reporter.ID,
		ReporterType: reporter.Type,
		TalentID:     req.TalentID,
		BookingID:    req.BookingID,
		Reason:       reason,
		Details:      strings.TrimSpace(req.Details),
		Status:       domain.ReportOpen,
	}
	if err := s.reports.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) ListReports(ctx context.Context, status domain.ReportStatus) ([]domain.Report, error) {
	switch status {
	case "", domain.ReportOpen, domain.ReportResolved:
	default:
		return nil, ErrValidation
	}
	return s.reports.List(ctx, status)
}

func (s *Service) ResolveReport(ctx context.Context, adminID, reportID int64, note string) (*domain.Report, error) {
	r, err := s.reports.Resolve(ctx, reportID, adminID, strings.TrimSpace(note), s.now())
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, ErrReportNotFound
	case errors.Is(err, domain.ErrStaleState):
		return nil, ErrReportResolved
	case err != nil:
		return nil, err
	}
	return r, nil
}

// -------------------- helpers --------------------

func (s *Service) getBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *Service) view(ctx context.Context, b *domain.Booking) (*booking.View, error) {
	list, err := s.views(ctx, []domain.Booking{*b})
	if err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (s *Service) views(ctx context.Context, list []domain.Booking) ([]booking.View, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]booking.View, 0, len(list))
	for _, b := range list {
		v, err := booking.NewView(b, settings.CommissionPercent, now)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
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
