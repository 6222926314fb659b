package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rentmate/internal/domain"
	"rentmate/internal/events"
	"rentmate/internal/modules/chat"
	"rentmate/internal/repository"
	"rentmate/internal/testutil"
	"rentmate/internal/verification"
)

var fixedNow = time.Date(2026, 11, 1, 10, 0, 0, 0, time.UTC)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) SendApproval(ctx context.Context, email, name string) error {
	return m.Called(ctx, email, name).Error(0)
}

func (m *MockBackend) SendConfirmation(ctx context.Context, n verification.BookingNotice) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockBackend) PendingTalents(ctx context.Context) ([]verification.PendingTalent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]verification.PendingTalent), args.Error(1)
}

type brokenChats struct{}

func (brokenChats) GetOrCreateChatSession(context.Context, *domain.Booking) (*domain.ChatSession, error) {
	return nil, errors.New("database is locked")
}

type fixture struct {
	svc      *Service
	backend  *MockBackend
	bus      *events.Bus
	bookings *repository.BookingRepository
	chats    *repository.ChatRepository
	talents  *repository.TalentRepository
	mitras   *repository.MitraRepository
	settings *repository.SettingsRepository
	user     *domain.User
	mitra    *domain.MitraAccount
	talent   *domain.Talent
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := testutil.OpenDB(t)

	f := &fixture{
		backend:  new(MockBackend),
		bus:      events.NewBus(),
		bookings: repository.NewBookingRepository(db),
		chats:    repository.NewChatRepository(db),
		talents:  repository.NewTalentRepository(db),
		mitras:   repository.NewMitraRepository(db),
		settings: repository.NewSettingsRepository(db),
		user:     &domain.User{Email: "budi@example.com", Name: "Budi", Role: domain.RoleUser},
		mitra:    &domain.MitraAccount{Email: "ayu@example.com", Name: "Ayu", Status: domain.MitraPending},
		talent:   &domain.Talent{Name: "Ayu", City: "Jakarta", PricePerHour: 150000},
	}
	users := repository.NewUserRepository(db)
	require.NoError(t, users.Create(ctx, f.user))
	require.NoError(t, f.mitras.CreateWithTalent(ctx, f.mitra, f.talent))
	_, err := f.settings.EnsureDefaults(ctx, &domain.PlatformSettings{CommissionPercent: 20, Cities: []string{"Jakarta"}})
	require.NoError(t, err)

	chatSvc := chat.NewService(f.chats, f.bookings, f.mitras, f.bus)
	f.svc = NewService(Deps{
		Bookings: f.bookings,
		Chats:    chatSvc,
		Users:    users,
		Mitras:   f.mitras,
		Talents:  f.talents,
		Settings: f.settings,
		Blocked:  repository.NewBlockedTalentRepository(db),
		Reports:  repository.NewReportRepository(db),
		Backend:  f.backend,
		Events:   f.bus,
	})
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) booking(t *testing.T, talent *domain.Talent, date string, payment domain.PaymentStatus, total int64) *domain.Booking {
	t.Helper()
	start, err := time.Parse("2006-01-02 15:04", date+" 12:00")
	require.NoError(t, err)
	b := &domain.Booking{
		BookerID:       f.user.ID,
		BookerType:     domain.BookerUser,
		BookerName:     f.user.Name,
		TalentID:       talent.ID,
		TalentName:     talent.Name,
		Date:           date,
		Time:           "19:00",
		Duration:       2,
		StartAt:        start,
		EndAt:          start.Add(2 * time.Hour),
		Total:          total,
		PaymentStatus:  payment,
		ApprovalStatus: domain.ApprovalPending,
	}
	require.NoError(t, f.bookings.Create(context.Background(), b))
	return b
}

func TestApproveBooking_RequiresPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.booking(t, f.talent, "2026-11-02", domain.PaymentPending, 300000)

	d, err := f.svc.ApproveBooking(ctx, 1, b.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	assert.Nil(t, d)

	_, err = f.chats.GetByBookingID(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	f.backend.AssertNotCalled(t, "SendConfirmation", mock.Anything, mock.Anything)
}

func TestApproveBooking_OpensChatAndConfirms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.booking(t, f.talent, "2026-11-02", domain.PaymentPaid, 300000)
	sub, cancel := f.bus.Subscribe()
	defer cancel()

	f.backend.On("SendConfirmation", mock.Anything, mock.MatchedBy(func(n verification.BookingNotice) bool {
		return n.Email == "budi@example.com" && n.BookingID == b.ID && n.Total == 300000
	})).Return(nil).Once()

	d, err := f.svc.ApproveBooking(ctx, 1, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageApproved, d.Booking.Stage)
	assert.Equal(t, int64(60000), d.Booking.PaymentSplit.AppAmount)
	assert.Equal(t, int64(240000), d.Booking.PaymentSplit.MitraAmount)
	require.NotNil(t, d.Session)

	msgs, err := f.chats.Messages(ctx, d.Session.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.SenderTalent, msgs[0].SenderType)
	assert.False(t, msgs[0].ReadByUser)

	assert.Equal(t, events.BookingApproved, (<-sub).Kind)
	assert.Equal(t, events.ChatSessionCreated, (<-sub).Kind)
	f.backend.AssertExpectations(t)

	// a second approval is a stale transition
	_, err = f.svc.ApproveBooking(ctx, 1, b.ID)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
}

func TestApproveBooking_BackendFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	b := f.booking(t, f.talent, "2026-11-02", domain.PaymentPaid, 300000)
	f.backend.On("SendConfirmation", mock.Anything, mock.Anything).Return(errors.New("backend offline"))

	d, err := f.svc.ApproveBooking(context.Background(), 1, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalApproved, d.Booking.ApprovalStatus)
}

func TestApproveBooking_ChatFailureKeepsDecision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.booking(t, f.talent, "2026-11-02", domain.PaymentPaid, 300000)
	f.svc.chats = brokenChats{}
	f.backend.On("SendConfirmation", mock.Anything, mock.Anything).Return(nil)

	d, err := f.svc.ApproveBooking(ctx, 1, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalApproved, d.Booking.ApprovalStatus)
	assert.Nil(t, d.Session)

	stored, err := f.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalApproved, stored.ApprovalStatus)
}

func TestRejectBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.booking(t, f.talent, "2026-11-02", domain.PaymentPending, 300000)

	_, err := f.svc.RejectBooking(ctx, 1, b.ID, "  ")
	assert.ErrorIs(t, err, ErrReasonRequired)

	d, err := f.svc.RejectBooking(ctx, 1, b.ID, "talent unavailable")
	require.NoError(t, err)
	assert.Equal(t, domain.StageRejected, d.Booking.Stage)
	assert.Equal(t, "talent unavailable", d.Booking.RejectionReason)
	assert.Contains(t, d.Notice, RefundNotice)

	_, err = f.svc.RejectBooking(ctx, 1, b.ID, "again")
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = f.svc.RejectBooking(ctx, 1, 999, "missing")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestRevenueReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.backend.On("SendConfirmation", mock.Anything, mock.Anything).Return(nil)

	other := &domain.Talent{Name: "Sari", City: "Bandung", PricePerHour: 100000}
	require.NoError(t, f.talents.Create(ctx, other))

	for _, b := range []*domain.Booking{
		f.booking(t, f.talent, "2026-11-02", domain.PaymentPaid, 300000),
		f.booking(t, f.talent, "2026-11-03", domain.PaymentPaid, 155555),
		f.booking(t, other, "2026-11-04", domain.PaymentPaid, 200000),
		f.booking(t, other, "2026-12-10", domain.PaymentPaid, 999999),
	} {
		_, err := f.svc.ApproveBooking(ctx, 1, b.ID)
		require.NoError(t, err)
	}
	f.booking(t, f.talent, "2026-11-05", domain.PaymentPaid, 500000) // still pending approval

	r, err := f.svc.RevenueReport(ctx, "2026-11-01", "2026-11-30")
	require.NoError(t, err)
	assert.Equal(t, 3, r.Totals.Bookings)
	assert.Equal(t, int64(655555), r.Totals.Total)
	assert.Equal(t, r.Totals.Total, r.Totals.AppAmount+r.Totals.MitraAmount)
	// 60000 + 31111 + 40000
	assert.Equal(t, int64(131111), r.Totals.AppAmount)

	require.Len(t, r.ByTalent, 2)
	assert.Equal(t, f.talent.ID, r.ByTalent[0].TalentID)
	assert.Equal(t, int64(455555), r.ByTalent[0].Total)
	assert.Equal(t, 1, r.ByTalent[1].Bookings)

	_, err = f.svc.RevenueReport(ctx, "2026-12-01", "2026-11-01")
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.booking(t, f.talent, "2026-11-02", domain.PaymentPending, 300000)
	f.booking(t, f.talent, "2026-11-03", domain.PaymentPaid, 300000)

	d, err := f.svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, d.BookingsByStage[domain.StagePendingPayment])
	assert.Equal(t, 1, d.BookingsByStage[domain.StagePendingApproval])
	assert.Equal(t, int64(1), d.Talents)
	assert.Equal(t, int64(1), d.PendingMitras)
	assert.Equal(t, 20, d.CommissionPercent)
	assert.Zero(t, d.Revenue.Total)
}

func TestSettingsUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub, cancel := f.bus.Subscribe()
	defer cancel()

	_, err := f.svc.UpdateCommission(ctx, 1, 101)
	assert.ErrorIs(t, err, ErrInvalidCommission)

	s, err := f.svc.UpdateCommission(ctx, 1, 15)
	require.NoError(t, err)
	assert.Equal(t, 15, s.CommissionPercent)
	assert.Equal(t, events.SettingsUpdated, (<-sub).Kind)

	s, err = f.svc.UpdateCities(ctx, 1, []string{"Bali", " bali ", "", "Medan"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bali", "Medan"}, s.Cities)

	_, err = f.svc.UpdatePaymentSettings(ctx, 1, PaymentSettingsRequest{
		BankAccounts: []domain.BankAccount{{Bank: "qris", AccountNumber: "1"}},
	})
	assert.ErrorIs(t, err, ErrValidation)

	s, err = f.svc.UpdatePaymentSettings(ctx, 1, PaymentSettingsRequest{
		BankAccounts: []domain.BankAccount{{Bank: "BCA", AccountNumber: " 123 ", AccountHolder: "PT RentMate"}},
	})
	require.NoError(t, err)
	require.Len(t, s.BankAccounts, 1)
	assert.Equal(t, domain.PaymentBCA, s.BankAccounts[0].Bank)

	stored, err := f.settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15, stored.CommissionPercent)
	assert.Equal(t, "123", stored.BankAccounts[0].AccountNumber)
	assert.Equal(t, []string{"Bali", "Medan"}, stored.Cities)
}

func TestMitraVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.backend.On("SendApproval", mock.Anything, "ayu@example.com", "Ayu").Return(nil).Once()

	pending, err := f.svc.ListPendingMitras(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	m, err := f.svc.ApproveMitra(ctx, 1, f.mitra.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MitraVerified, m.Status)

	talent, err := f.talents.GetByID(ctx, f.talent.ID)
	require.NoError(t, err)
	assert.True(t, talent.Verified)

	_, err = f.svc.RejectMitra(ctx, f.mitra.ID, "late")
	assert.ErrorIs(t, err, ErrMitraNotPending)
	_, err = f.svc.ApproveMitra(ctx, 1, 999)
	assert.ErrorIs(t, err, ErrMitraNotFound)
	f.backend.AssertExpectations(t)
}

func TestSyncPendingMitras(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.backend.On("PendingTalents", mock.Anything).Return([]verification.PendingTalent{
		{Email: "AYU@example.com", Name: "Ayu"},
		{Email: "sari@example.com", Name: "Sari", City: "Bandung", PricePerHour: 120000},
	}, nil)

	res, err := f.svc.SyncPendingMitras(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 1, res.Imported)

	m, err := f.mitras.GetByEmail(ctx, "sari@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.MitraPending, m.Status)
}

func TestBlockAndReports(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.BlockTalent(ctx, 1, f.talent.ID, "spam")
	require.NoError(t, err)
	_, err = f.svc.BlockTalent(ctx, 1, f.talent.ID, "again")
	assert.ErrorIs(t, err, ErrAlreadyBlocked)
	_, err = f.svc.BlockTalent(ctx, 1, 999, "")
	assert.ErrorIs(t, err, ErrTalentNotFound)

	require.NoError(t, f.svc.UnblockTalent(ctx, f.talent.ID))
	assert.ErrorIs(t, f.svc.UnblockTalent(ctx, f.talent.ID), ErrNotBlocked)

	reporter := domain.Booker{ID: f.user.ID, Type: domain.BookerUser}
	r, err := f.svc.FileReport(ctx, reporter, CreateReportRequest{TalentID: f.talent.ID, Reason: "no show"})
	require.NoError(t, err)
	assert.Equal(t, domain.ReportOpen, r.Status)

	open, err := f.svc.ListReports(ctx, domain.ReportOpen)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	resolved, err := f.svc.ResolveReport(ctx, 1, r.ID, "warned")
	require.NoError(t, err)
	assert.Equal(t, domain.ReportResolved, resolved.Status)
	_, err = f.svc.ResolveReport(ctx, 1, r.ID, "twice")
	assert.ErrorIs(t, err, ErrReportResolved)
	_, err = f.svc.ResolveReport(ctx, 1, 999, "")
	assert.ErrorIs(t, err, ErrReportNotFound)
}
