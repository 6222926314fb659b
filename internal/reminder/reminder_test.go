package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentmate/internal/domain"
	"rentmate/internal/repository"
	"rentmate/internal/testutil"
	"rentmate/internal/verification"
)

type recordingSender struct {
	mu      sync.Mutex
	sent    []verification.BookingNotice
	failFor map[int64]bool
}

func (r *recordingSender) SendReminder(_ context.Context, n verification.BookingNotice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[n.BookingID] {
		return errors.New("backend offline")
	}
	r.sent = append(r.sent, n)
	return nil
}

var fixedNow = time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC)

func TestRunOnce(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	bookings := repository.NewBookingRepository(db)
	users := repository.NewUserRepository(db)

	u := &domain.User{Email: "budi@example.com", Name: "Budi", Role: domain.RoleUser}
	require.NoError(t, users.Create(ctx, u))

	add := func(start time.Time, status domain.ApprovalStatus) *domain.Booking {
		b := &domain.Booking{
			BookerID:       u.ID,
			BookerType:     domain.BookerUser,
			TalentID:       5,
			TalentName:     "Ayu",
			Date:           start.Format("2006-01-02"),
			Time:           start.Format("15:04"),
			Duration:       1,
			StartAt:        start,
			EndAt:          start.Add(time.Hour),
			Total:          150000,
			PaymentStatus:  domain.PaymentPaid,
			ApprovalStatus: status,
		}
		require.NoError(t, bookings.Create(ctx, b))
		return b
	}

	soon := add(fixedNow.Add(90*time.Minute), domain.ApprovalApproved)
	failing := add(fixedNow.Add(time.Hour), domain.ApprovalApproved)
	add(fixedNow.Add(5*time.Hour), domain.ApprovalApproved)   // outside lead
	add(fixedNow.Add(-time.Hour), domain.ApprovalApproved)    // already started
	add(fixedNow.Add(30*time.Minute), domain.ApprovalPending) // not approved

	sender := &recordingSender{failFor: map[int64]bool{failing.ID: true}}
	s := New(Deps{Bookings: bookings, Users: users, Mitras: repository.NewMitraRepository(db), Sender: sender}, 2*time.Hour)
	s.now = func() time.Time { return fixedNow }

	res, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Due: 2, Sent: 1, Failed: 1}, res)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, soon.ID, sender.sent[0].BookingID)
	assert.Equal(t, "budi@example.com", sender.sent[0].Email)

	got, err := bookings.GetByID(ctx, soon.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.ReminderSentAt)

	// the reminded booking is skipped, the failed one is retried
	delete(sender.failFor, failing.ID)
	res, err = s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Result{Due: 1, Sent: 1}, res)
}

func TestValidateSpec(t *testing.T) {
	assert.NoError(t, ValidateSpec("*/15 * * * *"))
	assert.Error(t, ValidateSpec("every now and then"))
	assert.Error(t, ValidateSpec("0 */15 * * * *"), "seconds field is not accepted")
}

func TestStart_StopsOnCancel(t *testing.T) {
	s := New(Deps{}, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done, err := s.Start(ctx, "0 3 * * *")
	require.NoError(t, err)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}

	_, err = s.Start(context.Background(), "bogus")
	assert.Error(t, err)
}
