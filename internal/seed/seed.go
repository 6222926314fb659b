// Package seed fills an empty database with demo accounts, talents and bookings.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"rentmate/internal/domain"
	"rentmate/internal/events"
	"rentmate/internal/modules/chat"
	"rentmate/internal/repository"
)

const (
	AdminEmail    = "admin@rentmate.id"
	AdminPassword = "admin123"
	UserPassword  = "user123"
	MitraPassword = "mitra123"
)

// ErrAlreadySeeded is returned when the admin account already exists and Reset is off.
var ErrAlreadySeeded = errors.New("database already seeded")

type Options struct {
	// Reset wipes every marketplace table before seeding.
	Reset bool
	// Now anchors booking dates; zero means time.Now.
	Now      time.Time
	Location *time.Location
}

type Result struct {
	Users    int
	Mitras   int
	Bookings int
	Chats    int
}

var talents = []struct {
	name, email, city, category, bio string
	price                            int64
	verified                         bool
}{
	{"Sari Wulandari", "sari@rentmate.id", "Jakarta", "companion", "Loves coffee shops and museum walks.", 150000, true},
	{"Dimas Pratama", "dimas@rentmate.id", "Bandung", "sport", "Badminton partner and hiking buddy.", 120000, true},
	{"Ayu Lestari", "ayu@rentmate.id", "Surabaya", "event", "Event plus-one with a good sense of humor.", 200000, true},
	{"Rizky Hidayat", "rizky@rentmate.id", "Yogyakarta", "tour", "Local guide for temples and street food.", 100000, false},
}

var users = []struct{ name, email, phone string }{
	{"Budi Santoso", "budi@mail.id", "+62 812 1111 2222"},
	{"Citra Dewi", "citra@mail.id", "+62 813 3333 4444"},
	{"Eka Putri", "eka@mail.id", "+62 814 5555 6666"},
}

// Run creates the demo data set.
func Run(ctx context.Context, db *gorm.DB, opts Options) (Result, error) {
	var res Result
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	userRepo := repository.NewUserRepository(db)
	if opts.Reset {
		if err := reset(db); err != nil {
			return res, err
		}
	} else if _, err := userRepo.GetByEmail(ctx, AdminEmail); err == nil {
		return res, ErrAlreadySeeded
	} else if !errors.Is(err, domain.ErrNotFound) {
		return res, err
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userRepo := repository.NewUserRepository(tx)
		mitraRepo := repository.NewMitraRepository(tx)
		bookingRepo := repository.NewBookingRepository(tx)
		chats := chat.NewService(repository.NewChatRepository(tx), bookingRepo, mitraRepo, events.Nop{})

		log.Println("Creating users...")
		admin := &domain.User{Email: AdminEmail, Name: "RentMate Admin", Role: domain.RoleAdmin, Verification: domain.UserVerified}
		if err := createUser(ctx, userRepo, admin, AdminPassword); err != nil {
			return err
		}
		bookers := make([]domain.User, 0, len(users))
		for _, u := range users {
			user := &domain.User{Email: u.email, Name: u.name, Phone: u.phone, Role: domain.RoleUser, Verification: domain.UserVerified}
			if err := createUser(ctx, userRepo, user, UserPassword); err != nil {
				return err
			}
			bookers = append(bookers, *user)
			res.Users++
		}

		log.Println("Creating mitras and talents...")
		created := make([]domain.Talent, 0, len(talents))
		var firstMitra *domain.MitraAccount
		for _, t := range talents {
			hash, err := bcrypt.GenerateFromPassword([]byte(MitraPassword), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			talent := &domain.Talent{Name: t.name, City: t.city, Category: t.category, Bio: t.bio, PricePerHour: t.price, Verified: t.verified}
			m := &domain.MitraAccount{Email: t.email, Name: t.name, PasswordHash: string(hash), Status: domain.MitraPending}
			if t.verified {
				m.Status = domain.MitraVerified
				m.VerifiedBy = &admin.ID
				at := opts.Now
				m.VerifiedAt = &at
			}
			if err := mitraRepo.CreateWithTalent(ctx, m, talent); err != nil {
				return fmt.Errorf("seed mitra %s: %w", t.email, err)
			}
			if firstMitra == nil {
				firstMitra = m
			}
			created = append(created, *talent)
			res.Mitras++
		}

		log.Println("Creating bookings...")
		day := func(offset int) time.Time {
			d := opts.Now.In(opts.Location).AddDate(0, 0, offset)
			return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, opts.Location)
		}
		plans := []struct {
			booker   domain.Booker
			name     string
			talent   domain.Talent
			day      int
			hour     int
			duration int
			paid     bool
			approval domain.ApprovalStatus
			reason   string
		}{
			{domain.Booker{ID: bookers[0].ID, Type: domain.BookerUser}, bookers[0].Name, created[0], 2, 14, 3, true, domain.ApprovalApproved, ""},
			{domain.Booker{ID: bookers[1].ID, Type: domain.BookerUser}, bookers[1].Name, created[1], 3, 10, 2, true, domain.ApprovalPending, ""},
			{domain.Booker{ID: bookers[2].ID, Type: domain.BookerUser}, bookers[2].Name, created[2], 4, 19, 4, false, domain.ApprovalPending, ""},
			{domain.Booker{ID: bookers[0].ID, Type: domain.BookerUser}, bookers[0].Name, created[1], -5, 9, 2, true, domain.ApprovalApproved, ""},
			{domain.Booker{ID: bookers[1].ID, Type: domain.BookerUser}, bookers[1].Name, created[2], 6, 12, 1, true, domain.ApprovalRejected, "Talent unavailable on that date"},
			{domain.Booker{ID: firstMitra.ID, Type: domain.BookerMitra}, firstMitra.Name, created[2], 5, 15, 2, true, domain.ApprovalApproved, ""},
		}

		for i, p := range plans {
			start := day(p.day).Add(time.Duration(p.hour) * time.Hour)
			b := &domain.Booking{
				BookerID: p.booker.ID, BookerType: p.booker.Type, BookerName: p.name,
				TalentID: p.talent.ID, TalentName: p.talent.Name, TalentPhoto: p.talent.PhotoURL,
				Date: start.Format("2006-01-02"), Time: start.Format("15:04"), Duration: p.duration,
				StartAt: start.UTC(), EndAt: start.Add(time.Duration(p.duration) * time.Hour).UTC(),
				Type: domain.BookingOffline, Purpose: "Demo booking",
				Total:          p.talent.PricePerHour * int64(p.duration),
				PaymentStatus:  domain.PaymentPending,
				PaymentCode:    fmt.Sprintf("RM-DEMO-%03d", i+1),
				ApprovalStatus: p.approval,
			}
			if p.paid {
				at := opts.Now.UTC()
				b.PaymentStatus = domain.PaymentPaid
				b.PaymentMethod = domain.PaymentBCA
				b.TransferAmount = b.Total
				b.TransferTime = &at
			}
			if p.approval != domain.ApprovalPending {
				at := opts.Now.UTC()
				b.DecidedAt = &at
				b.DecidedBy = &admin.ID
				b.RejectionReason = p.reason
			}
			if err := bookingRepo.Create(ctx, b); err != nil {
				return err
			}
			res.Bookings++

			if b.ApprovalStatus != domain.ApprovalApproved {
				continue
			}
			if _, err := chats.GetOrCreateChatSession(ctx, b); err != nil {
				return err
			}
			res.Chats++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func createUser(ctx context.Context, repo *repository.UserRepository, u *domain.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	if err := repo.Create(ctx, u); err != nil {
		return fmt.Errorf("seed user %s: %w", u.Email, err)
	}
	return nil
}

// reset deletes children before parents.
func reset(db *gorm.DB) error {
	log.Println("Cleaning old data...")
	for _, table := range []string{"reports", "blocked_talents", "chat_messages", "chat_sessions", "bookings", "payment_codes", "mitra_accounts", "talents", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return nil
}
