package catalog

import (
	"context"
	"errors"
	"strings"

	"rentmate/internal/domain"
	"rentmate/internal/repository"
)

var ErrTalentNotFound = errors.New("talent not found")

type TalentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Talent, error)
	List(ctx context.Context, f repository.TalentFilter) ([]domain.Talent, error)
}

type BlockList interface {
	IsBlocked(ctx context.Context, talentID int64) (bool, error)
}

type SettingsRepository interface {
	Get(ctx context.Context) (*domain.PlatformSettings, error)
}

// Service is the public, read-only face of the marketplace.
type Service struct {
	talents  TalentRepository
	blocked  BlockList
	settings SettingsRepository
}

func NewService(talents TalentRepository, blocked BlockList, settings SettingsRepository) *Service {
	return &Service{talents: talents, blocked: blocked, settings: settings}
}

// ListTalents returns verified, unblocked talents, optionally by city and name.
func (s *Service) ListTalents(ctx context.Context, city, query string) ([]domain.Talent, error) {
	return s.talents.List(ctx, repository.TalentFilter{
		City:           strings.TrimSpace(city),
		Query:          strings.TrimSpace(query),
		VerifiedOnly:   true,
		ExcludeBlocked: true,
	})
}

// GetTalent hides unverified and blocked talents.
func (s *Service) GetTalent(ctx context.Context, id int64) (*domain.Talent, error) {
	t, err := s.talents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrTalentNotFound
		}
		return nil, err
	}
	if !t.Verified {
		return nil, ErrTalentNotFound
	}
	blocked, err := s.blocked.IsBlocked(ctx, id)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrTalentNotFound
	}
	return t, nil
}

func (s *Service) Cities(ctx context.Context) ([]string, error) {
	ps, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return ps.Cities, nil
}

// PaymentSettings is what a booker needs to transfer money.
func (s *Service) PaymentSettings(ctx context.Context) (*PaymentSettings, error) {
	ps, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &PaymentSettings{BankAccounts: ps.BankAccounts, QRIS: ps.QRIS}, nil
}
