package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"rentmate/internal/domain"
	"rentmate/internal/verification"
)

// Service contains all business logic for authentication
type Service struct {
	users   UserRepository
	mitras  MitraRepository
	jwt     jwtService
	backend Backend

	now     func() time.Time
	loggerf func(format string, args ...interface{})
}

func NewService(users UserRepository, mitras MitraRepository, jwt jwtService, backend Backend) *Service {
	return &Service{
		users:   users,
		mitras:  mitras,
		jwt:     jwt,
		backend: backend,
		now:     time.Now,
		loggerf: func(string, ...interface{}) {},
	}
}

func (s *Service) SetLogger(loggerf func(format string, args ...interface{})) {
	if loggerf != nil {
		s.loggerf = loggerf
	}
}

func (s *Service) RegisterUser(ctx context.Context, req RegisterUserRequest) (*AuthResult, error) {
	if err := s.validateEmailUnique(ctx, req.Email); err != nil {
		return nil, err
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		Verification: domain.UserUnverified,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}
	return s.issue(userProfile(u))
}

// Login authenticates users and admins.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !checkPassword(u.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(userProfile(u))
}

// RegisterMitra creates the unverified talent and its pending account, then
// forwards the application to the verification backend.
// An account imported from the backend without a password is claimed instead.
func (s *Service) RegisterMitra(ctx context.Context, req RegisterMitraRequest) (*AuthResult, error) {
	imported, err := s.importedMitra(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	t := &domain.Talent{
		Name:         strings.TrimSpace(req.Name),
		City:         strings.TrimSpace(req.City),
		Category:     strings.TrimSpace(req.Category),
		PricePerHour: req.PricePerHour,
		PhotoURL:     strings.TrimSpace(req.PhotoURL),
		Bio:          strings.TrimSpace(req.Bio),
	}
	m := &domain.MitraAccount{
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		Name:         t.Name,
		Phone:        strings.TrimSpace(req.Phone),
		Status:       domain.MitraPending,
	}
	if imported != nil {
		return s.claim(ctx, imported, m, t)
	}
	if err := s.mitras.CreateWithTalent(ctx, m, t); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	err = s.backend.RegisterTalent(ctx, verification.TalentApplication{
		MitraID:      m.ID,
		TalentID:     t.ID,
		Name:         t.Name,
		Email:        m.Email,
		Phone:        m.Phone,
		City:         t.City,
		PricePerHour: t.PricePerHour,
	})
	if err != nil {
		s.loggerf("level=warn msg=register_talent_forward_failed mitra_id=%d err=%v", m.ID, err)
	}
	return s.issue(mitraProfile(m))
}

// importedMitra returns the passwordless mitra holding email, nil when the
// email is free, or ErrEmailAlreadyExists.
func (s *Service) importedMitra(ctx context.Context, email string) (*domain.MitraAccount, error) {
	email = normalizeEmail(email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	m, err := s.mitras.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	case m.PasswordHash != "":
		return nil, ErrEmailAlreadyExists
	}
	return m, nil
}

// claim binds the registration to an imported account. The backend already
// holds the application, so nothing is forwarded.
func (s *Service) claim(ctx context.Context, imported, m *domain.MitraAccount, t *domain.Talent) (*AuthResult, error) {
	m.ID = imported.ID
	m.TalentID = imported.TalentID
	if err := s.mitras.Claim(ctx, m, t); err != nil {
		if errors.Is(err, domain.ErrStaleState) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}
	fresh, err := s.mitras.GetByID(ctx, imported.ID)
	if err != nil {
		return nil, err
	}
	s.loggerf("level=info msg=imported_mitra_claimed mitra_id=%d", fresh.ID)
	return s.issue(mitraProfile(fresh))
}

// LoginMitra authenticates a mitra. A pending account asks the verification
// backend for its current status first; a backend failure keeps it pending.
func (s *Service) LoginMitra(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	m, err := s.mitras.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !checkPassword(m.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	if m.Status == domain.MitraPending {
		m = s.refreshStatus(ctx, m, req.Password)
	}
	if m.Status == domain.MitraRejected {
		return nil, ErrMitraRejected
	}
	return s.issue(mitraProfile(m))
}

func (s *Service) refreshStatus(ctx context.Context, m *domain.MitraAccount, password string) *domain.MitraAccount {
	res, err := s.backend.Login(ctx, m.Email, password)
	if err != nil {
		s.loggerf("level=warn msg=mitra_status_refresh_failed mitra_id=%d err=%v", m.ID, err)
		return m
	}

	now := s.now()
	switch strings.ToLower(res.Status) {
	case "verified", "approved":
		// adminID 0 marks a decision taken on the verification backend.
		err = s.mitras.Verify(ctx, m.ID, 0, now)
	case "rejected":
		err = s.mitras.Reject(ctx, m.ID, "rejected by verification backend", now)
	default:
		return m
	}
	if err != nil && !errors.Is(err, domain.ErrStaleState) {
		s.loggerf("level=warn msg=mitra_status_update_failed mitra_id=%d err=%v", m.ID, err)
		return m
	}

	fresh, err := s.mitras.GetByID(ctx, m.ID)
	if err != nil {
		return m
	}
	return fresh
}

// Me returns the profile of the authenticated caller.
func (s *Service) Me(ctx context.Context, actor domain.Actor) (*Profile, error) {
	var p Profile
	switch actor.Role {
	case domain.RoleMitra:
		m, err := s.mitras.GetByID(ctx, actor.ID)
		if err != nil {
			return nil, mapNotFound(err)
		}
		p = mitraProfile(m)
	case domain.RoleUser, domain.RoleAdmin:
		u, err := s.users.GetByID(ctx, actor.ID)
		if err != nil {
			return nil, mapNotFound(err)
		}
		p = userProfile(u)
	default:
		return nil, ErrUnauthorized
	}
	return &p, nil
}

func (s *Service) issue(p Profile) (*AuthResult, error) {
	token, err := s.jwt.GenerateToken(p.ID, string(p.Role))
	if err != nil {
		return nil, err
	}
	return &AuthResult{Profile: p, AccessToken: token, ExpiresIn: int64(s.jwt.TTL().Seconds())}, nil
}

// validateEmailUnique keeps user and mitra emails disjoint.
func (s *Service) validateEmailUnique(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return ErrEmailAlreadyExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if _, err := s.mitras.GetByEmail(ctx, email); err == nil {
		return ErrEmailAlreadyExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// checkPassword fails for accounts without a password, e.g. ones imported by sync.
func checkPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
