package auth

import "rentmate/internal/domain"

type RegisterUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterMitraRequest is a talent application; the talent starts unverified.
type RegisterMitraRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone"`
	Password     string `json:"password" binding:"required,min=6"`
	City         string `json:"city" binding:"required"`
	Category     string `json:"category"`
	PricePerHour int64  `json:"price_per_hour" binding:"required,gt=0"`
	PhotoURL     string `json:"photo_url"`
	Bio          string `json:"bio"`
}

// Profile is the public view of any account kind.
type Profile struct {
	ID        int64              `json:"id"`
	Role      domain.UserRole    `json:"role"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Phone     string             `json:"phone,omitempty"`
	AvatarURL string             `json:"avatar_url,omitempty"`
	TalentID  int64              `json:"talent_id,omitempty"`
	Status    domain.MitraStatus `json:"status,omitempty"`
}

type AuthResult struct {
	Profile     Profile `json:"user"`
	AccessToken string  `json:"access_token"`
	ExpiresIn   int64   `json:"expires_in"`
}

func userProfile(u *domain.User) Profile {
	return Profile{
		ID:        u.ID,
		Role:      u.Role,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		AvatarURL: u.AvatarURL,
	}
}

func mitraProfile(m *domain.MitraAccount) Profile {
	return Profile{
		ID:       m.ID,
		Role:     domain.RoleMitra,
		Name:     m.Name,
		Email:    m.Email,
		Phone:    m.Phone,
		TalentID: m.TalentID,
		Status:   m.Status,
	}
}
