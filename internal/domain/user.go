package domain

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleMitra UserRole = "mitra"
	RoleAdmin UserRole = "admin"
)

type UserVerification string

const (
	UserUnverified UserVerification = "unverified"
	UserVerified   UserVerification = "verified"
)

type User struct {
	ID           int64            `json:"id"`
	Email        string           `json:"email" gorm:"uniqueIndex;not null" validate:"required,email"`
	PasswordHash string           `json:"-"`
	Role         UserRole         `json:"role" gorm:"type:varchar(16);not null;default:'user'"`
	Name         string           `json:"name"`
	Phone        string           `json:"phone,omitempty"`
	AvatarURL    string           `json:"avatar_url,omitempty"`
	Verification UserVerification `json:"verification" gorm:"type:varchar(16);not null;default:'unverified'"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func (User) TableName() string { return "users" }

type MitraStatus string

const (
	MitraPending  MitraStatus = "pending"
	MitraVerified MitraStatus = "verified"
	MitraRejected MitraStatus = "rejected"
)

// MitraAccount is a partner login bound to one catalog talent.
type MitraAccount struct {
	ID             int64       `json:"id"`
	Email          string      `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash   string      `json:"-"`
	Name           string      `json:"name"`
	Phone          string      `json:"phone,omitempty"`
	TalentID       int64       `json:"talent_id" gorm:"not null;uniqueIndex"`
	Status         MitraStatus `json:"status" gorm:"type:varchar(16);not null;default:'pending';index"`
	RejectedReason string      `json:"rejected_reason,omitempty"`
	VerifiedAt     *time.Time  `json:"verified_at,omitempty"`
	VerifiedBy     *int64      `json:"verified_by,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (MitraAccount) TableName() string { return "mitra_accounts" }

// Actor is the authenticated caller of an operation. For RoleMitra, ID is the mitra account id.
type Actor struct {
	ID   int64
	Role UserRole
}

// Booker returns the booking identity of the actor; admins cannot book.
func (a Actor) Booker() (Booker, bool) {
	switch a.Role {
	case RoleUser:
		return Booker{ID: a.ID, Type: BookerUser}, true
	case RoleMitra:
		return Booker{ID: a.ID, Type: BookerMitra}, true
	}
	return Booker{}, false
}
