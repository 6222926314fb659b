package domain

import "time"

// Talent is a bookable catalog entry.
type Talent struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name" gorm:"not null"`
	City         string    `json:"city" gorm:"index"`
	Category     string    `json:"category,omitempty"`
	PricePerHour int64     `json:"price_per_hour"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	Bio          string    `json:"bio,omitempty" gorm:"type:text"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Talent) TableName() string { return "talents" }

type BlockedTalent struct {
	ID        int64     `json:"id"`
	TalentID  int64     `json:"talent_id" gorm:"not null;uniqueIndex"`
	Reason    string    `json:"reason,omitempty"`
	BlockedBy int64     `json:"blocked_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (BlockedTalent) TableName() string { return "blocked_talents" }
