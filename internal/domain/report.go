package domain

import "time"

type ReportStatus string

const (
	ReportOpen     ReportStatus = "open"
	ReportResolved ReportStatus = "resolved"
)

// Report is a complaint about a talent filed by a booker.
type Report struct {
	ID             int64        `json:"id"`
	ReporterID     int64        `json:"reporter_id" gorm:"not null;index"`
	ReporterType   BookerType   `json:"reporter_type" gorm:"type:varchar(16);not null"`
	TalentID       int64        `json:"talent_id" gorm:"not null;index"`
	BookingID      *int64       `json:"booking_id,omitempty"`
	Reason         string       `json:"reason" gorm:"not null"`
	Details        string       `json:"details,omitempty" gorm:"type:text"`
	Status         ReportStatus `json:"status" gorm:"type:varchar(16);not null;default:'open';index"`
	ResolutionNote string       `json:"resolution_note,omitempty" gorm:"type:text"`
	ResolvedBy     *int64       `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time   `json:"resolved_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

func (Report) TableName() string { return "reports" }
