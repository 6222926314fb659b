package domain

import "time"

type BankAccount struct {
	Bank          PaymentMethod `json:"bank" yaml:"bank"`
	AccountNumber string        `json:"account_number" yaml:"account_number"`
	AccountHolder string        `json:"account_holder" yaml:"account_holder"`
}

type QRISSettings struct {
	MerchantName string `json:"merchant_name" yaml:"merchant_name"`
	ImageURL     string `json:"image_url" yaml:"image_url"`
}

// PlatformSettings is the single authoritative row for platform-wide configuration.
type PlatformSettings struct {
	ID                int64         `json:"-" gorm:"primaryKey"`
	CommissionPercent int           `json:"commission_percent"`
	Cities            []string      `json:"cities" gorm:"serializer:json"`
	BankAccounts      []BankAccount `json:"bank_accounts" gorm:"serializer:json"`
	QRIS              QRISSettings  `json:"qris" gorm:"serializer:json"`
	UpdatedBy         *int64        `json:"updated_by,omitempty"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

func (PlatformSettings) TableName() string { return "platform_settings" }

// SettingsRowID is the primary key of the only platform_settings row.
const SettingsRowID int64 = 1
