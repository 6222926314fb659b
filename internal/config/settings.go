package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"rentmate/internal/domain"
)

// PlatformDefaults seeds the platform_settings row the first time the service starts.
type PlatformDefaults struct {
	CommissionPercent *int                 `yaml:"commission_percent"`
	Cities            []string             `yaml:"cities"`
	BankAccounts      []domain.BankAccount `yaml:"bank_accounts"`
	QRIS              domain.QRISSettings  `yaml:"qris"`
}

// LoadPlatformDefaults reads the settings file at path. A missing file yields built-in defaults.
func LoadPlatformDefaults(path string) (*PlatformDefaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ParsePlatformDefaults(nil)
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return ParsePlatformDefaults(data)
}

// ParsePlatformDefaults unmarshals YAML bytes into validated defaults.
func ParsePlatformDefaults(data []byte) (*PlatformDefaults, error) {
	var d PlatformDefaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	d.applyDefaults()
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (d *PlatformDefaults) applyDefaults() {
	if d.CommissionPercent == nil {
		pct := domain.DefaultCommissionPercent
		d.CommissionPercent = &pct
	}
	if len(d.Cities) == 0 {
		d.Cities = []string{"Jakarta", "Bandung", "Surabaya", "Yogyakarta", "Bali"}
	}
	for i := range d.Cities {
		d.Cities[i] = strings.TrimSpace(d.Cities[i])
	}
	for i := range d.BankAccounts {
		d.BankAccounts[i].Bank = domain.PaymentMethod(strings.ToLower(string(d.BankAccounts[i].Bank)))
	}
}

func (d *PlatformDefaults) validate() error {
	var errs []string
	if pct := *d.CommissionPercent; pct < 0 || pct > 100 {
		errs = append(errs, fmt.Sprintf("commission_percent must be within 0..100, got %d", pct))
	}
	for i, c := range d.Cities {
		if c == "" {
			errs = append(errs, fmt.Sprintf("cities[%d] is empty", i))
		}
	}
	for i, acc := range d.BankAccounts {
		if acc.Bank == domain.PaymentQRIS || !domain.ValidPaymentMethod(acc.Bank) {
			errs = append(errs, fmt.Sprintf("bank_accounts[%d].bank %q is not a supported bank", i, acc.Bank))
		}
		if acc.AccountNumber == "" {
			errs = append(errs, fmt.Sprintf("bank_accounts[%d].account_number is required", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Settings converts the defaults into the persisted settings row.
func (d *PlatformDefaults) Settings() *domain.PlatformSettings {
	return &domain.PlatformSettings{
		ID:                domain.SettingsRowID,
		CommissionPercent: *d.CommissionPercent,
		Cities:            append([]string(nil), d.Cities...),
		BankAccounts:      append([]domain.BankAccount(nil), d.BankAccounts...),
		QRIS:              d.QRIS,
	}
}
