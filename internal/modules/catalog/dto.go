package catalog

import "rentmate/internal/domain"

type PaymentSettings struct {
	BankAccounts []domain.BankAccount `json:"bank_accounts"`
	QRIS         domain.QRISSettings  `json:"qris"`
}
