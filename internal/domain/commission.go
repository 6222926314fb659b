package domain

import (
	"errors"
	"fmt"
)

// DefaultCommissionPercent is used only when no platform settings exist yet.
const DefaultCommissionPercent = 20

var ErrInvalidCommission = errors.New("commission percent must be between 0 and 100")

// PaymentSplit is how a booking total is divided between the platform and the mitra.
type PaymentSplit struct {
	Total             int64 `json:"total"`
	CommissionPercent int   `json:"commission_percent"`
	AppAmount         int64 `json:"app_amount"`
	MitraAmount       int64 `json:"mitra_amount"`
}

// CalculatePaymentSplit is the single place the platform commission is computed.
// AppAmount is total*pct/100 rounded half up; MitraAmount takes the remainder.
func CalculatePaymentSplit(total int64, pct int) (PaymentSplit, error) {
	if pct < 0 || pct > 100 {
		return PaymentSplit{}, fmt.Errorf("%w: got %d", ErrInvalidCommission, pct)
	}
	if total < 0 {
		return PaymentSplit{}, fmt.Errorf("total must not be negative: got %d", total)
	}

	app := (total*int64(pct) + 50) / 100
	return PaymentSplit{
		Total:             total,
		CommissionPercent: pct,
		AppAmount:         app,
		MitraAmount:       total - app,
	}, nil
}
