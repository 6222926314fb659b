package booking

import "errors"

var (
	ErrValidation              = errors.New("validation error")
	ErrNotFound                = errors.New("booking not found")
	ErrForbidden               = errors.New("forbidden")
	ErrTalentNotFound          = errors.New("talent not found")
	ErrTalentUnavailable       = errors.New("talent is not available for booking")
	ErrSelfBooking             = errors.New("mitra cannot book their own talent")
	ErrStartInPast             = errors.New("booking must start in the future")
	ErrSlotBooked              = errors.New("slot already booked")
	ErrDuplicateBooking        = errors.New("you already have an active booking for this slot")
	ErrInvalidStatusTransition = errors.New("booking is not in a state that allows this action")
	ErrPaymentMethodRequired   = errors.New("select payment method")
	ErrInvalidPaymentMethod    = errors.New("unsupported payment method")
	ErrPaymentProofRequired    = errors.New("payment proof is required for bank transfers")
	ErrInvalidProof            = errors.New("payment proof must be an image")
	ErrProofTooLarge           = errors.New("payment proof is too large")
)
