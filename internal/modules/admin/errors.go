package admin

import "errors"

var (
	ErrValidation              = errors.New("invalid request")
	ErrBookingNotFound         = errors.New("booking not found")
	ErrInvalidStatusTransition = errors.New("booking is not in a state that allows this action")
	ErrReasonRequired          = errors.New("rejection reason is required")
	ErrInvalidCommission       = errors.New("commission percent must be between 0 and 100")
	ErrMitraNotFound           = errors.New("mitra not found")
	ErrMitraNotPending         = errors.New("mitra is not pending verification")
	ErrTalentNotFound          = errors.New("talent not found")
	ErrAlreadyBlocked          = errors.New("talent is already blocked")
	ErrNotBlocked              = errors.New("talent is not blocked")
	ErrReportNotFound          = errors.New("report not found")
	ErrReportResolved          = errors.New("report is already resolved")
	ErrInvalidDateRange        = errors.New("invalid date range")
)
