package chat

import "errors"

var (
	ErrNotFound           = errors.New("chat session not found")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrBookingNotApproved = errors.New("chat is available only for approved bookings")
	ErrForbidden          = errors.New("not a participant of this chat")
	ErrEmptyMessage       = errors.New("message is empty")
	ErrMessageTooLong     = errors.New("message is too long")
)
