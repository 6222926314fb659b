package domain

import "errors"

// Storage-level sentinels returned by repositories; modules map them to their own errors.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
	// ErrStaleState means a conditional update matched no row because the record moved on.
	ErrStaleState = errors.New("record state changed")
)
