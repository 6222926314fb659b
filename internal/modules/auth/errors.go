package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrMitraRejected      = errors.New("mitra application was rejected")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("account not found")
)
