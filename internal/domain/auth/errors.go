package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountTerminated  = errors.New("account terminated")
	ErrUnauthorized       = errors.New("unauthorized")
)
