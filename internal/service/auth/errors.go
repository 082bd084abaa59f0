package auth

import "errors"

var (
	ErrUsernameTaken      = errors.New("Username already exists")
	ErrInvalidCredentials = errors.New("Invalid credentials")
)
