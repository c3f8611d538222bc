package domain

import "errors"

var (
	// ErrCustomerNotFound is returned when no customer row matches the NIK.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrInvalidCredentials is returned when the NIK exists but the password
	// does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionNotFound is returned for unknown or expired session tokens.
	ErrSessionNotFound = errors.New("session not found")
)
