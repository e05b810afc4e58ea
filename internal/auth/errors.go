package auth

import "errors"

var (
	ErrNotFound = errors.New("auth: not found")

	// ErrInvalidCredentials covers unknown usernames and wrong passwords
	// alike; callers surface both as a single authentication failure.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrForbidden indicates a valid identity whose roles do not satisfy
	// the endpoint policy. Always distinguishable from ErrInvalidCredentials.
	ErrForbidden = errors.New("auth: forbidden")
)
